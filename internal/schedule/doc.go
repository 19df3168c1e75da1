// Package schedule decides, for any instant, which class of today's agenda
// should be opened next.
//
// A Scheduler owns all per-day state (the agenda, the firing state and the
// day it was built for). It is not safe for concurrent use; the poll loop
// drives it from a single goroutine, one tick at a time.
//
// Each tick runs three steps:
//
//  1. Refresh: rebuild the agenda when the calendar date changed and reset
//     every class to pending.
//  2. Select: pick the earliest unfired class that has not started yet and
//     decide NoneUpcoming, Waiting or ReadyToFire against the lead time.
//  3. On ReadyToFire only: open the class resource and mark it fired. A
//     failing launch still marks the class fired; a class never opens
//     twice on the same day.
package schedule
