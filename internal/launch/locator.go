package launch

import (
	"fmt"
	"net/url"
	"strings"
)

// FallbackLocator builds the locator opened for a class without a link:
//
//	<base>?className=<name>&timing=<H>:<MM>
//
// The name is percent-encoded with spaces as %20, the hour is not padded
// and minutes always have two digits. An existing query on base is kept.
func FallbackLocator(base, name string, hour, minute int) string {
	q := "className=" + encodeComponent(name) + "&timing=" + fmt.Sprintf("%d:%02d", hour, minute)

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}
	return base + sep + q
}

// Fallback returns FallbackLocator bound to base, in the shape the
// scheduler expects.
func Fallback(base string) func(name string, hour, minute int) string {
	return func(name string, hour, minute int) string {
		return FallbackLocator(base, name, hour, minute)
	}
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
