package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// noticeTags are the elements operators may use in a line notice.
var noticeTags = []string{
	"p", "br", "strong", "em", "a", "ul", "li", "h1",
	"h2", "h3", "h4", "h5", "h6", "span", "div", "b", "i",
	"u", "s", "mark", "pre", "blockquote", "hr", "center",
	"svg", "path", "g", "rect", "circle", "ellipse", "line",
	"polyline", "polygon", "title", "desc", "defs", "use",
}

var (
	noticePolicy  = newPolicy(noticeTags...)
	stationPolicy = newPolicy("del")
)

// newPolicy allows only the given elements and no attributes at all.
func newPolicy(tags ...string) *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(tags...)
	return p
}

// Notice cleans a line notice for display. Blank notices become "".
func Notice(s string) string {
	return strings.TrimSpace(noticePolicy.Sanitize(s))
}

// StationName strips everything but <del>, used to mark closed stations.
func StationName(s string) string {
	return stationPolicy.Sanitize(s)
}

func StationNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = StationName(n)
	}
	return out
}
