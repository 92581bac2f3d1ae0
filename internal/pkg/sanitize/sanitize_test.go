package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotice(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "  Works at Beta  ", "Works at Beta"},
		{"allowed tags kept", "<strong>Closed</strong> until <em>Monday</em>", "<strong>Closed</strong> until <em>Monday</em>"},
		{"attributes dropped", `<span onclick="x()">hi</span>`, "<span>hi</span>"},
		{"bare anchor unwrapped", `<a href="javascript:alert(1)">link</a>`, "link"},
		{"script removed", "<script>alert(1)</script>ok", "ok"},
		{"unknown tag stripped", "<marquee>hi</marquee>", "hi"},
		{"blank", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Notice(tt.in))
		})
	}
}

func TestStationNames(t *testing.T) {
	got := StationNames([]string{"Alpha", "<del>Beta</del>", "<b>Gamma</b>"})
	assert.Equal(t, []string{"Alpha", "<del>Beta</del>", "Gamma"}, got)
}
