package buildinfo

import (
	"strings"
	"testing"
)

func TestCurrentFollowsLdflags(t *testing.T) {
	saved := Current()
	defer func() { Version, Commit, Date = saved.Version, saved.Commit, saved.Date }()

	Version, Commit, Date = "v1.4.0", "3f2a9c1", "2026-10-01T12:00:00Z"
	got := Current()
	if got != (Info{Version: "v1.4.0", Commit: "3f2a9c1", Date: "2026-10-01T12:00:00Z"}) {
		t.Errorf("Current() = %+v", got)
	}
	tmpl := Template()
	for _, want := range []string{"version v1.4.0", "commit: 3f2a9c1", "built: 2026-10-01T12:00:00Z"} {
		if !strings.Contains(tmpl, want) {
			t.Errorf("Template() = %q, missing %q", tmpl, want)
		}
	}
}
