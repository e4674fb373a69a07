package svn

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

var testExtmap = ExternalsMap{
	"svn://svn.example.com/skins":       "/repos/skins",
	"http://svn.example.com/skin-maker": "/repos/skin-maker",
	"file:///repos/skins":               "/repos/skins",
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func parseLine(t *testing.T, line string) *ExternalsDescription {
	t.Helper()
	return ParseExternalsLine("/repos/main", 10, "trunk/proj", line, testExtmap, quietLogger())
}

func TestExternalsMapLookup(t *testing.T) {
	repo, path, ok := testExtmap.Lookup("svn://svn.example.com/skins/toolkit/gfx")
	if !ok || repo != "/repos/skins" || path != "toolkit/gfx" {
		t.Errorf("Lookup = %q, %q, %v", repo, path, ok)
	}
	if repo, path, ok = testExtmap.Lookup("svn://svn.example.com/skins"); !ok || path != "" {
		t.Errorf("exact Lookup = %q, %q, %v", repo, path, ok)
	}
	// A prefix must end at a path boundary.
	if _, _, ok = testExtmap.Lookup("svn://svn.example.com/skinsuit"); ok {
		t.Error("Lookup matched across a path boundary")
	}
}

func TestParseExternalsLineFormats(t *testing.T) {
	for _, tc := range []struct {
		name string
		line string
		want ExternalsDescription
	}{
		{"old unpinned",
			"third-party/skins svn://svn.example.com/skins/toolkit",
			ExternalsDescription{"third-party/skins", "/repos/skins", "toolkit", HeadRevision, HeadRevision}},
		{"old pinned spaced",
			"third-party/skins -r 148 svn://svn.example.com/skins/toolkit",
			ExternalsDescription{"third-party/skins", "/repos/skins", "toolkit", 148, 148}},
		{"old pinned joined",
			"third-party/skins -r148 svn://svn.example.com/skins/toolkit",
			ExternalsDescription{"third-party/skins", "/repos/skins", "toolkit", 148, 148}},
		{"new unpinned",
			"http://svn.example.com/skin-maker skin-maker",
			ExternalsDescription{"skin-maker", "/repos/skin-maker", "", HeadRevision, HeadRevision}},
		{"new pinned spaced with peg",
			"-r 21 http://svn.example.com/skin-maker@20 skin-maker",
			ExternalsDescription{"skin-maker", "/repos/skin-maker", "", 21, 20}},
		{"new pinned joined",
			"-r21 http://svn.example.com/skin-maker skin-maker",
			ExternalsDescription{"skin-maker", "/repos/skin-maker", "", 21, HeadRevision}},
		{"new peg only",
			"http://svn.example.com/skin-maker@5 skin-maker",
			ExternalsDescription{"skin-maker", "/repos/skin-maker", "", 5, 5}},
	} {
		got := parseLine(t, tc.line)
		if got == nil {
			t.Errorf("%s: parse failed", tc.name)
			continue
		}
		if *got != tc.want {
			t.Errorf("%s: got %+v; want %+v", tc.name, *got, tc.want)
		}
	}
}

func TestParseExternalsLineRepoRelative(t *testing.T) {
	// HEAD within the repository being filtered means its previous
	// revision; nothing can reference the revision being written.
	got := parseLine(t, "^/trunk/lib lib")
	want := ExternalsDescription{"lib", "/repos/main", "trunk/lib", 9, 9}
	if got == nil || *got != want {
		t.Errorf("got %+v; want %+v", got, want)
	}
}

func TestParseExternalsLineRepoRelativeClimbing(t *testing.T) {
	// ^/../ climbs out of /repos/main to /repos and lands in a sibling
	// repository, resolved back through the externals map.
	got := parseLine(t, "^/../skins/toolkit tk")
	want := ExternalsDescription{"tk", "/repos/skins", "toolkit", HeadRevision, HeadRevision}
	if got == nil || *got != want {
		t.Errorf("got %+v; want %+v", got, want)
	}
}

func TestParseExternalsLineDirRelative(t *testing.T) {
	got := parseLine(t, "../gfx gfx")
	want := ExternalsDescription{"gfx", "/repos/main", "trunk/proj/gfx", 9, 9}
	if got == nil || *got != want {
		t.Errorf("got %+v; want %+v", got, want)
	}
}

func TestParseExternalsLineRejects(t *testing.T) {
	for _, tc := range []struct{ name, line string }{
		{"unmapped URL", "ext svn://unknown.example.com/stuff"},
		{"scheme relative", "//svn.example.com/skins/toolkit ext"},
		{"server relative", "/skins/toolkit ext"},
		{"too few tokens", "lonely"},
		{"too many tokens", "a b c d e"},
		{"bad revision", "ext -r x1 svn://svn.example.com/skins/toolkit"},
		{"negative peg", "svn://svn.example.com/skins/toolkit@-3 ext"},
		{"escapes filesystem root", "^/../../../lost lost"},
	} {
		if got := parseLine(t, tc.line); got != nil {
			t.Errorf("%s: expected nil, got %+v", tc.name, *got)
		}
	}
}

func TestParseExternalsSkipsCommentsAndBlanks(t *testing.T) {
	value := "# vendored skins\n" +
		"\n" +
		"third-party/skins svn://svn.example.com/skins/toolkit\n" +
		"broken-line-with no-scheme-and-no-mapping\n"
	descriptions := ParseExternals("/repos/main", 10, "trunk/proj", value, testExtmap, quietLogger())
	if len(descriptions) != 1 || descriptions[0].DstPath != "third-party/skins" {
		t.Fatalf("descriptions = %+v; want the single toolkit entry", descriptions)
	}
}
