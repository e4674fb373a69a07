package svn

import (
	"errors"
	"testing"
)

func flatten(t *testing.T, contents []*Record) ([]*Record, error) {
	t.Helper()
	f := &Filter{Log: quietLogger()}
	err := f.flattenActions(1, &contents)
	return contents, err
}

func TestFlattenAddAdd(t *testing.T) {
	second := NewNodeRecord("trunk/a", ActionAdd, KindFile, SourceDump)
	second.Text = []byte("kept\n")
	contents, err := flatten(t, []*Record{
		NewNodeRecord("trunk/a", ActionAdd, KindFile, SourceCopy),
		second,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 || contents[0] != second {
		t.Fatalf("contents = %v; want just the second add", contents)
	}
}

func TestFlattenAddChangeMergesText(t *testing.T) {
	add := NewNodeRecord("trunk/a", ActionAdd, KindFile, SourceCopy)
	add.Text = []byte("old\n")
	change := NewNodeRecord("trunk/a", ActionChange, KindFile, SourceDump)
	change.Text = []byte("new\n")
	change.Headers.Set(TextContentMD5Header, "1b2a65233ee4d1a345e2b83c1e70fd06")

	contents, err := flatten(t, []*Record{add, change})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 || contents[0] != add {
		t.Fatalf("contents = %v; want the merged add", contents)
	}
	if string(add.Text) != "new\n" {
		t.Errorf("merged text = %q; want new\\n", add.Text)
	}
	if sum := add.Headers.GetDefault(TextContentMD5Header, ""); sum != "1b2a65233ee4d1a345e2b83c1e70fd06" {
		t.Errorf("merged checksum = %q", sum)
	}
}

func TestFlattenAddChangeRejectsDelta(t *testing.T) {
	add := NewNodeRecord("trunk/a", ActionAdd, KindFile, SourceCopy)
	add.Text = []byte("old\n")
	change := NewNodeRecord("trunk/a", ActionChange, KindFile, SourceDump)
	change.Headers.Set(TextDeltaHeader, "true")
	change.Text = []byte("SVN\x00")

	if _, err := flatten(t, []*Record{add, change}); !errors.Is(err, ErrFormat) {
		t.Errorf("err = %v; want ErrFormat", err)
	}
}

func TestFlattenAddChangePropDelta(t *testing.T) {
	add := NewNodeRecord("trunk/d", ActionAdd, KindDir, SourceCopy)
	add.Props = NewProperties()
	add.Props.Set("svn:ignore", []byte("*.o"))
	add.Props.Set("svn:mergeinfo", []byte("/trunk:1-4"))

	change := NewNodeRecord("trunk/d", ActionChange, KindDir, SourceDump)
	change.Headers.Set(PropDeltaHeader, "true")
	change.Props = NewProperties()
	change.Props.Set("owner", []byte("alice"))
	change.Props.MarkDeleted("svn:mergeinfo")

	contents, err := flatten(t, []*Record{add, change})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("len(contents) = %d; want 1", len(contents))
	}
	props := contents[0].Props
	if value, _ := props.Get("owner"); string(value) != "alice" {
		t.Errorf("owner = %q", value)
	}
	if !props.Has("svn:ignore") {
		t.Error("svn:ignore should survive a delta merge")
	}
	if props.Has("svn:mergeinfo") {
		t.Error("svn:mergeinfo should be deleted by the delta")
	}
}

func TestFlattenAddDeleteCancels(t *testing.T) {
	contents, err := flatten(t, []*Record{
		NewNodeRecord("trunk/a", ActionAdd, KindFile, SourceDump),
		NewNodeRecord("trunk/b", ActionAdd, KindFile, SourceDump),
		NewNodeRecord("trunk/a", ActionDelete, "", SourceDump),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 || contents[0].Path() != "trunk/b" {
		t.Fatalf("contents = %v; want only trunk/b", contents)
	}
}

func TestFlattenExternalAddThenDumpDelete(t *testing.T) {
	// The stream deleted a real path that an external re-adds in the same
	// revision. The delete must happen first, which makes the pair a
	// replace once reordered.
	contents, err := flatten(t, []*Record{
		NewNodeRecord("trunk/ext", ActionAdd, KindDir, SourceExternals),
		NewNodeRecord("trunk/ext", ActionDelete, "", SourceDump),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("len(contents) = %d; want 1", len(contents))
	}
	rec := contents[0]
	if rec.Action() != ActionReplace || rec.Source != SourceExternals {
		t.Errorf("record = %s %s from source %d; want an externals replace",
			rec.Path(), rec.Action(), rec.Source)
	}
}

func TestFlattenDeleteAddBecomesReplace(t *testing.T) {
	add := NewNodeRecord("trunk/a", ActionAdd, KindFile, SourceDump)
	contents, err := flatten(t, []*Record{
		NewNodeRecord("trunk/a", ActionDelete, "", SourceDump),
		add,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 || contents[0] != add || add.Action() != ActionReplace {
		t.Fatalf("contents = %v with action %q; want a single replace", contents, add.Action())
	}
}

func TestFlattenUnmergeablePair(t *testing.T) {
	if _, err := flatten(t, []*Record{
		NewNodeRecord("trunk/a", ActionChange, KindFile, SourceDump),
		NewNodeRecord("trunk/a", ActionDelete, "", SourceDump),
	}); !errors.Is(err, ErrFormat) {
		t.Errorf("err = %v; want ErrFormat", err)
	}
}
