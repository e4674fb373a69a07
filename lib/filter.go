package svn

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Filter rewrites a dump stream one revision at a time: revision
// truncation, path filtering, copy-source fixup, property deletion,
// externals internalization, and empty-revision handling. It holds all of
// the run-lifetime state; everything else is transient per revision.
type Filter struct {
	Matcher  *PathMatcher
	RevMap   *RevisionMap
	Accessor RepoAccessor
	RepoPath string // local handle of the repository the dump came from

	// Externals enables internalization of svn:externals when non-nil.
	Externals ExternalsMap

	TruncateRevs  map[int]bool
	DeleteProps   map[string]bool
	DropEmptyRevs bool
	RenumberRevs  bool

	Log *logrus.Logger

	outputRev int

	// extState tracks, per directory path, the externals definitions most
	// recently internalized there, so a later change to svn:externals can
	// be diffed instead of blindly re-added.
	extState map[string]map[string]*ExternalsDescription
}

func (f *Filter) logger() *logrus.Logger {
	if f.Log != nil {
		return f.Log
	}
	return logrus.StandardLogger()
}

// Run filters every revision of stream into enc. Revisions are emitted in
// input order; the stream's preamble passes through unchanged. Any error
// aborts the run; output flushed so far remains valid, nothing after it
// is written.
func (f *Filter) Run(stream *DumpStream, enc *Encoder) error {
	if f.Matcher == nil {
		f.Matcher, _ = NewPathMatcher(nil)
	}
	if f.RevMap == nil {
		f.RevMap = NewRevisionMap()
	}

	for _, rec := range stream.Preamble {
		rec.Encode(enc)
	}

	for {
		rev, err := stream.NextRevision()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		contents, err := f.FilterRev(rev)
		if err != nil {
			return err
		}

		// Copy sources always point backward, so their map entries are
		// final. Rewriting is needed only once drops can perturb the
		// numbering; before that the map is the identity.
		if f.DropEmptyRevs {
			for _, rec := range contents {
				if _, srcRev, ok := rec.CopyFrom(); ok {
					out, err := f.RevMap.Resolve(srcRev)
					if err != nil {
						return fmt.Errorf("r%d: %s: %w", rev.Number, rec.Path(), err)
					}
					rec.Headers.SetInt(NodeCopyfromRevHeader, out)
				}
			}
		}

		if len(contents) == 0 && f.DropEmptyRevs {
			f.logger().Debugf("dropping empty r%d", rev.Number)
			f.RevMap.Drop(rev.Number)
			continue
		}

		number := rev.Number
		if f.RenumberRevs {
			f.outputRev++
			number = f.outputRev
		}
		f.RevMap.Retain(rev.Number, number)
		rev.Header.Headers.SetInt(RevisionNumberHeader, number)
		rev.Header.Encode(enc)
		for _, rec := range contents {
			rec.Encode(enc)
		}
	}

	for trunc := range f.TruncateRevs {
		if !f.RevMap.Seen(trunc) {
			return fmt.Errorf("%w: truncate revision r%d never appeared in the stream",
				ErrReference, trunc)
		}
	}
	return nil
}

// FilterRev applies every configured rewrite to one revision and returns
// its surviving node records. Truncation runs first so emptiness is judged
// afterward; property deletion runs after copy fixup and externals so that
// synthesized records are stripped too.
func (f *Filter) FilterRev(rev *Revision) ([]*Record, error) {
	f.logger().Debugf("filtering r%d", rev.Number)

	if f.TruncateRevs[rev.Number] {
		f.logger().Warnf("truncating known bad revision r%d", rev.Number)
		return nil, nil
	}

	var contents []*Record
	for _, node := range rev.Nodes {
		recs, err := f.filterNode(rev.Number, node)
		if err != nil {
			return nil, fmt.Errorf("r%d: %s: %w", rev.Number, node.Path(), err)
		}
		contents = append(contents, recs...)
	}

	if len(f.DeleteProps) > 0 {
		for _, rec := range contents {
			if rec.Props == nil {
				continue
			}
			for prop := range f.DeleteProps {
				rec.Props.Remove(prop)
			}
		}
	}

	if err := f.flattenActions(rev.Number, &contents); err != nil {
		return nil, err
	}
	return contents, nil
}

// filterNode filters a single node record by path, fixes up copies whose
// source is excluded, and expands externals. Returns zero or more records
// replacing the input record.
func (f *Filter) filterNode(revNum int, rec *Record) ([]*Record, error) {
	path := rec.Path()
	if f.Externals != nil && rec.Action() == ActionDelete {
		// The subtree is gone, and any externals internalized under it
		// with it.
		f.forgetExternals(path)
	}
	switch f.Matcher.Match(path) {
	case Excluded:
		return nil, nil
	case IncludedAsDirectory:
		// Ancestors of included paths survive only as bare directories.
		switch rec.Action() {
		case ActionChange:
			return nil, nil // nothing of a change can survive
		case ActionAdd, ActionReplace:
			if rec.Kind() == KindFile {
				rec = NewNodeRecord(path, rec.Action(), KindDir, rec.Source)
			} else {
				rec.Props = nil
				rec.Text = nil
			}
		}
		// Deletes pass through untouched.
	}

	out := []*Record{rec}
	if _, _, ok := rec.CopyFrom(); ok {
		var err error
		if out, err = f.fixCopyFrom(rec); err != nil {
			return nil, err
		}
	}

	if f.Externals == nil {
		return out, nil
	}
	result := make([]*Record, 0, len(out))
	for _, r := range out {
		result = append(result, r)
		if r.DoesNotAffectExternals() {
			continue
		}
		ext, err := f.internalizeExternals(revNum, r)
		if err != nil {
			return nil, err
		}
		result = append(result, ext...)
	}
	return result, nil
}

// fixCopyFrom replaces copies from excluded paths with adds. The input
// stream stores copied content only at the source location, so a copy
// whose source was filtered out cannot be satisfied from the output alone;
// the content is fetched from the live repository instead.
func (f *Filter) fixCopyFrom(rec *Record) ([]*Record, error) {
	srcPath, srcRev, _ := rec.CopyFrom()
	dstPath := rec.Path()

	if f.Matcher.Match(srcPath) == IncludedFull {
		// The source survives in the output; the copy stands.
		return []*Record{rec}, nil
	}
	if f.Matcher.Match(dstPath) == IncludedAsDirectory && srcPath == dstPath {
		// Copying a path onto itself: the source was already filtered
		// exactly the way the destination needs.
		return []*Record{rec}, nil
	}

	if f.Accessor == nil || f.RepoPath == "" {
		return nil, fmt.Errorf("%w: copy source %s@%d is excluded and no source repository was provided",
			ErrAccessor, srcPath, srcRev)
	}
	output, err := f.grabTree(f.RepoPath, srcRev, srcPath, dstPath, SourceCopy)
	if err != nil {
		return nil, err
	}

	if rec.Text != nil {
		// The copy carried new contents as well; keep them as a change
		// record following the synthesized adds.
		rec.Headers.Set(NodeActionHeader, ActionChange)
		rec.DropCopyFrom()
		output = append(output, rec)
	}
	return output, nil
}

// grabTree fetches the tree at repo/srcPath@rev and synthesizes add
// records for it rooted at dstPath, classifying every descendant through
// the path matcher: excluded descendants are skipped, ancestors-only
// become bare directories, included ones carry properties and content.
func (f *Filter) grabTree(repo string, rev int, srcPath, dstPath string, source RecordSource) ([]*Record, error) {
	entries, err := f.Accessor.FetchTree(repo, srcPath, rev)
	if err != nil {
		return nil, err
	}
	out := make([]*Record, 0, len(entries))
	for _, entry := range entries {
		nodePath := joinPath(dstPath, entry.Path)
		switch f.Matcher.Match(nodePath) {
		case Excluded:
		case IncludedAsDirectory:
			out = append(out, NewNodeRecord(nodePath, ActionAdd, KindDir, source))
		case IncludedFull:
			rec := NewNodeRecord(nodePath, ActionAdd, entry.Kind, source)
			rec.Props = entry.Props
			if entry.Kind == KindFile {
				rec.Text = entry.Text
				if rec.Text == nil {
					rec.Text = []byte{}
				}
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

// internalizeExternals turns a change to the svn:externals definitions on
// rec into synthesized records appended after it: deletes for definitions
// that disappeared, adds for new ones, a delete plus re-add for ones whose
// source moved. The input stream never carries the deletes itself because
// the internalized paths only exist in the output. Externals whose URL is
// absent from the map are left alone; the property itself is never
// modified.
func (f *Filter) internalizeExternals(revNum int, rec *Record) ([]*Record, error) {
	path := rec.Path()
	prev := f.extState[path]
	if rec.Action() == ActionAdd || rec.Action() == ActionReplace {
		// The record brings a fresh subtree; whatever was internalized
		// under the old one went with it.
		prev = nil
	}

	var descriptions []*ExternalsDescription
	if value, ok := rec.Props.Get(ExternalsProperty); ok {
		descriptions = ParseExternals(f.RepoPath, revNum, path, string(value), f.Externals, f.logger())
	}
	current := make(map[string]*ExternalsDescription, len(descriptions))
	for _, ed := range descriptions {
		current[ed.DstPath] = ed
	}

	var out []*Record
	var removed []string
	for dstPath := range prev {
		if _, ok := current[dstPath]; !ok {
			removed = append(removed, dstPath)
		}
	}
	sort.Strings(removed)
	for _, dstPath := range removed {
		full := joinPath(path, dstPath)
		if f.Matcher.Match(full) == Excluded {
			continue // nothing was materialized there
		}
		f.logger().Debugf("r%d: external %s removed", revNum, full)
		out = append(out, NewNodeRecord(full, ActionDelete, "", SourceExternals))
	}

	for _, ed := range descriptions {
		if current[ed.DstPath] != ed {
			continue // superseded by a later line for the same subpath
		}
		old, existed := prev[ed.DstPath]
		if existed && *old == *ed {
			continue // already materialized, nothing changed
		}
		if existed {
			// The source moved; replace the tree wholesale. Flattening
			// folds the delete and the re-add into a replace record.
			out = append(out, NewNodeRecord(joinPath(path, ed.DstPath), ActionDelete, "", SourceExternals))
		}
		recs, err := f.expandExternal(revNum, path, ed)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}

	if f.extState == nil {
		f.extState = make(map[string]map[string]*ExternalsDescription)
	}
	if len(current) == 0 {
		delete(f.extState, path)
	} else {
		f.extState[path] = current
	}
	return out, nil
}

// expandExternal synthesizes the records materializing one externals
// definition under parent.
func (f *Filter) expandExternal(revNum int, parent string, ed *ExternalsDescription) ([]*Record, error) {
	if ed.SrcRev != HeadRevision && ed.SrcRev > revNum {
		return nil, fmt.Errorf("%w: external %s pinned to r%d beyond current r%d",
			ErrAccessor, ed.DstPath, ed.SrcRev, revNum)
	}
	dst := joinPath(parent, ed.DstPath)
	if ed.SrcRepo == f.RepoPath && f.Matcher.Match(ed.SrcPath) == IncludedFull {
		// Same repository and the source survives filtering: a copy is
		// cheaper than re-adding the whole tree.
		copyRec := NewNodeRecord(dst, ActionAdd, KindDir, SourceExternals)
		copyRec.Headers.Set(NodeCopyfromPathHeader, ed.SrcPath)
		copyRec.Headers.SetInt(NodeCopyfromRevHeader, ed.SrcRev)
		return []*Record{copyRec}, nil
	}
	return f.grabTree(ed.SrcRepo, ed.SrcRev, ed.SrcPath, dst, SourceExternals)
}

// forgetExternals drops the tracked externals state for path and every
// path beneath it.
func (f *Filter) forgetExternals(path string) {
	delete(f.extState, path)
	for owner := range f.extState {
		if strings.HasPrefix(owner, path+"/") {
			delete(f.extState, owner)
		}
	}
}
