package svn

import (
	"fmt"
)

// flattenActions fixes paths that ended up with multiple actions in one
// revision, which filtering can produce: copy fixup yields (add, change),
// (add, add) or (add, delete) pairs, and externals can add a path that the
// stream deletes in the same revision. Pairs are merged per this table;
// any other sequence is unexpected and fatal:
//
//	(add, add)                      second add wins
//	(add|change|replace, change)    change merged into the first record
//	(add, delete)                   both dropped; reordered instead when
//	                                the add came from an external
//	(delete, add)                   collapsed into a replace
func (f *Filter) flattenActions(revNum int, contents *[]*Record) error {
	byPath := make(map[string][]*Record)
	var order []string
	for _, rec := range *contents {
		path := rec.Path()
		if _, ok := byPath[path]; !ok {
			order = append(order, path)
		}
		byPath[path] = append(byPath[path], rec)
	}
	for _, path := range order {
		recs := byPath[path]
		for len(recs) > 1 {
			var err error
			if recs, err = f.flattenPair(revNum, contents, path, recs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *Filter) flattenPair(revNum int, contents *[]*Record, path string, recs []*Record) ([]*Record, error) {
	first, second := recs[0], recs[1]
	a1, a2 := first.Action(), second.Action()
	switch {
	case a1 == ActionAdd && a2 == ActionAdd:
		f.logger().Warnf("r%d: %s: found (add, add), dropping the first", revNum, path)
		removeRecord(contents, first)
		return recs[1:], nil

	case (a1 == ActionAdd || a1 == ActionChange || a1 == ActionReplace) && a2 == ActionChange:
		f.logger().Warnf("r%d: %s: merging (%s, change)", revNum, path, a1)
		if err := mergeChange(first, second); err != nil {
			return nil, fmt.Errorf("r%d: %s: %w", revNum, path, err)
		}
		removeRecord(contents, second)
		return append(recs[:1], recs[2:]...), nil

	case a1 == ActionAdd && a2 == ActionDelete:
		if first.Source == SourceExternals && second.Source == SourceDump {
			// A real path became an external in this revision. The
			// stream does not know the delete must precede the
			// external's add, so reorder and reprocess.
			f.logger().Warnf("r%d: %s: moving delete before externals add", revNum, path)
			removeRecord(contents, second)
			insertBefore(contents, first, second)
			recs[0], recs[1] = second, first
			return recs, nil
		}
		f.logger().Warnf("r%d: %s: dropping cancelling (add, delete) pair", revNum, path)
		removeRecord(contents, first)
		removeRecord(contents, second)
		return recs[2:], nil

	case a1 == ActionDelete && a2 == ActionAdd:
		f.logger().Warnf("r%d: %s: converting (delete, add) to replace", revNum, path)
		second.Headers.Set(NodeActionHeader, ActionReplace)
		removeRecord(contents, first)
		return recs[1:], nil

	default:
		return nil, fmt.Errorf("%w: r%d: cannot flatten actions (%s, %s) for %s",
			ErrFormat, revNum, a1, a2, path)
	}
}

// mergeChange folds a change record into the add, change, or replace that
// precedes it for the same path.
func mergeChange(first, second *Record) error {
	if second.Text != nil {
		if second.Headers.GetDefault(TextDeltaHeader, "") == "true" {
			return fmt.Errorf("%w: cannot merge a change carrying a text delta", ErrFormat)
		}
		first.Text = second.Text
		first.Headers.Remove(TextDeltaHeader)
		if sum, ok := second.Headers.Get(TextContentMD5Header); ok {
			first.Headers.Set(TextContentMD5Header, sum)
		} else {
			first.Headers.Remove(TextContentMD5Header)
		}
	}
	if second.Props != nil {
		switch {
		case first.Props == nil:
			first.Props = second.Props
		case second.Headers.GetDefault(PropDeltaHeader, "") == "true":
			firstIsDelta := first.Headers.GetDefault(PropDeltaHeader, "") == "true"
			second.Props.Each(func(key string, value []byte, deleted bool) {
				switch {
				case deleted && firstIsDelta:
					first.Props.MarkDeleted(key)
				case deleted:
					first.Props.Remove(key)
				default:
					first.Props.Set(key, value)
				}
			})
		default:
			first.Props = second.Props
		}
	}
	return nil
}

func removeRecord(contents *[]*Record, rec *Record) {
	for i, r := range *contents {
		if r == rec {
			*contents = append((*contents)[:i], (*contents)[i+1:]...)
			return
		}
	}
}

func insertBefore(contents *[]*Record, anchor, rec *Record) {
	for i, r := range *contents {
		if r == anchor {
			*contents = append((*contents)[:i], append([]*Record{rec}, (*contents)[i:]...)...)
			return
		}
	}
}
