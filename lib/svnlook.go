package svn

import (
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// SvnlookAccessor fetches trees from local repositories by shelling out to
// svnlook. One tree fetch costs one 'svnlook tree' call plus, per node, a
// 'proplist' call, a 'propget' per property, and a 'cat' per file.
type SvnlookAccessor struct {
	Log *logrus.Logger
}

// NewSvnlookAccessor returns an accessor logging through log, which may be
// nil for the standard logger.
func NewSvnlookAccessor(log *logrus.Logger) *SvnlookAccessor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SvnlookAccessor{Log: log}
}

func (a *SvnlookAccessor) run(args ...string) ([]byte, error) {
	a.Log.Debugf("executing svnlook %s", strings.Join(args, " "))
	out, err := exec.Command("svnlook", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: svnlook %s: %s", ErrAccessor, strings.Join(args, " "), err)
	}
	return out, nil
}

func revArgs(rev int, rest ...string) []string {
	if rev == HeadRevision {
		return rest
	}
	return append([]string{fmt.Sprintf("-r%d", rev)}, rest...)
}

// FetchTree implements RepoAccessor.
func (a *SvnlookAccessor) FetchTree(repo, path string, rev int) ([]TreeEntry, error) {
	kinds, err := a.fetchKinds(repo, path, rev)
	if err != nil {
		return nil, err
	}
	// Lexicographic order puts every directory before its children since a
	// child path extends its parent's.
	paths := make([]string, 0, len(kinds))
	for p := range kinds {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	entries := make([]TreeEntry, 0, len(paths))
	for _, rel := range paths {
		full := joinPath(path, rel)
		entry := TreeEntry{Path: rel, Kind: kinds[rel]}
		if entry.Props, err = a.fetchProps(repo, full, rev); err != nil {
			return nil, err
		}
		if entry.Kind == KindFile {
			if entry.Text, err = a.run(revArgs(rev, "cat", repo, full)...); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// fetchKinds maps every path under the root to KindFile or KindDir, with
// the root itself under the empty path.
func (a *SvnlookAccessor) fetchKinds(repo, path string, rev int) (map[string]string, error) {
	out, err := a.run(revArgs(rev, "tree", "--full-paths", repo, path)...)
	if err != nil {
		return nil, err
	}
	kinds := make(map[string]string)
	for _, line := range strings.Split(string(out), "\n") {
		if line == "" {
			continue
		}
		switch line {
		case path + "/":
			kinds[""] = KindDir
			continue
		case path:
			kinds[""] = KindFile
			continue
		}
		rel := strings.TrimPrefix(line, path+"/")
		if strings.HasSuffix(rel, "/") {
			kinds[strings.TrimSuffix(rel, "/")] = KindDir
		} else {
			kinds[rel] = KindFile
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("%w: %s has no tree at %s@%d", ErrAccessor, repo, path, rev)
	}
	return kinds, nil
}

func (a *SvnlookAccessor) fetchProps(repo, path string, rev int) (*Properties, error) {
	out, err := a.run(revArgs(rev, "proplist", repo, path)...)
	if err != nil {
		return nil, err
	}
	var props *Properties
	for _, line := range strings.Split(string(out), "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		value, err := a.run(revArgs(rev, "propget", repo, name, path)...)
		if err != nil {
			return nil, err
		}
		if props == nil {
			props = NewProperties()
		}
		props.Set(name, value)
	}
	return props, nil
}

// joinPath joins a base path and a relative subpath, tolerating either
// being empty.
func joinPath(base, rel string) string {
	switch {
	case rel == "":
		return base
	case base == "":
		return rel
	default:
		return base + "/" + rel
	}
}
