package svn

// HeadRevision asks a RepoAccessor for the newest revision of a path.
const HeadRevision = -1

// TreeEntry is one node of a fetched tree. Path is relative to the fetch
// root; the empty path is the root itself. A listing always orders parents
// before their children.
type TreeEntry struct {
	Path  string
	Kind  string      // KindFile or KindDir
	Props *Properties // nil when the node has no properties
	Text  []byte      // nil for directories
}

// RepoAccessor fetches content from live repositories. The repo argument
// is an opaque local handle (for the svnlook backend, the repository's
// filesystem path); rev may be HeadRevision. Implementations report
// unresolvable path/revision pairs by wrapping ErrAccessor. Calls are
// synchronous and are not retried.
type RepoAccessor interface {
	FetchTree(repo, path string, rev int) ([]TreeEntry, error)
}
