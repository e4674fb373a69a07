package svn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ExternalsMap maps URL prefixes used in svn:externals definitions to
// local repository handles usable by a RepoAccessor. Externals whose URL
// matches no entry are left un-internalized.
type ExternalsMap map[string]string

// Lookup converts a URL to a repository handle and a path within that
// repository.
func (m ExternalsMap) Lookup(url string) (repo, path string, ok bool) {
	for prefix, repo := range m {
		if url == prefix {
			return repo, "", true
		}
		if strings.HasPrefix(url, prefix+"/") {
			return repo, url[len(prefix)+1:], true
		}
	}
	return "", "", false
}

// ExternalsDescription is one line-item of an svn:externals property,
// resolved to a local repository handle.
type ExternalsDescription struct {
	DstPath string // subpath under the directory owning the property
	SrcRepo string // local handle of the referenced repository
	SrcPath string // path within SrcRepo
	SrcRev  int    // operative revision, HeadRevision when unpinned
	SrcPeg  int    // peg revision, HeadRevision when unpinned
}

// parseExternalRev coerces a revision token into a number. "HEAD" and the
// empty string mean HeadRevision.
func parseExternalRev(rev string) (int, error) {
	if rev == "" || strings.EqualFold(rev, "HEAD") {
		return HeadRevision, nil
	}
	n, err := strconv.Atoi(rev)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("revision cannot be negative: %d", n)
	}
	return n, nil
}

// ParseExternals parses an svn:externals property value into descriptions.
// Lines that cannot be parsed or resolved against the map are skipped with
// a warning; the caller decides what to do with the survivors.
func ParseExternals(mainRepo string, mainRev int, parentDir, value string, extmap ExternalsMap, log *logrus.Logger) []*ExternalsDescription {
	if log == nil {
		log = logrus.StandardLogger()
	}
	var out []*ExternalsDescription
	for _, line := range strings.Split(value, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if ed := ParseExternalsLine(mainRepo, mainRev, parentDir, line, extmap, log); ed != nil {
			out = append(out, ed)
		}
	}
	return out
}

// ParseExternalsLine parses one line of an svn:externals property. There
// are six formats:
//
//	1) DIR URL
//	2) DIR -r N URL
//	3) DIR -rN URL
//	4) URL DIR
//	5) -r N URL DIR
//	6) -rN URL DIR
//
// The last three (the new syntax) allow @peg revisions on the URL and make
// -r the operative revision; the old syntax uses N for both the operative
// and peg revision. A two-token line with no "://" is ambiguous between
// formats 1 and 4 and is taken as format 4. Returns nil, after logging a
// warning, for any line that cannot be parsed or mapped.
func ParseExternalsLine(mainRepo string, mainRev int, parentDir, line string, extmap ExternalsMap, log *logrus.Logger) *ExternalsDescription {
	parts := strings.Fields(line)
	if len(parts) < 2 || len(parts) > 4 {
		log.Warnf("unparseable svn:externals line: %s", line)
		return nil
	}

	var dstPath, url, rev, peg string
	var newFormat bool
	switch {
	case len(parts) == 2:
		if strings.Contains(parts[1], "://") { // format 1
			dstPath, url = parts[0], parts[1]
		} else { // format 4
			url, dstPath = parts[0], parts[1]
			newFormat = true
		}
	case strings.HasPrefix(parts[0], "-r"):
		if len(parts) == 4 { // format 5
			rev, url, dstPath = parts[1], parts[2], parts[3]
		} else { // format 6
			rev, url, dstPath = parts[0][2:], parts[1], parts[2]
		}
		newFormat = true
	case len(parts) == 4: // format 2
		dstPath, rev, url = parts[0], parts[2], parts[3]
		peg = rev
	default: // format 3
		dstPath, rev, url = parts[0], parts[1][2:], parts[2]
		peg = rev
	}

	var repo, path string
	if newFormat {
		if at := strings.Index(url, "@"); at != -1 {
			url, peg = url[:at], url[at+1:]
		}
		switch {
		case strings.HasPrefix(url, "^/"):
			// Relative to the repository root; "../" segments climb
			// out of the repository on the local filesystem.
			path = url[2:]
			repo = mainRepo
			if strings.HasPrefix(path, "../") {
				for strings.HasPrefix(path, "../") {
					path = path[3:]
					switch {
					case repo == "/":
						log.Warnf("escapes filesystem root: %s", line)
						return nil
					case strings.LastIndex(repo, "/") == 0:
						repo = "/"
					default:
						repo = repo[:strings.LastIndex(repo, "/")]
					}
				}
				url = "file://" + repo + "/" + path
				repo = "" // resolve through the externals map
			}
		case strings.HasPrefix(url, "../"):
			// Relative to the directory owning the property.
			path = parentDir + "/" + url[3:]
			repo = mainRepo
		case strings.HasPrefix(url, "/"):
			log.Warnf("cannot handle scheme- or server-relative externals URL: %s", line)
			return nil
		}
	}
	if repo == "" {
		var ok bool
		if repo, path, ok = extmap.Lookup(url); !ok {
			log.Warnf("no externals mapping for %s in %q", url, line)
			return nil
		}
	}

	pegRev, err := parseExternalRev(peg)
	if err != nil {
		log.Warnf("bad peg revision in %q: %s", line, err)
		return nil
	}
	opRev, err := parseExternalRev(rev)
	if err != nil {
		log.Warnf("bad revision in %q: %s", line, err)
		return nil
	}
	if opRev == HeadRevision {
		// The operative revision defaults to the peg revision.
		opRev = pegRev
	}
	if repo == mainRepo {
		// HEAD within the repository being filtered is the previous
		// revision: nothing can copy from the revision being written.
		if opRev == HeadRevision {
			opRev = mainRev - 1
		}
		if pegRev == HeadRevision {
			pegRev = mainRev - 1
		}
	}
	return &ExternalsDescription{
		DstPath: dstPath,
		SrcRepo: repo,
		SrcPath: path,
		SrcRev:  opRev,
		SrcPeg:  pegRev,
	}
}
