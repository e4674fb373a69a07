package main

// svndumpmultitool is a tool for filtering, fixing, breaking, and munging
// SVN dump files.
//
// It reads a dump file on stdin (or from -file), applies the filtering
// operations selected by its flags, and writes the resulting dump to
// stdout. Run without any flags it validates the dump's structure and
// echoes it unchanged.
//
// Unlike svndumpfilter, copy operations whose source is excluded by the
// path filters are repaired: the copied content is fetched from the live
// repository (-repo) and inserted as add operations, so the filtered dump
// always loads cleanly.

import (
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/sirupsen/logrus"

	svn "github.com/emosenkis/svndumpmultitool/lib"
)

var log = logrus.New()

func main() {
	if err := run(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// readDump maps the named file, or slurps stdin when no name was given.
// The cleanup function releases the mapping.
func readDump() (data []byte, cleanup func(), err error) {
	if *dumpFileName == "" {
		data, err = io.ReadAll(os.Stdin)
		return data, func() {}, err
	}
	file, err := os.OpenFile(*dumpFileName, os.O_RDONLY, 0)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	mapped, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, nil, err
	}
	return mapped, func() { mapped.Unmap() }, nil
}

func run() error {
	if err := parseCommandLine(); err != nil {
		return err
	}
	log.SetOutput(os.Stderr)
	if *debug {
		log.SetLevel(logrus.DebugLevel)
	}

	matcher, err := svn.NewPathMatcher(*includes)
	if err != nil {
		return err
	}

	var extmap svn.ExternalsMap
	if *externalsMapFile != "" {
		if extmap, err = loadExternalsMap(*externalsMapFile); err != nil {
			return err
		}
		log.Debugf("loaded %d externals mappings", len(extmap))
	}

	truncate := make(map[int]bool, len(*truncateRevs))
	for _, rev := range *truncateRevs {
		truncate[rev] = true
	}
	deletions := make(map[string]bool, len(*deleteProps))
	for _, prop := range *deleteProps {
		deletions[prop] = true
	}

	data, cleanup, err := readDump()
	if err != nil {
		return err
	}
	defer cleanup()

	stream, err := svn.NewDumpStream(data)
	if err != nil {
		return err
	}
	defer stream.Close()
	log.Debugf("dump format %d", stream.Format())

	filter := &svn.Filter{
		Matcher:       matcher,
		RevMap:        svn.NewRevisionMap(),
		Accessor:      svn.NewSvnlookAccessor(log),
		RepoPath:      *repoPath,
		Externals:     extmap,
		TruncateRevs:  truncate,
		DeleteProps:   deletions,
		DropEmptyRevs: *dropEmptyRevs,
		RenumberRevs:  *renumberRevs,
		Log:           log,
	}

	enc := svn.NewEncoder(os.Stdout)
	if err := filter.Run(stream, enc); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
