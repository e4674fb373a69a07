package main

import (
	"fmt"

	"github.com/spf13/pflag"
)

// -include: per-segment regexp patterns selecting the paths to keep.
var includes = pflag.StringArray("include", nil,
	"only include paths matching this /-separated regexp; each piece matches"+
		" one whole path segment (may be used multiple times)")

// -repo: required whenever filtering can exclude a copy source.
var repoPath = pflag.String("repo", "",
	"local path of the repository that produced the dump, used to fetch"+
		" content for copies whose source was filtered out")

// -externals-map: enables internalizing svn:externals.
var externalsMapFile = pflag.String("externals-map", "",
	"YAML file mapping externals URLs to local repository paths; enables"+
		" internalizing svn:externals definitions")

// -delete-property: stripped from every surviving node record.
var deleteProps = pflag.StringArray("delete-property", nil,
	"delete this property (such as svn:keywords) from all paths (may be"+
		" used multiple times)")

// -truncate-rev: drops all changes of a revision, keeping its message.
var truncateRevs = pflag.IntSlice("truncate-rev", nil,
	"drop all changes made in this revision but keep the commit message;"+
		" DANGEROUS except on pairs of revisions that cancel out (may be"+
		" used multiple times)")

var dropEmptyRevs = pflag.Bool("drop-empty-revs", false,
	"omit revisions left with no changes by filtering or -truncate-rev")

var renumberRevs = pflag.Bool("renumber-revs", false,
	"renumber revisions to close the gaps left by -drop-empty-revs")

// -file: read the dump from a file instead of stdin so it can be mmapped.
var dumpFileName = pflag.String("file", "",
	"read the dump from this file instead of stdin")

var debug = pflag.Bool("debug", false, "log verbosely to stderr")

func parseCommandLine() error {
	pflag.Parse()

	if pflag.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", pflag.Args())
	}
	if *renumberRevs && !*dropEmptyRevs {
		return fmt.Errorf("-renumber-revs requires -drop-empty-revs")
	}
	return nil
}
