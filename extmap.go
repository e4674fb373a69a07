package main

import (
	"fmt"
	"os"

	yml "gopkg.in/yaml.v3"

	svn "github.com/emosenkis/svndumpmultitool/lib"
)

// externalsMapDoc is the YAML shape of an externals map file:
//
//	repos:
//	  - path: /srv/svn/vendor
//	    urls:
//	      - http://svn.example.com/vendor
//	      - svn+ssh://svn.example.com/vendor
//
// Every repository is also reachable through its own file:// URL without
// listing it.
type externalsMapDoc struct {
	Repos []struct {
		Path string   `yaml:"path"`
		URLs []string `yaml:"urls"`
	} `yaml:"repos"`
}

// loadExternalsMap reads an externals map file into URL-to-path form.
func loadExternalsMap(filename string) (svn.ExternalsMap, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var doc externalsMapDoc
	if err := yml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("externals map %s: %w", filename, err)
	}

	extmap := make(svn.ExternalsMap)
	for _, repo := range doc.Repos {
		if repo.Path == "" {
			return nil, fmt.Errorf("externals map %s: entry missing path", filename)
		}
		extmap["file://"+repo.Path] = repo.Path
		for _, url := range repo.URLs {
			extmap[url] = repo.Path
		}
	}
	return extmap, nil
}
