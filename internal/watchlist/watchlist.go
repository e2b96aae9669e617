// Package watchlist loads the quick-pick tickers shown under the ticker input.
package watchlist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Item is one quick-pick ticker.
type Item struct {
	Sym  string `json:"sym"`
	Name string `json:"name,omitempty"`
}

// Label is the caption for the quick-pick link.
func (i Item) Label() string {
	if i.Name != "" {
		return i.Sym + " · " + i.Name
	}
	return i.Sym
}

// Group is a named list of items. Nested group names are joined with "/".
type Group struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// node mirrors one YAML entry: either a leaf with sym or a group with its own watchlist.
type node struct {
	Name      string `yaml:"name"`
	Sym       string `yaml:"sym"`
	Watchlist []node `yaml:"watchlist"`
}

type file struct {
	Watchlist []node `yaml:"watchlist"`
}

// Default is used when no watchlist file is configured.
func Default() []Group {
	return []Group{{Name: "Examples", Items: []Item{{Sym: "AAPL", Name: "Apple"}}}}
}

// Load reads a YAML file, or every .yaml/.yml file under a directory.
// Groups from a directory are prefixed with the file's relative path.
func Load(path string) ([]Group, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		return parse(data, base, "")
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !d.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var all []Group
	for _, full := range files {
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(path, full)
		if err != nil {
			rel = filepath.Base(full)
		}
		prefix := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		groups, err := parse(data, prefix, prefix)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", full, err)
		}
		all = append(all, groups...)
	}
	return all, nil
}

// parse decodes one file. Top-level leaves form a group named fallback;
// nested group names are prefixed with prefix when it is set.
func parse(data []byte, fallback, prefix string) ([]Group, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Watchlist == nil {
		return nil, fmt.Errorf("invalid yaml: missing 'watchlist'")
	}

	var groups []Group
	var walk func(nodes []node, path []string)
	walk = func(nodes []node, path []string) {
		var items []Item
		for _, n := range nodes {
			if n.Watchlist == nil && strings.TrimSpace(n.Sym) != "" {
				items = append(items, Item{Sym: strings.ToUpper(strings.TrimSpace(n.Sym)), Name: n.Name})
			}
		}
		if len(items) > 0 {
			name := strings.Join(path, "/")
			switch {
			case name == "":
				name = fallback
			case prefix != "":
				name = prefix + "/" + name
			}
			groups = append(groups, Group{Name: name, Items: items})
		}
		for _, n := range nodes {
			if n.Watchlist == nil {
				continue
			}
			next := append([]string(nil), path...)
			if n.Name != "" {
				next = append(next, n.Name)
			}
			walk(n.Watchlist, next)
		}
	}

	walk(f.Watchlist, nil)
	return groups, nil
}
