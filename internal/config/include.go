package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// layer is one file merged with everything it includes.
type layer struct {
	raw     RawConfig
	sources map[string]Source
	files   []string
}

// includeLoader follows include directives depth first. Includes are merged
// in listed order and the including file is applied last. A file reached
// twice through different paths is merged once; reaching a file that is
// still being loaded is a cycle.
type includeLoader struct {
	merged  map[string]bool
	loading []string
}

func newIncludeLoader() *includeLoader {
	return &includeLoader{merged: make(map[string]bool)}
}

func (l *includeLoader) load(path string) (layer, error) {
	file, err := canonicalPath(path)
	if err != nil {
		return layer{}, err
	}
	for _, active := range l.loading {
		if active == file {
			chain := append(append([]string{}, l.loading...), file)
			return layer{}, fmt.Errorf("include cycle detected: %s", strings.Join(chain, " -> "))
		}
	}
	if l.merged[file] {
		return layer{sources: map[string]Source{}}, nil
	}
	l.merged[file] = true

	data, err := os.ReadFile(file)
	if err != nil {
		return layer{}, fmt.Errorf("%s: failed to read: %w", file, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return layer{}, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	var own RawConfig
	if err := decodeStrict(data, &own); err != nil {
		return layer{}, fmt.Errorf("%s: %w", file, err)
	}

	root := documentRoot(&doc)
	out := layer{sources: map[string]Source{}}

	l.loading = append(l.loading, file)
	for _, inc := range includeNodes(root) {
		targets, err := expandInclude(file, inc.Value)
		if err != nil {
			src := nodeSource(file, inc)
			return layer{}, fmt.Errorf("%s:%d:%d: include %q: %w", src.File, src.Line, src.Column, inc.Value, err)
		}
		for _, target := range targets {
			child, err := l.load(target)
			if err != nil {
				return layer{}, err
			}
			out.absorb(child)
		}
	}
	l.loading = l.loading[:len(l.loading)-1]

	out.absorb(layer{
		raw:     own,
		sources: fileSources(root, file),
		files:   []string{file},
	})
	return out, nil
}

func (l *layer) absorb(other layer) {
	l.raw = l.raw.merge(other.raw)
	for path, src := range other.sources {
		l.sources[path] = src
	}
	l.files = append(l.files, other.files...)
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// expandInclude resolves include relative to the including file. A
// directory expands to its *.yaml and *.yml files in name order; hidden
// files are skipped.
func expandInclude(from, include string) ([]string, error) {
	target, err := resolveInclude(from, include)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{target}, nil
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".yaml", ".yml":
			out = append(out, filepath.Join(target, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

// resolveInclude expands $VARS and a leading ~ before joining relative
// paths onto the including file's directory.
func resolveInclude(from, include string) (string, error) {
	include = os.ExpandEnv(strings.TrimSpace(include))
	if include == "" {
		return "", fmt.Errorf("path is empty")
	}
	if include == "~" || strings.HasPrefix(include, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		include = filepath.Join(home, strings.TrimPrefix(include, "~"))
	}
	if filepath.IsAbs(include) {
		return include, nil
	}
	return filepath.Join(filepath.Dir(from), include), nil
}

func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc != nil && doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}

func nodeSource(file string, n *yaml.Node) Source {
	return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
}

// fileSources records, for every dotted key path in root, the position of
// its value. Sequences are recorded as a whole.
func fileSources(root *yaml.Node, file string) map[string]Source {
	out := make(map[string]Source)
	var walk func(n *yaml.Node, prefix string)
	walk = func(n *yaml.Node, prefix string) {
		if n == nil || n.Kind != yaml.MappingNode {
			return
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i].Value, n.Content[i+1]
			if prefix != "" {
				key = prefix + "." + key
			}
			out[key] = nodeSource(file, val)
			walk(val, key)
		}
	}
	walk(root, "")
	return out
}

// includeNodes returns the scalar entries of the top-level include key.
func includeNodes(root *yaml.Node) []*yaml.Node {
	if root == nil || root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "include" {
			continue
		}
		val := root.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			return []*yaml.Node{val}
		case yaml.SequenceNode:
			var out []*yaml.Node
			for _, item := range val.Content {
				if item.Kind == yaml.ScalarNode {
					out = append(out, item)
				}
			}
			return out
		}
		return nil
	}
	return nil
}
