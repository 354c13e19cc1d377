package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// SourceKind says where a config value came from.
type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

// Source locates a value. Line and Column are set for file values.
type Source struct {
	Kind   SourceKind
	File   string
	Line   int
	Column int
}

// LoadResult is a loaded configuration plus the provenance of its values.
type LoadResult struct {
	Config *Config
	// Sources maps a dotted YAML path to the file position that set it
	// last.
	Sources map[string]Source
	// Files lists every file read, in merge order.
	Files []string
}

// Load reads the configuration from the default location.
func Load() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and the files it includes. A missing file yields
// the defaults. Includes merge ahead of the file naming them, so the
// including file wins.
func LoadFromPath(path string) (*LoadResult, error) {
	raw := RawConfig{}
	l := &loader{sources: map[string]Source{}, visited: map[string]bool{}}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	} else {
		if err := l.visit(path, nil); err != nil {
			return nil, err
		}
		merged, err := l.merge()
		if err != nil {
			return nil, err
		}
		if err := strictDecode(merged, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	cfg, err := BuildEffectiveConfig(raw)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, l.locate(err)
	}
	return &LoadResult{Config: cfg, Sources: l.sources, Files: l.files}, nil
}

// loader walks an include tree, checking each file on its own so errors
// name the file that holds the offending key.
type loader struct {
	files   []string
	sources map[string]Source
	visited map[string]bool
}

func (l *loader) visit(path string, chain []string) error {
	name := realPath(path)
	if slices.Contains(chain, name) {
		return fmt.Errorf("include cycle detected: %s -> %s", strings.Join(chain, " -> "), name)
	}
	if l.visited[name] {
		return nil
	}
	l.visited[name] = true

	data, err := os.ReadFile(name)
	if err != nil {
		return fmt.Errorf("%s: failed to read: %w", name, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%s: failed to parse yaml: %w", name, err)
	}
	var check RawConfig
	if err := strictDecode(data, &check); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	root := documentRoot(&doc)
	for _, inc := range includeNodes(root) {
		targets, err := includeTargets(name, inc.Value)
		if err != nil {
			return fmt.Errorf("%s:%d:%d: include %q: %w", name, inc.Line, inc.Column, inc.Value, err)
		}
		for _, t := range targets {
			if err := l.visit(t, append(chain, name)); err != nil {
				return err
			}
		}
	}

	recordPositions(root, name, "", l.sources)
	l.files = append(l.files, name)
	return nil
}

// merge layers the visited files with koanf and renders the result back
// to YAML for the strict decoder.
func (l *loader) merge() ([]byte, error) {
	k := koanf.New(".")
	for _, f := range l.files {
		if err := k.Load(file.Provider(f), kyaml.Parser()); err != nil {
			return nil, fmt.Errorf("%s: failed to parse yaml: %w", f, err)
		}
	}
	out, err := k.Marshal(kyaml.Parser())
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	return out, nil
}

// locate points a validation error at the nearest enclosing YAML path that
// some file set.
func (l *loader) locate(err error) error {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	for p := verr.Path; p != ""; {
		if src, ok := l.sources[p]; ok {
			verr.Source = src
			return verr
		}
		i := strings.LastIndexByte(p, '.')
		if i < 0 {
			break
		}
		p = p[:i]
	}
	return verr
}

func strictDecode(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func realPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}

// includeNodes returns the scalar entries of a top-level include key.
func includeNodes(root *yaml.Node) []*yaml.Node {
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "include" {
			continue
		}
		v := root.Content[i+1]
		if v.Kind == yaml.ScalarNode {
			return []*yaml.Node{v}
		}
		var out []*yaml.Node
		for _, item := range v.Content {
			if item.Kind == yaml.ScalarNode {
				out = append(out, item)
			}
		}
		return out
	}
	return nil
}

// includeTargets resolves an include entry relative to the file naming it.
// A directory expands to its *.yaml and *.yml files in name order.
func includeTargets(from, entry string) ([]string, error) {
	if entry == "" {
		return nil, errors.New("path is empty")
	}
	if entry == "~" || strings.HasPrefix(entry, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		entry = filepath.Join(home, strings.TrimPrefix(entry, "~"))
	}
	if !filepath.IsAbs(entry) {
		entry = filepath.Join(filepath.Dir(from), entry)
	}

	info, err := os.Stat(entry)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{entry}, nil
	}
	entries, err := os.ReadDir(entry)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			if !e.IsDir() {
				out = append(out, filepath.Join(entry, e.Name()))
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

// recordPositions stores the position of every mapping value and sequence
// item under root, keyed by dotted path with numeric list indexes.
func recordPositions(n *yaml.Node, file, prefix string, out map[string]Source) {
	at := func(path string, v *yaml.Node) {
		out[path] = Source{Kind: SourceFile, File: file, Line: v.Line, Column: v.Column}
	}
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			path := n.Content[i].Value
			if prefix != "" {
				path = prefix + "." + path
			}
			at(path, n.Content[i+1])
			recordPositions(n.Content[i+1], file, path, out)
		}
	case yaml.SequenceNode:
		for i, item := range n.Content {
			path := prefix + "." + strconv.Itoa(i)
			at(path, item)
			recordPositions(item, file, path, out)
		}
	}
}
