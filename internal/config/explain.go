package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
)

// effectiveProvider feeds the effective config to koanf as YAML bytes.
type effectiveProvider struct {
	cfg *Config
}

func (p effectiveProvider) ReadBytes() ([]byte, error) {
	return p.cfg.Marshal()
}

func (p effectiveProvider) Read() (map[string]any, error) {
	return nil, errors.New("effective config provider does not support Read")
}

// Explain returns the effective value at a dotted YAML path and where it
// came from. List elements are addressed by index, e.g. desktops.0.split.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	k := koanf.New(".")
	if err := k.Load(effectiveProvider{cfg: res.Config}, kyaml.Parser()); err != nil {
		return nil, Source{}, err
	}

	value, err := lookup(k.Raw(), path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

// lookup walks maps by key and lists by index.
func lookup(root map[string]any, path string) (any, error) {
	var cur any = root
	for _, part := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				return nil, fmt.Errorf("unknown config path %q", path)
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("unknown config path %q", path)
			}
			cur = v[idx]
		default:
			return nil, fmt.Errorf("unknown config path %q", path)
		}
	}
	return cur, nil
}
