package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks every group-document problem: unreadable files, schema violations
// and semantic errors such as duplicate group names.
var ErrInvalidConfig = errors.New("invalid test group configuration")

// Generation modes understood by the composer out of the box.
const (
	ModeUsual      = "usual"
	ModeComponents = "components"
)

// Parameters is one requested graph size inside a group.
type Parameters struct {
	VertexCount int `json:"vertex_count" yaml:"vertex_count"`
	EdgeCount   int `json:"edges_count" yaml:"edges_count"`
}

// Group describes one named category of generated test cases.
type Group struct {
	Name        string       `json:"name" yaml:"name"`
	RegenFactor int          `json:"regen_factor" yaml:"regen_factor"`
	Mode        string       `json:"type" yaml:"type"`
	Parameters  []Parameters `json:"parameters" yaml:"parameters"`
}

// CaseCount is the number of test cases the group expands to.
func (g Group) CaseCount() int {
	return g.RegenFactor * len(g.Parameters)
}

// GroupsFile is the on-disk group document.
type GroupsFile struct {
	Groups         []Group  `json:"test_groups" yaml:"test_groups"`
	ExcludedGroups []string `json:"excluded_groups,omitempty" yaml:"excluded_groups,omitempty"`
}

// LoadGroupsFile reads a JSON or YAML group document, chosen by extension, and validates it.
func LoadGroupsFile(path string) (*GroupsFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "read %s: %v", path, err)
	}
	return ParseGroups(b, strings.ToLower(filepath.Ext(path)))
}

// ParseGroups decodes a group document. ext selects the decoder (".json", anything else is YAML).
func ParseGroups(data []byte, ext string) (*GroupsFile, error) {
	var doc any
	var cfg GroupsFile
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "decode json: %v", err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "decode json: %v", err)
		}
	default:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "decode yaml: %v", err)
		}
		// the schema validator wants JSON-shaped values
		var err error
		if doc, err = toJSONValue(raw); err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "normalize yaml: %v", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "decode yaml: %v", err)
		}
	}

	if err := validateSchema(doc); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "schema: %v", err)
	}
	if err := validateGroups(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadGroupsGlob loads every document matching pattern (doublestar syntax) in lexical path
// order and concatenates their groups. A pattern without glob characters loads a single file.
func LoadGroupsGlob(pattern string) (*GroupsFile, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "glob %q: %v", pattern, err)
	}
	if len(paths) == 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "no group documents match %q", pattern)
	}
	sort.Strings(paths)

	merged := &GroupsFile{}
	for _, p := range paths {
		cfg, err := LoadGroupsFile(p)
		if err != nil {
			return nil, err
		}
		merged.Groups = append(merged.Groups, cfg.Groups...)
		merged.ExcludedGroups = append(merged.ExcludedGroups, cfg.ExcludedGroups...)
	}
	if err := validateGroups(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func validateGroups(cfg *GroupsFile) error {
	seen := make(map[string]bool, len(cfg.Groups))
	for i, g := range cfg.Groups {
		if strings.TrimSpace(g.Name) == "" {
			return errors.Wrapf(ErrInvalidConfig, "test_groups[%d]: name is required", i)
		}
		if seen[g.Name] {
			return errors.Wrapf(ErrInvalidConfig, "duplicate group name %q", g.Name)
		}
		seen[g.Name] = true
		if g.RegenFactor < 1 {
			return errors.Wrapf(ErrInvalidConfig, "group %q: regen_factor must be >= 1", g.Name)
		}
		for j, p := range g.Parameters {
			if p.VertexCount < 1 || p.EdgeCount < 0 {
				return errors.Wrapf(ErrInvalidConfig, "group %q parameters[%d]: vertex_count=%d edges_count=%d",
					g.Name, j, p.VertexCount, p.EdgeCount)
			}
		}
	}
	return nil
}

func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
