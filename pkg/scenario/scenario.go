// Package scenario loads and replays scripted collection sessions.
//
// A scenario declares the initial sections of a root array collection, a list of
// derived views (filters and sorts, possibly chained), and a list of mutation steps
// applied to the root. Replaying it records every batch each collection publishes.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/collist/pkg/filtered"
)

// RootName is the name under which views refer to the root collection.
const RootName = "root"

// ErrInvalid is returned for scenario files that cannot be replayed.
var ErrInvalid = errors.New("invalid scenario")

// Scenario is the decoded form of a scenario file.
type Scenario struct {
	Name     string        `yaml:"name"`
	Sections []SectionSpec `yaml:"sections"`
	Views    []ViewSpec    `yaml:"views"`
	Steps    []Step        `yaml:"steps"`
}

// SectionSpec declares one section of the root collection.
type SectionSpec struct {
	ID      string   `yaml:"id" json:"id"`
	Title   string   `yaml:"title,omitempty" json:"title,omitempty"`
	Objects []string `yaml:"objects" json:"objects"`
}

// View kinds.
const (
	KindFilter = "filter"
	KindSort   = "sort"
)

// ViewSpec declares a derived collection.
type ViewSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	// Source names the collection this view reads from. Sort views may list several
	// in Sources instead; they are merged in order.
	Source  string   `yaml:"source"`
	Sources []string `yaml:"sources"`

	// Filter views.
	Pattern   string   `yaml:"pattern"`
	Exclude   bool     `yaml:"exclude"`
	DropEmpty bool     `yaml:"drop_empty"`
	Sections  []string `yaml:"sections"`

	// Sort views.
	Order string `yaml:"order"`
	Group string `yaml:"group"`
}

// Step operations.
const (
	OpInsert        = "insert"
	OpAppend        = "append"
	OpRemove        = "remove"
	OpReplace       = "replace"
	OpMove          = "move"
	OpInsertSection = "insert_section"
	OpRemoveSection = "remove_section"
	OpBegin         = "begin"
	OpEnd           = "end"
)

// Step is one mutation of the root collection.
type Step struct {
	Op        string   `yaml:"op"`
	Section   int      `yaml:"section"`
	Item      int      `yaml:"item"`
	ToSection int      `yaml:"to_section"`
	ToItem    int      `yaml:"to_item"`
	Objects   []string `yaml:"objects"`
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
}

func (s Step) String() string {
	switch s.Op {
	case OpInsert, OpReplace:
		return fmt.Sprintf("%s %v at [%d,%d]", s.Op, s.Objects, s.Section, s.Item)
	case OpAppend:
		return fmt.Sprintf("%s %v to %d", s.Op, s.Objects, s.Section)
	case OpRemove:
		return fmt.Sprintf("%s [%d,%d]", s.Op, s.Section, s.Item)
	case OpMove:
		return fmt.Sprintf("%s [%d,%d] -> [%d,%d]", s.Op, s.Section, s.Item, s.ToSection, s.ToItem)
	case OpInsertSection:
		return fmt.Sprintf("%s %q at %d", s.Op, s.ID, s.Section)
	case OpRemoveSection:
		return fmt.Sprintf("%s %d", s.Op, s.Section)
	default:
		return s.Op
	}
}

// Load decodes and validates a scenario. Unknown fields are rejected.
func Load(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads a scenario from path.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	s, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks view wiring and step operations. Index paths are checked when the
// steps run, against the state of the collection at that point.
func (s *Scenario) Validate() error {
	known := map[string]bool{RootName: true}
	for i, v := range s.Views {
		if v.Name == "" || known[v.Name] {
			return fmt.Errorf("%w: view %d: missing or duplicate name %q", ErrInvalid, i, v.Name)
		}
		for _, src := range v.sources() {
			if !known[src] {
				return fmt.Errorf("%w: view %q: unknown source %q", ErrInvalid, v.Name, src)
			}
		}
		switch v.Kind {
		case KindFilter:
			if len(v.Sources) > 0 {
				return fmt.Errorf("%w: filter view %q takes a single source", ErrInvalid, v.Name)
			}
			if v.Pattern != "" {
				if _, err := filtered.Glob(v.Pattern); err != nil {
					return fmt.Errorf("%w: view %q: %v", ErrInvalid, v.Name, err)
				}
			}
		case KindSort:
			if v.Order != "" && v.Order != "asc" && v.Order != "desc" {
				return fmt.Errorf("%w: view %q: order must be asc or desc", ErrInvalid, v.Name)
			}
			if v.Group != "" && v.Group != "initial" {
				return fmt.Errorf("%w: view %q: unknown group %q", ErrInvalid, v.Name, v.Group)
			}
		default:
			return fmt.Errorf("%w: view %q: unknown kind %q", ErrInvalid, v.Name, v.Kind)
		}
		known[v.Name] = true
	}

	depth := 0
	for i, st := range s.Steps {
		switch st.Op {
		case OpInsert, OpAppend, OpReplace:
			if len(st.Objects) == 0 {
				return fmt.Errorf("%w: step %d: %s needs objects", ErrInvalid, i, st.Op)
			}
			if st.Op == OpReplace && len(st.Objects) != 1 {
				return fmt.Errorf("%w: step %d: replace takes exactly one object", ErrInvalid, i)
			}
		case OpInsertSection:
			if st.ID == "" {
				return fmt.Errorf("%w: step %d: insert_section needs an id", ErrInvalid, i)
			}
		case OpRemove, OpMove, OpRemoveSection:
		case OpBegin:
			depth++
		case OpEnd:
			if depth == 0 {
				return fmt.Errorf("%w: step %d: end without begin", ErrInvalid, i)
			}
			depth--
		default:
			return fmt.Errorf("%w: step %d: unknown op %q", ErrInvalid, i, st.Op)
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: %d unterminated begin", ErrInvalid, depth)
	}
	return nil
}

func (v ViewSpec) sources() []string {
	if len(v.Sources) > 0 {
		return v.Sources
	}
	if v.Source == "" {
		return []string{RootName}
	}
	return []string{v.Source}
}
