package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/tierplan/pkg/catalog"
	errs "github.com/matzehuels/tierplan/pkg/errors"
	"github.com/matzehuels/tierplan/pkg/planner"
)

// Format selects a request encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// GoalSpec is a goal by good name.
type GoalSpec struct {
	Good   string  `toml:"good" json:"good"`
	Amount float64 `toml:"amount" json:"amount"`
}

// Request is a solve request by name.
type Request struct {
	Goals      []GoalSpec `toml:"goals" json:"goals"`
	Roots      []string   `toml:"roots" json:"roots,omitempty"`
	Milestones []string   `toml:"milestones" json:"milestones,omitempty"`
}

// Resolved is a request translated to catalog identifiers.
type Resolved struct {
	Goals      []planner.Goal
	Roots      []catalog.GoodID
	Accessible catalog.Accessibility
}

// Resolve validates every name against cat. Unknown goal goods fail with
// INVALID_GOAL; unknown roots fail with INVALID_INPUT.
func (r *Request) Resolve(cat *catalog.Catalog) (*Resolved, error) {
	out := &Resolved{
		Goals: make([]planner.Goal, 0, len(r.Goals)),
		Roots: make([]catalog.GoodID, 0, len(r.Roots)),
	}
	for _, g := range r.Goals {
		if err := errs.ValidateName("good", g.Good); err != nil {
			return nil, err
		}
		goal, err := planner.NewGoalByName(cat, g.Good, g.Amount)
		if err != nil {
			return nil, err
		}
		out.Goals = append(out.Goals, goal)
	}
	for _, name := range r.Roots {
		if err := errs.ValidateName("root", name); err != nil {
			return nil, err
		}
		id, ok := cat.LookupGood(name)
		if !ok {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, catalog.ErrUnknownGood, "root references unknown good %q", name)
		}
		out.Roots = append(out.Roots, id)
	}
	if len(r.Milestones) == 0 {
		out.Accessible = catalog.Everything
	} else {
		out.Accessible = catalog.Unlocked(r.Milestones...)
	}
	return out, nil
}

// ReadRequest decodes a request in the given format.
func ReadRequest(r io.Reader, format Format) (*Request, error) {
	var req Request
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&req)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode request")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "unknown request key %q", undecoded[0].String())
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode request")
		}
	default:
		return nil, errs.New(errs.ErrCodeInvalidFormat, "unsupported request format %q", format)
	}
	return &req, nil
}

// LoadRequest reads a request file, picking the format from its extension.
func LoadRequest(path string) (*Request, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNotFound, err, "open request")
	}
	defer f.Close()
	req, err := ReadRequest(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return req, nil
}

// FormatFromPath maps .toml and .json extensions to a Format.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errs.New(errs.ErrCodeInvalidFormat, "cannot tell request format of %s (want .toml or .json)", path)
	}
}
