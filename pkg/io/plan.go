package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/tierplan/pkg/catalog"
	errs "github.com/matzehuels/tierplan/pkg/errors"
	"github.com/matzehuels/tierplan/pkg/planner"
)

type planDoc struct {
	Catalog   string        `json:"catalog"`
	Objective float64       `json:"objective"`
	Deadlock  bool          `json:"deadlock"`
	Tiers     [][]recipeDoc `json:"tiers"`
}

type recipeDoc struct {
	Recipe     string   `json:"recipe"`
	Rate       float64  `json:"rate"`
	Upstream   []string `json:"upstream,omitempty"`
	Downstream []string `json:"downstream,omitempty"`
}

// WritePlan encodes p as indented JSON.
func WritePlan(w io.Writer, cat *catalog.Catalog, p *planner.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toDoc(cat, p)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalPlan encodes p as compact JSON, the form stored in caches.
func MarshalPlan(cat *catalog.Catalog, p *planner.Plan) ([]byte, error) {
	return json.Marshal(toDoc(cat, p))
}

// ExportPlan writes p to a JSON file at path.
func ExportPlan(path string, cat *catalog.Catalog, p *planner.Plan) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePlan(f, cat, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func toDoc(cat *catalog.Catalog, p *planner.Plan) planDoc {
	doc := planDoc{
		Catalog:   cat.Fingerprint(),
		Objective: p.Objective,
		Deadlock:  p.Deadlock,
		Tiers:     make([][]recipeDoc, len(p.Tiers)),
	}
	for i, tier := range p.Tiers {
		doc.Tiers[i] = make([]recipeDoc, len(tier))
		for j, pr := range tier {
			doc.Tiers[i][j] = recipeDoc{
				Recipe:     cat.Recipe(pr.Recipe).Name,
				Rate:       pr.Rate,
				Upstream:   recipeNames(cat, pr.Upstream),
				Downstream: recipeNames(cat, pr.Downstream),
			}
		}
	}
	return doc
}

func recipeNames(cat *catalog.Catalog, ids []catalog.RecipeID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = cat.Recipe(id).Name
	}
	return out
}

// ReadPlan decodes a plan written by [WritePlan] or [MarshalPlan] for cat.
// Plans written for another catalog fail with INVALID_FORMAT.
func ReadPlan(r io.Reader, cat *catalog.Catalog) (*planner.Plan, error) {
	var doc planDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode plan")
	}
	if doc.Catalog != "" && doc.Catalog != cat.Fingerprint() {
		return nil, errs.New(errs.ErrCodeInvalidFormat, "plan was computed for a different catalog")
	}

	p := &planner.Plan{
		Objective: doc.Objective,
		Deadlock:  doc.Deadlock,
		Tiers:     make([][]planner.PlanRecipe, len(doc.Tiers)),
	}
	for i, tier := range doc.Tiers {
		p.Tiers[i] = make([]planner.PlanRecipe, len(tier))
		for j, rd := range tier {
			id, err := lookupRecipe(cat, rd.Recipe)
			if err != nil {
				return nil, err
			}
			up, err := lookupRecipes(cat, rd.Upstream)
			if err != nil {
				return nil, err
			}
			down, err := lookupRecipes(cat, rd.Downstream)
			if err != nil {
				return nil, err
			}
			p.Tiers[i][j] = planner.PlanRecipe{
				Recipe:     id,
				Tier:       i,
				Rate:       rd.Rate,
				Upstream:   up,
				Downstream: down,
			}
		}
	}
	return p, nil
}

// UnmarshalPlan decodes a plan produced by [MarshalPlan].
func UnmarshalPlan(data []byte, cat *catalog.Catalog) (*planner.Plan, error) {
	return ReadPlan(bytes.NewReader(data), cat)
}

// ImportPlan reads a plan from a JSON file at path.
func ImportPlan(path string, cat *catalog.Catalog) (*planner.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNotFound, err, "open plan")
	}
	defer f.Close()
	return ReadPlan(f, cat)
}

func lookupRecipe(cat *catalog.Catalog, name string) (catalog.RecipeID, error) {
	id, ok := cat.LookupRecipe(name)
	if !ok {
		return 0, errs.New(errs.ErrCodeNotFound, "plan references unknown recipe %q", name)
	}
	return id, nil
}

func lookupRecipes(cat *catalog.Catalog, names []string) ([]catalog.RecipeID, error) {
	out := make([]catalog.RecipeID, 0, len(names))
	for _, name := range names {
		id, err := lookupRecipe(cat, name)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
