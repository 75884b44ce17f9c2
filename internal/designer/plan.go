package designer

import (
	"github.com/cmmoran/designersync/internal/dom"
	"github.com/cmmoran/designersync/internal/model"
)

// Op is a kind of field edit.
type Op string

const (
	OpAdd     Op = "add"
	OpReplace Op = "replace"
	OpRemove  Op = "remove"
)

// Replacement pairs a declared field with the generated field replacing it.
type Replacement struct {
	Old *dom.Field
	New *model.Field
}

// Plan lists the field edits of one pass. It is built from a single parse
// and applied afterwards; it is never kept between passes.
type Plan struct {
	Add     []*model.Field
	Replace []Replacement
	Remove  []*dom.Field
}

// Empty reports whether the plan has no edits.
func (p *Plan) Empty() bool {
	return len(p.Add) == 0 && len(p.Replace) == 0 && len(p.Remove) == 0
}

// BuildPlan diffs the generated fields against the fields of the complete
// class.
func BuildPlan(complete *dom.Class, generated []*model.Field, access *AccessTable) *Plan {
	plan := &Plan{}
	wanted := make(map[string]struct{}, len(generated))
	for _, f := range generated {
		wanted[f.Name] = struct{}{}
		old := complete.Field(f.Name)
		switch {
		case old == nil:
			plan.Add = append(plan.Add, f)
		case access.FieldChanged(old, f):
			plan.Replace = append(plan.Replace, Replacement{Old: old, New: f})
		}
	}
	for _, f := range complete.Fields {
		if _, ok := wanted[f.Name]; !ok {
			plan.Remove = append(plan.Remove, f)
		}
	}
	return plan
}
