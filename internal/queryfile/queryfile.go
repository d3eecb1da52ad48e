package queryfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/skshohagmiah/flinbase/pkg/flin"
)

// Document is one query written in YAML. Fields not used by the
// operation are ignored.
type Document struct {
	// Model is the target model (required)
	Model string `yaml:"model"`

	// Operation is any builder terminal, e.g. "get", "delete" (required)
	Operation string `yaml:"operation"`

	// Modifiers
	Filter  string   `yaml:"filter,omitempty"`
	Lookups []Lookup `yaml:"lookups,omitempty"`
	Sort    []Sort   `yaml:"sort,omitempty"`
	Page    *int     `yaml:"page,omitempty"`
	Limit   *int     `yaml:"limit,omitempty"`
	Omit    []string `yaml:"omit,omitempty"`
	Group   *Group   `yaml:"group,omitempty"`

	// Operation arguments
	ReturnCountInfo bool          `yaml:"returnCountInfo,omitempty"`
	Values          interface{}   `yaml:"values,omitempty"`
	ParentID        string        `yaml:"parentId,omitempty"`
	ReturnTop       bool          `yaml:"returnTop,omitempty"`
	FieldUpdates    []FieldUpdate `yaml:"fieldUpdates,omitempty"`
	Computations    []Computation `yaml:"computations,omitempty"`
	Count           int           `yaml:"count,omitempty"`
	Text            string        `yaml:"text,omitempty"`
	FieldName       string        `yaml:"fieldName,omitempty"`
}

// Sort is one sort entry
type Sort struct {
	Field     string `yaml:"field"`
	Direction string `yaml:"direction"`
}

// FieldUpdate is one field update instruction
type FieldUpdate struct {
	Field string      `yaml:"field"`
	Type  string      `yaml:"type"`
	Value interface{} `yaml:"value,omitempty"`
}

// Computation is one aggregation
type Computation struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Compute string `yaml:"compute,omitempty"`
}

// Lookup is written either as a field name or as a mapping
type Lookup struct {
	Spec flin.LookupSpec
}

type complexLookup struct {
	Field        string   `yaml:"field,omitempty"`
	From         string   `yaml:"from,omitempty"`
	LocalField   string   `yaml:"localField,omitempty"`
	ForeignField string   `yaml:"foreignField,omitempty"`
	As           string   `yaml:"as,omitempty"`
	Expression   string   `yaml:"expression,omitempty"`
	Lookups      []Lookup `yaml:"lookups,omitempty"`
}

// UnmarshalYAML accepts a scalar or a mapping
func (l *Lookup) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		l.Spec = flin.FieldLookup(value.Value)
		return nil
	case yaml.MappingNode:
		var c complexLookup
		if err := value.Decode(&c); err != nil {
			return err
		}
		spec := flin.ComplexLookup{
			Field:        c.Field,
			From:         c.From,
			LocalField:   c.LocalField,
			ForeignField: c.ForeignField,
			As:           c.As,
			Expression:   c.Expression,
		}
		for _, nested := range c.Lookups {
			spec.Lookups = append(spec.Lookups, nested.Spec)
		}
		l.Spec = spec
		return nil
	}
	return fmt.Errorf("line %d: lookup must be a field name or a mapping", value.Line)
}

// Group is written either as an expression or as a list of fields
type Group struct {
	Spec flin.GroupSpec
}

// UnmarshalYAML accepts a scalar or a sequence
func (g *Group) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		g.Spec = flin.GroupExpr(value.Value)
		return nil
	case yaml.SequenceNode:
		var fields []string
		if err := value.Decode(&fields); err != nil {
			return err
		}
		g.Spec = flin.GroupFields(fields)
		return nil
	}
	return fmt.Errorf("line %d: group must be an expression or a list of fields", value.Line)
}

// Load reads every document of a YAML file
func Load(path string) ([]*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a stream of YAML documents separated by "---"
func Parse(r io.Reader) ([]*Document, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true) // Reject unknown fields

	var docs []*Document
	for {
		var doc Document
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		if err := validateDocument(&doc); err != nil {
			return nil, fmt.Errorf("invalid query %d: %w", len(docs)+1, err)
		}
		docs = append(docs, &doc)
	}

	if len(docs) == 0 {
		return nil, errors.New("no query documents found")
	}
	return docs, nil
}

// validateDocument checks the fields every query needs
func validateDocument(d *Document) error {
	if d.Model == "" {
		return fmt.Errorf("model is required")
	}
	if d.Operation == "" {
		return fmt.Errorf("operation is required")
	}
	if !slices.Contains(flin.Operations, d.Operation) {
		return fmt.Errorf("unknown operation %q", d.Operation)
	}
	return nil
}

// Apply replays the document modifiers onto qb in a fixed order: filter,
// lookups, sort, page, limit, omit, group. It returns the builder error.
func (d *Document) Apply(qb *flin.QueryBuilder) error {
	if d.Filter != "" {
		qb.Filter(d.Filter)
	}
	for _, l := range d.Lookups {
		qb.Lookup(l.Spec)
	}
	for _, s := range d.Sort {
		qb.Sort(s.Field, s.Direction)
	}
	if d.Page != nil {
		qb.Page(*d.Page)
	}
	if d.Limit != nil {
		qb.Limit(*d.Limit)
	}
	if len(d.Omit) > 0 {
		qb.Omit(d.Omit...)
	}
	if d.Group != nil {
		qb.Group(d.Group.Spec)
	}
	return qb.Err()
}

// Outcome holds the result of an executed document. Delete is set only
// for the delete operation; Result otherwise.
type Outcome struct {
	Operation string
	Result    flin.Result
	Delete    *flin.DeleteResult
}

// Failed reports whether the backend returned errors
func (o Outcome) Failed() bool {
	if o.Delete != nil {
		return o.Delete.Errors != nil
	}
	return o.Result.Errors != nil
}

// Execute applies the document to a fresh builder on db and dispatches
// its operation
func (d *Document) Execute(ctx context.Context, db *flin.Database) (Outcome, error) {
	qb := db.Model(d.Model)
	if err := d.Apply(qb); err != nil {
		return Outcome{}, err
	}

	out := Outcome{Operation: d.Operation}
	var err error
	switch d.Operation {
	case flin.OpCreate:
		out.Result, err = qb.Create(ctx, d.Values)
	case flin.OpSet:
		out.Result, err = qb.Set(ctx, d.Values, d.ParentID, d.ReturnTop)
	case flin.OpAppend:
		out.Result, err = qb.Append(ctx, d.Values, d.ParentID, d.ReturnTop)
	case flin.OpGet:
		out.Result, err = qb.Get(ctx, d.ReturnCountInfo)
	case flin.OpCompute:
		out.Result, err = qb.Compute(ctx, d.computations())
	case flin.OpGetSingle:
		out.Result, err = qb.GetSingle(ctx)
	case flin.OpGetRandom:
		out.Result, err = qb.GetRandom(ctx, d.Count)
	case flin.OpUpdate:
		out.Result, err = qb.Update(ctx, d.Values)
	case flin.OpUpdateFields:
		out.Result, err = qb.UpdateFields(ctx, d.fieldUpdates())
	case flin.OpDelete:
		var res flin.DeleteResult
		res, err = qb.Delete(ctx)
		out.Delete = &res
	case flin.OpSearchText:
		out.Result, err = qb.SearchText(ctx, d.Text, d.ReturnCountInfo)
	case flin.OpSearchFuzzy:
		out.Result, err = qb.SearchFuzzy(ctx, d.FieldName, d.Text)
	default:
		return Outcome{}, fmt.Errorf("unknown operation %q", d.Operation)
	}
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func (d *Document) fieldUpdates() flin.FieldUpdateSet {
	if d.FieldUpdates == nil {
		return nil
	}
	list := make(flin.FieldUpdates, 0, len(d.FieldUpdates))
	for _, u := range d.FieldUpdates {
		list = append(list, flin.FieldUpdate{Field: u.Field, Type: flin.UpdateKind(u.Type), Value: u.Value})
	}
	return list
}

func (d *Document) computations() flin.ComputationSet {
	if d.Computations == nil {
		return nil
	}
	list := make(flin.Computations, 0, len(d.Computations))
	for _, c := range d.Computations {
		list = append(list, flin.Computation{Name: c.Name, Type: flin.ComputeKind(c.Type), Compute: c.Compute})
	}
	return list
}
