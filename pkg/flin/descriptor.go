package flin

// Descriptor is the accumulated query state of a builder. Unset fields are
// nil and serialize as JSON null; all seven keys are always sent.
type Descriptor struct {
	Expression *string      `json:"expression"`
	Lookups    []LookupSpec `json:"lookups"`
	Page       *int         `json:"page"`
	Limit      *int         `json:"limit"`
	Sort       []SortEntry  `json:"sort"`
	Omit       []string     `json:"omit"`
	Group      GroupSpec    `json:"group"`
}

// IsEmpty reports whether no modifier has been applied
func (d Descriptor) IsEmpty() bool {
	return d.Expression == nil && d.Lookups == nil && d.Page == nil && d.Limit == nil &&
		d.Sort == nil && d.Omit == nil && d.Group == nil
}

func (d Descriptor) clone() Descriptor {
	out := Descriptor{
		Lookups: cloneSlice(d.Lookups),
		Sort:    cloneSlice(d.Sort),
		Omit:    cloneSlice(d.Omit),
		Group:   d.Group,
	}
	if d.Expression != nil {
		expr := *d.Expression
		out.Expression = &expr
	}
	if d.Page != nil {
		page := *d.Page
		out.Page = &page
	}
	if d.Limit != nil {
		limit := *d.Limit
		out.Limit = &limit
	}
	if fields, ok := d.Group.(GroupFields); ok {
		out.Group = GroupFields(cloneSlice([]string(fields)))
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
