package flin

import (
	"encoding/json"
	"reflect"
	"strings"
)

// QueryBuilder accumulates a query against one model and dispatches it with
// a terminal operation (Get, Update, Delete, ...).
//
// Modifiers validate their argument immediately. A rejected argument leaves
// the descriptor untouched and is kept as the builder's error; the first
// error wins and is returned by every terminal operation without sending a
// request. The builder is not reset after a terminal call.
//
// A QueryBuilder is not safe for concurrent use.
type QueryBuilder struct {
	db    *Database
	model string
	desc  Descriptor
	err   error
}

func newQueryBuilder(db *Database, model string) *QueryBuilder {
	qb := &QueryBuilder{db: db, model: model}
	if strings.TrimSpace(db.name) == "" {
		qb.fail(newError("model", "database", ErrMissingValue, "database name is required"))
	}
	if strings.TrimSpace(model) == "" {
		qb.fail(newError("model", "name", ErrMissingValue, "model name is required"))
	}
	return qb
}

// Filter sets the filter expression. Calling it again replaces the previous one.
func (qb *QueryBuilder) Filter(expression string) *QueryBuilder {
	if strings.TrimSpace(expression) == "" {
		return qb.fail(newError("filter", "expression", ErrMissingValue, "expression is empty"))
	}
	qb.desc.Expression = &expression
	return qb
}

// Lookup appends a join directive
func (qb *QueryBuilder) Lookup(spec LookupSpec) *QueryBuilder {
	if err := checkLookup("lookup", spec); err != nil {
		return qb.fail(err)
	}
	qb.desc.Lookups = append(qb.desc.Lookups, spec)
	return qb
}

// Page sets the 1-based page number
func (qb *QueryBuilder) Page(n int) *QueryBuilder {
	if n <= 0 {
		return qb.fail(newError("page", "n", ErrNotPositive, "got %d", n))
	}
	qb.desc.Page = &n
	return qb
}

// Limit sets the maximum number of records returned
func (qb *QueryBuilder) Limit(n int) *QueryBuilder {
	if n == 0 {
		return qb.fail(newError("limit", "n", ErrInvalidLimit, "limit cannot be zero"))
	}
	if n < 0 {
		return qb.fail(newError("limit", "n", ErrNotPositive, "got %d", n))
	}
	qb.desc.Limit = &n
	return qb
}

// Sort appends a sort entry. Direction is SortAsc or SortDesc.
func (qb *QueryBuilder) Sort(field, direction string) *QueryBuilder {
	if strings.TrimSpace(field) == "" {
		return qb.fail(newError("sort", "field", ErrMissingValue, "field is empty"))
	}
	if direction != SortAsc && direction != SortDesc {
		return qb.fail(newError("sort", "direction", ErrInvalidEnum, "must be %s or %s, got %q", SortAsc, SortDesc, direction))
	}
	qb.desc.Sort = append(qb.desc.Sort, SortEntry{Field: field, Direction: direction})
	return qb
}

// Omit adds fields to exclude from returned records
func (qb *QueryBuilder) Omit(fields ...string) *QueryBuilder {
	if len(fields) == 0 {
		return qb.fail(newError("omit", "fields", ErrMissingValue, "no fields given"))
	}
	for i, f := range fields {
		if strings.TrimSpace(f) == "" {
			return qb.fail(newError("omit", "fields", ErrMissingValue, "field %d is empty", i))
		}
	}
	qb.desc.Omit = append(qb.desc.Omit, fields...)
	return qb
}

// Group sets the grouping directive, replacing any previous one
func (qb *QueryBuilder) Group(spec GroupSpec) *QueryBuilder {
	switch g := spec.(type) {
	case nil:
		return qb.fail(newError("group", "spec", ErrMissingValue, "group is nil"))
	case GroupExpr:
		if strings.TrimSpace(string(g)) == "" {
			return qb.fail(newError("group", "spec", ErrMissingValue, "group expression is empty"))
		}
	case GroupFields:
		if len(g) == 0 {
			return qb.fail(newError("group", "spec", ErrMissingValue, "no group fields"))
		}
		for i, f := range g {
			if strings.TrimSpace(f) == "" {
				return qb.fail(newError("group", "spec", ErrMissingValue, "group field %d is empty", i))
			}
		}
		spec = GroupFields(cloneSlice([]string(g)))
	}
	qb.desc.Group = spec
	return qb
}

// Object returns a handle on a single record of this model. The handle
// carries a copy of the current omit list.
func (qb *QueryBuilder) Object(id string) *ObjectHandle {
	return &ObjectHandle{
		db:    qb.db,
		model: qb.model,
		id:    id,
		omit:  cloneSlice(qb.desc.Omit),
	}
}

// Err returns the first validation error recorded by a modifier
func (qb *QueryBuilder) Err() error {
	return qb.err
}

// Descriptor returns a copy of the accumulated query state
func (qb *QueryBuilder) Descriptor() Descriptor {
	return qb.desc.clone()
}

// Model returns the model name
func (qb *QueryBuilder) Model() string {
	return qb.model
}

// Reset clears the descriptor and any recorded error
func (qb *QueryBuilder) Reset() *QueryBuilder {
	qb.desc = Descriptor{}
	qb.err = nil
	return qb
}

// String renders the request body a Get would send
func (qb *QueryBuilder) String() string {
	data, err := json.Marshal(qb.payload(nil))
	if err != nil {
		return qb.model
	}
	return string(data)
}

func (qb *QueryBuilder) fail(err *Error) *QueryBuilder {
	if qb.err == nil {
		qb.err = err
	}
	return qb
}

func checkLookup(op string, spec LookupSpec) *Error {
	switch l := spec.(type) {
	case nil:
		return newError(op, "spec", ErrMissingValue, "lookup is nil")
	case FieldLookup:
		if strings.TrimSpace(string(l)) == "" {
			return newError(op, "spec", ErrMissingValue, "lookup field is empty")
		}
	case ComplexLookup:
		if l.Field == "" && l.From == "" {
			return newError(op, "spec", ErrMissingValue, "lookup needs a field or a from model")
		}
	case *ComplexLookup:
		if l == nil {
			return newError(op, "spec", ErrMissingValue, "lookup is nil")
		}
		return checkLookup(op, *l)
	}
	return nil
}

// checkValues accepts a record (map, struct, pointer to either, raw JSON
// object) or a non-empty list of records.
func checkValues(op string, values interface{}) error {
	if values == nil {
		return newError(op, "values", ErrMissingValue, "values are required")
	}
	if raw, ok := values.(json.RawMessage); ok {
		trimmed := strings.TrimSpace(string(raw))
		if trimmed == "" || trimmed == "null" {
			return newError(op, "values", ErrMissingValue, "values are required")
		}
		if (trimmed[0] != '{' && trimmed[0] != '[') || !json.Valid(raw) {
			return newError(op, "values", ErrWrongType, "raw values must be a JSON object or array")
		}
		return nil
	}

	v := reflect.ValueOf(values)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return newError(op, "values", ErrMissingValue, "values list is empty")
		}
		for i := 0; i < v.Len(); i++ {
			if !isRecord(v.Index(i)) {
				return newError(op, "values", ErrWrongType, "element %d is %s, want object", i, v.Index(i).Kind())
			}
		}
		return nil
	case reflect.Ptr, reflect.Map:
		if v.IsNil() {
			return newError(op, "values", ErrMissingValue, "values are required")
		}
	}
	if !isRecord(v) {
		return newError(op, "values", ErrWrongType, "got %T, want object or list of objects", values)
	}
	return nil
}

func isRecord(v reflect.Value) bool {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	return v.Kind() == reflect.Map || v.Kind() == reflect.Struct
}
