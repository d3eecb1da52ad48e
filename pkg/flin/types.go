package flin

import (
	"encoding/json"

	"github.com/skshohagmiah/flinbase/pkg/fetcher"
)

// Result is the {data, errors} envelope returned by terminal operations
type Result = fetcher.Result

// ErrorInfo describes a failed request
type ErrorInfo = fetcher.ErrorInfo

// Sort direction constants
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// SortEntry is one element of the sort list
type SortEntry struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// LookupSpec is a join directive: either a FieldLookup or a ComplexLookup.
type LookupSpec interface {
	lookupSpec()
}

// FieldLookup joins the model referenced by a reference field
type FieldLookup string

func (FieldLookup) lookupSpec() {}

// ComplexLookup is a lookup query object
type ComplexLookup struct {
	Field        string       `json:"field,omitempty"`
	From         string       `json:"from,omitempty"`
	LocalField   string       `json:"localField,omitempty"`
	ForeignField string       `json:"foreignField,omitempty"`
	As           string       `json:"as,omitempty"`
	Expression   string       `json:"expression,omitempty"`
	Lookups      []LookupSpec `json:"lookups,omitempty"`
}

func (ComplexLookup) lookupSpec() {}

// Lookups is an ordered list of lookup directives
type Lookups []LookupSpec

// GroupSpec is a grouping directive: either a GroupExpr or GroupFields.
type GroupSpec interface {
	groupSpec()
}

// GroupExpr groups by a single grouping expression
type GroupExpr string

func (GroupExpr) groupSpec() {}

// GroupFields groups by a list of field names
type GroupFields []string

func (GroupFields) groupSpec() {}

// UpdateKind is the operator of a FieldUpdate
type UpdateKind string

// Field update operators
const (
	UpdateSet       UpdateKind = "set"
	UpdateUnset     UpdateKind = "unset"
	UpdateIncrement UpdateKind = "increment"
	UpdateDecrement UpdateKind = "decrement"
	UpdateMin       UpdateKind = "min"
	UpdateMax       UpdateKind = "max"
	UpdateMultiply  UpdateKind = "multiply"
	UpdateDivide    UpdateKind = "divide"
	UpdatePush      UpdateKind = "push"
	UpdatePull      UpdateKind = "pull"
	UpdatePop       UpdateKind = "pop"
	UpdateShift     UpdateKind = "shift"
)

var updateKinds = map[UpdateKind]bool{
	UpdateSet: true, UpdateUnset: true, UpdateIncrement: true, UpdateDecrement: true,
	UpdateMin: true, UpdateMax: true, UpdateMultiply: true, UpdateDivide: true,
	UpdatePush: true, UpdatePull: true, UpdatePop: true, UpdateShift: true,
}

// FieldUpdateSet is accepted wherever one or many field updates are allowed.
// It is implemented by FieldUpdate and FieldUpdates.
type FieldUpdateSet interface {
	fieldUpdates() []FieldUpdate
}

// FieldUpdate is one atomic field mutation
type FieldUpdate struct {
	Field string      `json:"field"`
	Type  UpdateKind  `json:"type"`
	Value interface{} `json:"value,omitempty"`
}

func (u FieldUpdate) fieldUpdates() []FieldUpdate {
	return []FieldUpdate{u}
}

// FieldUpdates is a list of field mutations applied together
type FieldUpdates []FieldUpdate

func (u FieldUpdates) fieldUpdates() []FieldUpdate {
	return u
}

// SetField sets field to value
func SetField(field string, value interface{}) FieldUpdate {
	return FieldUpdate{Field: field, Type: UpdateSet, Value: value}
}

// UnsetField removes field
func UnsetField(field string) FieldUpdate {
	return FieldUpdate{Field: field, Type: UpdateUnset}
}

// Increment adds by to a numeric field
func Increment(field string, by interface{}) FieldUpdate {
	return FieldUpdate{Field: field, Type: UpdateIncrement, Value: by}
}

// Decrement subtracts by from a numeric field
func Decrement(field string, by interface{}) FieldUpdate {
	return FieldUpdate{Field: field, Type: UpdateDecrement, Value: by}
}

// Push appends value to a list field
func Push(field string, value interface{}) FieldUpdate {
	return FieldUpdate{Field: field, Type: UpdatePush, Value: value}
}

// Pull removes matching entries from a list field
func Pull(field string, value interface{}) FieldUpdate {
	return FieldUpdate{Field: field, Type: UpdatePull, Value: value}
}

// ComputeKind is the aggregation of a Computation
type ComputeKind string

// Aggregations
const (
	ComputeCount   ComputeKind = "count"
	ComputeCountIf ComputeKind = "countIf"
	ComputeSum     ComputeKind = "sum"
	ComputeAvg     ComputeKind = "avg"
	ComputeMin     ComputeKind = "min"
	ComputeMax     ComputeKind = "max"
)

var computeKinds = map[ComputeKind]bool{
	ComputeCount: true, ComputeCountIf: true, ComputeSum: true,
	ComputeAvg: true, ComputeMin: true, ComputeMax: true,
}

// ComputationSet is implemented by Computation and Computations
type ComputationSet interface {
	computations() []Computation
}

// Computation is one aggregation evaluated per group
type Computation struct {
	Name    string      `json:"name"`
	Type    ComputeKind `json:"type"`
	Compute string      `json:"compute,omitempty"`
}

func (c Computation) computations() []Computation {
	return []Computation{c}
}

// Computations is a list of aggregations
type Computations []Computation

func (c Computations) computations() []Computation {
	return c
}

// DeleteInfo describes the outcome of a delete. Count is nil when the
// backend did not report one in a decodable form.
type DeleteInfo struct {
	Count *int64          `json:"count"`
	Raw   json.RawMessage `json:"-"`
}

// DeleteResult is the envelope returned by delete operations
type DeleteResult struct {
	Info   *DeleteInfo
	Errors *ErrorInfo
}

func toDeleteResult(res Result) DeleteResult {
	out := DeleteResult{Errors: res.Errors}
	if len(res.Data) > 0 {
		info := &DeleteInfo{Raw: res.Data}
		var decoded DeleteInfo
		if err := json.Unmarshal(res.Data, &decoded); err == nil {
			info.Count = decoded.Count
		}
		out.Info = info
	}
	return out
}
