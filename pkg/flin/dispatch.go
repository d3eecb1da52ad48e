package flin

import (
	"context"
	"strings"

	"github.com/skshohagmiah/flinbase/pkg/fetcher"
)

// Operation names, used as the last path segment of the endpoint
const (
	OpCreate       = "create"
	OpSet          = "set"
	OpAppend       = "append"
	OpGet          = "get"
	OpCompute      = "compute"
	OpGetSingle    = "getSingle"
	OpGetRandom    = "getRandom"
	OpUpdate       = "update"
	OpUpdateFields = "updateFields"
	OpDelete       = "delete"
	OpSearchText   = "searchText"
	OpSearchFuzzy  = "searchFuzzy"
)

// Operations lists every builder terminal operation
var Operations = []string{
	OpCreate, OpSet, OpAppend, OpGet, OpCompute, OpGetSingle, OpGetRandom,
	OpUpdate, OpUpdateFields, OpDelete, OpSearchText, OpSearchFuzzy,
}

// Create inserts one record or a list of records
func (qb *QueryBuilder) Create(ctx context.Context, values interface{}) (Result, error) {
	if err := qb.check(OpCreate); err != nil {
		return Result{}, err
	}
	if err := checkValues(OpCreate, values); err != nil {
		return Result{}, err
	}
	return qb.dispatch(ctx, OpCreate, map[string]interface{}{
		"values": values,
	})
}

// Set replaces the sub-model list of a parent record
func (qb *QueryBuilder) Set(ctx context.Context, values interface{}, parentID string, returnTop bool) (Result, error) {
	return qb.subModel(ctx, OpSet, values, parentID, returnTop)
}

// Append adds entries to the sub-model list of a parent record
func (qb *QueryBuilder) Append(ctx context.Context, values interface{}, parentID string, returnTop bool) (Result, error) {
	return qb.subModel(ctx, OpAppend, values, parentID, returnTop)
}

func (qb *QueryBuilder) subModel(ctx context.Context, op string, values interface{}, parentID string, returnTop bool) (Result, error) {
	if err := qb.check(op); err != nil {
		return Result{}, err
	}
	if err := checkValues(op, values); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(parentID) == "" {
		return Result{}, newError(op, "parentId", ErrMissingValue, "parent id is required")
	}
	return qb.dispatch(ctx, op, map[string]interface{}{
		"values":    values,
		"parentId":  parentID,
		"returnTop": returnTop,
	})
}

// Get returns the records matching the query. With returnCountInfo the
// backend also reports the total count and page information.
func (qb *QueryBuilder) Get(ctx context.Context, returnCountInfo bool) (Result, error) {
	if err := qb.check(OpGet); err != nil {
		return Result{}, err
	}
	return qb.dispatch(ctx, OpGet, map[string]interface{}{
		"returnCountInfo": returnCountInfo,
	})
}

// Compute evaluates aggregations over the matching records
func (qb *QueryBuilder) Compute(ctx context.Context, computations ComputationSet) (Result, error) {
	if err := qb.check(OpCompute); err != nil {
		return Result{}, err
	}
	if computations == nil {
		return Result{}, newError(OpCompute, "computations", ErrMissingValue, "computations are required")
	}
	list := computations.computations()
	if len(list) == 0 {
		return Result{}, newError(OpCompute, "computations", ErrMissingValue, "computations are required")
	}
	for i, c := range list {
		if strings.TrimSpace(c.Name) == "" {
			return Result{}, newError(OpCompute, "computations", ErrMissingValue, "computation %d has no name", i)
		}
		if !computeKinds[c.Type] {
			return Result{}, newError(OpCompute, "computations", ErrInvalidEnum, "computation %q has unknown type %q", c.Name, c.Type)
		}
	}
	return qb.dispatch(ctx, OpCompute, map[string]interface{}{
		"computations": list,
	})
}

// GetSingle returns the first matching record
func (qb *QueryBuilder) GetSingle(ctx context.Context) (Result, error) {
	if err := qb.check(OpGetSingle); err != nil {
		return Result{}, err
	}
	return qb.dispatch(ctx, OpGetSingle, nil)
}

// GetRandom returns up to count randomly chosen matching records
func (qb *QueryBuilder) GetRandom(ctx context.Context, count int) (Result, error) {
	if err := qb.check(OpGetRandom); err != nil {
		return Result{}, err
	}
	if count <= 0 {
		return Result{}, newError(OpGetRandom, "count", ErrNotPositive, "got %d", count)
	}
	return qb.dispatch(ctx, OpGetRandom, map[string]interface{}{
		"count": count,
	})
}

// Update applies values to every record matching the filter. A filter is
// required.
func (qb *QueryBuilder) Update(ctx context.Context, values interface{}) (Result, error) {
	if err := qb.check(OpUpdate); err != nil {
		return Result{}, err
	}
	if err := qb.requireFilter(OpUpdate); err != nil {
		return Result{}, err
	}
	if err := checkValues(OpUpdate, values); err != nil {
		return Result{}, err
	}
	return qb.dispatch(ctx, OpUpdate, map[string]interface{}{
		"values": values,
	})
}

// UpdateFields applies field update instructions to every record matching
// the filter. A single FieldUpdate is sent as a one-element list.
func (qb *QueryBuilder) UpdateFields(ctx context.Context, updates FieldUpdateSet) (Result, error) {
	if err := qb.check(OpUpdateFields); err != nil {
		return Result{}, err
	}
	if err := qb.requireFilter(OpUpdateFields); err != nil {
		return Result{}, err
	}
	list, err := normalizeUpdates(OpUpdateFields, updates)
	if err != nil {
		return Result{}, err
	}
	return qb.dispatch(ctx, OpUpdateFields, map[string]interface{}{
		"fieldUpdates": list,
	})
}

// Delete removes every record matching the filter. A filter is required.
func (qb *QueryBuilder) Delete(ctx context.Context) (DeleteResult, error) {
	if err := qb.check(OpDelete); err != nil {
		return DeleteResult{}, err
	}
	if err := qb.requireFilter(OpDelete); err != nil {
		return DeleteResult{}, err
	}
	res, err := qb.dispatch(ctx, OpDelete, nil)
	if err != nil {
		return DeleteResult{}, err
	}
	return toDeleteResult(res), nil
}

// SearchText runs a full-text search within the query scope
func (qb *QueryBuilder) SearchText(ctx context.Context, text string, returnCountInfo bool) (Result, error) {
	if err := qb.check(OpSearchText); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, newError(OpSearchText, "text", ErrMissingValue, "search text is empty")
	}
	return qb.dispatch(ctx, OpSearchText, map[string]interface{}{
		"text":            text,
		"returnCountInfo": returnCountInfo,
	})
}

// SearchFuzzy runs an approximate match of text against one field
func (qb *QueryBuilder) SearchFuzzy(ctx context.Context, fieldName, text string) (Result, error) {
	if err := qb.check(OpSearchFuzzy); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(fieldName) == "" {
		return Result{}, newError(OpSearchFuzzy, "fieldName", ErrMissingValue, "field name is empty")
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, newError(OpSearchFuzzy, "text", ErrMissingValue, "search text is empty")
	}
	return qb.dispatch(ctx, OpSearchFuzzy, map[string]interface{}{
		"fieldName": fieldName,
		"text":      text,
	})
}

// Internal dispatch used by terminal operations

var cacheableOps = map[string]bool{
	OpGet:         true,
	OpGetSingle:   true,
	OpCompute:     true,
	OpSearchText:  true,
	OpSearchFuzzy: true,
}

func (qb *QueryBuilder) check(op string) error {
	if qb.err != nil {
		return qb.err
	}
	if qb.db == nil || qb.db.client == nil {
		return newError(op, "client", ErrMissingValue, "builder is not bound to a client")
	}
	return nil
}

func (qb *QueryBuilder) requireFilter(op string) error {
	if qb.desc.Expression == nil {
		return newError(op, "filter", ErrMissingFilter, "call Filter before %s", op)
	}
	return nil
}

func (qb *QueryBuilder) payload(extras map[string]interface{}) map[string]interface{} {
	body := map[string]interface{}{
		"model": qb.model,
		"query": qb.desc.clone(),
	}
	for k, v := range extras {
		body[k] = v
	}
	return body
}

func (qb *QueryBuilder) dispatch(ctx context.Context, op string, extras map[string]interface{}) (Result, error) {
	client := qb.db.client
	opts := &fetcher.RequestOptions{Operation: op}
	if cacheableOps[op] {
		opts.CacheTTL = client.cacheTTL
	}

	client.log.Debug("dispatching query",
		"db", qb.db.name,
		"model", qb.model,
		"operation", op,
	)

	res := client.transport.Post(ctx, qb.db.path(op), qb.payload(extras), opts)
	if msg, ok := encodingFailure(res); ok {
		return res, newError(op, "values", ErrWrongType, "%s", msg)
	}
	return res, nil
}

// encodingFailure reports a request body the transport could not encode.
// Only client-origin entries count; the same code sent by the backend is data.
func encodingFailure(res Result) (string, bool) {
	if res.Errors == nil {
		return "", false
	}
	for _, item := range res.Errors.Items {
		if item.Origin == fetcher.OriginClient && item.Code == fetcher.CodeInvalidBody {
			return item.Message, true
		}
	}
	return "", false
}

func normalizeUpdates(op string, updates FieldUpdateSet) ([]FieldUpdate, error) {
	if updates == nil {
		return nil, newError(op, "fieldUpdates", ErrMissingValue, "field updates are required")
	}
	list := updates.fieldUpdates()
	if len(list) == 0 {
		return nil, newError(op, "fieldUpdates", ErrMissingValue, "field updates are required")
	}
	for i, u := range list {
		if strings.TrimSpace(u.Field) == "" {
			return nil, newError(op, "fieldUpdates", ErrMissingValue, "update %d has no field", i)
		}
		if !updateKinds[u.Type] {
			return nil, newError(op, "fieldUpdates", ErrInvalidEnum, "update of %q has unknown type %q", u.Field, u.Type)
		}
	}
	return list, nil
}
