package flin

import (
	"context"
	"strings"

	"github.com/skshohagmiah/flinbase/pkg/fetcher"
)

// ObjectHandle addresses a single record of a model by id. The id and the
// omit list are fixed when the handle is created.
type ObjectHandle struct {
	db    *Database
	model string
	id    string
	omit  []string
}

// ID returns the record id, empty for a creation handle
func (h *ObjectHandle) ID() string {
	return h.id
}

// Model returns the model name
func (h *ObjectHandle) Model() string {
	return h.model
}

// Get fetches the record. Arguments are resolved as:
//
//	Get(ctx)
//	Get(ctx, lookups)            // Lookups or []LookupSpec
//	Get(ctx, lookups, options)   // options is Options or map[string]interface{}
//	Get(ctx, options)
//
// A list is always taken as the lookups; anything else is ErrWrongType.
func (h *ObjectHandle) Get(ctx context.Context, args ...interface{}) (Result, error) {
	const op = "object.get"
	if err := h.requireID(op); err != nil {
		return Result{}, err
	}
	lookups, opts, err := resolveGetArgs(op, args)
	if err != nil {
		return Result{}, err
	}
	merged := MergeOptions(DefaultObjectOptions(), opts)
	return h.dispatch(ctx, OpGet, merged, map[string]interface{}{
		"lookups": lookups,
	})
}

// Create inserts values as a new record. The handle id is ignored.
func (h *ObjectHandle) Create(ctx context.Context, values interface{}, opts ...Options) (Result, error) {
	const op = "object.create"
	if err := checkValues(op, values); err != nil {
		return Result{}, err
	}
	return h.dispatch(ctx, OpCreate, MergeOptions(DefaultObjectOptions(), opts...), map[string]interface{}{
		"values": values,
	})
}

// Set replaces the sub-model list under parentID
func (h *ObjectHandle) Set(ctx context.Context, values interface{}, parentID string, opts ...Options) (Result, error) {
	return h.subModel(ctx, OpSet, values, parentID, opts)
}

// Append adds entries to the sub-model list under parentID
func (h *ObjectHandle) Append(ctx context.Context, values interface{}, parentID string, opts ...Options) (Result, error) {
	return h.subModel(ctx, OpAppend, values, parentID, opts)
}

func (h *ObjectHandle) subModel(ctx context.Context, operation string, values interface{}, parentID string, opts []Options) (Result, error) {
	op := "object." + operation
	if err := checkValues(op, values); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(parentID) == "" {
		return Result{}, newError(op, "parentId", ErrMissingValue, "parent id is required")
	}
	return h.dispatch(ctx, operation, MergeOptions(DefaultObjectOptions(), opts...), map[string]interface{}{
		"values":   values,
		"parentId": parentID,
	})
}

// Update applies values to the record
func (h *ObjectHandle) Update(ctx context.Context, values interface{}, opts ...Options) (Result, error) {
	const op = "object.update"
	if err := h.requireID(op); err != nil {
		return Result{}, err
	}
	if err := checkValues(op, values); err != nil {
		return Result{}, err
	}
	return h.dispatch(ctx, OpUpdate, MergeOptions(DefaultObjectOptions(), opts...), map[string]interface{}{
		"values": values,
	})
}

// UpdateFields applies field update instructions to the record
func (h *ObjectHandle) UpdateFields(ctx context.Context, updates FieldUpdateSet, opts ...Options) (Result, error) {
	const op = "object.updateFields"
	if err := h.requireID(op); err != nil {
		return Result{}, err
	}
	list, err := normalizeUpdates(op, updates)
	if err != nil {
		return Result{}, err
	}
	return h.dispatch(ctx, OpUpdateFields, MergeOptions(DefaultObjectOptions(), opts...), map[string]interface{}{
		"fieldUpdates": list,
	})
}

// Delete removes the record
func (h *ObjectHandle) Delete(ctx context.Context, opts ...Options) (DeleteResult, error) {
	const op = "object.delete"
	if err := h.requireID(op); err != nil {
		return DeleteResult{}, err
	}
	res, err := h.dispatch(ctx, OpDelete, MergeOptions(DefaultObjectOptions(), opts...), nil)
	if err != nil {
		return DeleteResult{}, err
	}
	return toDeleteResult(res), nil
}

func (h *ObjectHandle) requireID(op string) error {
	if strings.TrimSpace(h.id) == "" {
		return newError(op, "id", ErrMissingValue, "record id is required")
	}
	return nil
}

func (h *ObjectHandle) dispatch(ctx context.Context, operation string, options Options, extras map[string]interface{}) (Result, error) {
	op := "object." + operation
	if h.db == nil || h.db.client == nil {
		return Result{}, newError(op, "client", ErrMissingValue, "handle is not bound to a client")
	}
	if strings.TrimSpace(h.model) == "" {
		return Result{}, newError(op, "model", ErrMissingValue, "model name is required")
	}
	client := h.db.client

	body := map[string]interface{}{
		"model":   h.model,
		"omit":    cloneSlice(h.omit),
		"options": options,
	}
	if h.id != "" {
		body["id"] = h.id
	}
	for k, v := range extras {
		body[k] = v
	}

	opts := &fetcher.RequestOptions{Operation: op}
	if operation == OpGet {
		opts.CacheTTL = options.cacheTTL()
	}

	client.log.Debug("dispatching object request",
		"db", h.db.name,
		"model", h.model,
		"id", h.id,
		"operation", op,
	)

	res := client.transport.Post(ctx, h.db.objectPath(operation), body, opts)
	if msg, ok := encodingFailure(res); ok {
		return res, newError(op, "values", ErrWrongType, "%s", msg)
	}
	return res, nil
}

func resolveGetArgs(op string, args []interface{}) ([]LookupSpec, Options, error) {
	if len(args) == 0 {
		return nil, nil, nil
	}
	if len(args) > 2 {
		return nil, nil, newError(op, "args", ErrWrongType, "expected at most lookups and options, got %d arguments", len(args))
	}

	var lookups []LookupSpec
	switch first := args[0].(type) {
	case nil:
	case Lookups:
		lookups = first
	case []LookupSpec:
		lookups = first
	default:
		// Not a list: the only argument taken is the options object
		opts, ok := asOptions(first)
		if !ok {
			return nil, nil, newError(op, "lookups", ErrWrongType, "got %T, want lookups or options", first)
		}
		return nil, opts, nil
	}

	for _, l := range lookups {
		if err := checkLookup(op, l); err != nil {
			return nil, nil, err
		}
	}

	if len(args) < 2 || args[1] == nil {
		return lookups, nil, nil
	}
	opts, ok := asOptions(args[1])
	if !ok {
		return nil, nil, newError(op, "options", ErrWrongType, "got %T, want options", args[1])
	}
	return lookups, opts, nil
}

func asOptions(v interface{}) (Options, bool) {
	switch o := v.(type) {
	case Options:
		return o, true
	case map[string]interface{}:
		return Options(o), true
	}
	return nil, false
}
