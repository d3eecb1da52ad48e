package flin

import "net/url"

// Database scopes requests to one database of the backend
type Database struct {
	client *Client
	name   string
}

// Name returns the database name
func (d *Database) Name() string {
	return d.name
}

// Model returns a fresh query builder for the named model
func (d *Database) Model(name string) *QueryBuilder {
	return newQueryBuilder(d, name)
}

// Object returns a handle on one record of model. Pass an empty id for a
// handle used only to create records.
func (d *Database) Object(model, id string) *ObjectHandle {
	return &ObjectHandle{db: d, model: model, id: id}
}

func (d *Database) path(operation string) string {
	return "/" + url.PathEscape(d.name) + "/db/" + operation
}

func (d *Database) objectPath(operation string) string {
	return "/" + url.PathEscape(d.name) + "/db/object/" + operation
}
