// Package search passes CoMIT queries through to Solr.
package search

import "context"

// Backend runs queries against a search index.
type Backend interface {
	// Search runs a select query against one core
	Search(ctx context.Context, query Query) (*Results, error)

	// Fields lists the fields a core knows about
	Fields(ctx context.Context, core string) ([]Field, error)
}

// Query represents a search request
type Query struct {
	Core    string   `json:"core"`
	Q       string   `json:"q"`
	Filters []string `json:"filters,omitempty"`
	Sort    string   `json:"sort,omitempty"`
	Start   int      `json:"start,omitempty"`
	Rows    int      `json:"rows,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// Results contains search results
type Results struct {
	NumFound int                      `json:"num_found"`
	Start    int                      `json:"start"`
	QTime    int                      `json:"qtime_ms"`
	Docs     []map[string]interface{} `json:"docs"`
}

// Field describes one indexed field.
type Field struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Schema string `json:"schema,omitempty"`
	Docs   int    `json:"docs,omitempty"`
}
