// Package taxonomy gives read access to the occupation reference data:
// the record type, the search contract the classification agent consumes,
// and two implementations of it (Postgres for production, in-memory for
// tests and file-backed runs). The schema and the importer that fills it
// belong to the reference-data pipeline, not to this package.
package taxonomy

import "context"

// Occupation is one entry of the reference taxonomy. Records are owned by
// the external store; this package only reads them.
type Occupation struct {
	Code        string   `json:"code"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Synonyms    []string `json:"synonyms,omitempty"`
	Tasks       []string `json:"tasks,omitempty"`
}

// Index is the candidate search contract. Search returns up to limit
// occupations ranked by relevance to query. The ordering must be stable
// for identical index state and query. An empty result is valid, not an
// error.
type Index interface {
	Search(ctx context.Context, query string, limit int) ([]Occupation, error)
}
