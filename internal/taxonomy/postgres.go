package taxonomy

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresIndex searches the occupations table with Postgres full-text
// search. Expected columns: code, title, description, synonyms jsonb,
// tasks jsonb, search_vector tsvector (title + description + synonyms).
type PostgresIndex struct{ DB *sql.DB }

func NewPostgresIndex(db *sql.DB) *PostgresIndex { return &PostgresIndex{DB: db} }

func (x *PostgresIndex) Search(ctx context.Context, query string, limit int) ([]Occupation, error) {
	const q = `
select code, title, description,
       coalesce(synonyms, '[]'::jsonb),
       coalesce(tasks, '[]'::jsonb)
from occupations
where search_vector @@ plainto_tsquery('english', $1)
order by ts_rank(search_vector, plainto_tsquery('english', $1)) desc, code
limit $2`

	recs, err := x.query(ctx, q, query, limit)
	if err != nil {
		return nil, err
	}
	if len(recs) > 0 {
		return recs, nil
	}

	// Single-word queries and abbreviations often miss the tsquery; a
	// substring match on the title keeps those from coming back empty.
	// Earlier match position ranks first so element 0 stays the most
	// relevant candidate.
	const fallback = `
select code, title, description,
       coalesce(synonyms, '[]'::jsonb),
       coalesce(tasks, '[]'::jsonb)
from occupations
where title ilike '%' || $1 || '%'
order by position(lower($1) in lower(title)), code
limit $2`
	return x.query(ctx, fallback, query, limit)
}

func (x *PostgresIndex) query(ctx context.Context, q, query string, limit int) ([]Occupation, error) {
	rows, err := x.DB.QueryContext(ctx, q, query, limit)
	if err != nil {
		return nil, fmt.Errorf("taxonomy search %q: %w", query, err)
	}
	defer rows.Close()

	var out []Occupation
	for rows.Next() {
		var (
			o        Occupation
			syn, tsk []byte
		)
		if err := rows.Scan(&o.Code, &o.Title, &o.Description, &syn, &tsk); err != nil {
			return nil, fmt.Errorf("taxonomy scan: %w", err)
		}
		if err := json.Unmarshal(syn, &o.Synonyms); err != nil {
			return nil, fmt.Errorf("taxonomy %s: bad synonyms json: %w", o.Code, err)
		}
		if err := json.Unmarshal(tsk, &o.Tasks); err != nil {
			return nil, fmt.Errorf("taxonomy %s: bad tasks json: %w", o.Code, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
