package graphstore

import (
	"context"
	"database/sql"

	"cineqa/internal/fusion"
)

// PostgresStore keeps the knowledge graph in two relational tables: nodes
// unique by name, edges unique by (subject, predicate, object). ON CONFLICT
// DO NOTHING gives merge-create semantics, so concurrent commits of
// overlapping triples need no external locking.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) MergeNode(ctx context.Context, name string) error {
	query := `INSERT INTO kg_nodes (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	_, err := s.db.ExecContext(ctx, query, name)
	return err
}

func (s *PostgresStore) MergeEdge(ctx context.Context, subject, predicate, object, documentID string) error {
	query := `
		INSERT INTO kg_edges (subject_id, predicate, object_id, document_id)
		SELECT s.id, $2, o.id, NULLIF($4, '')
		FROM kg_nodes s, kg_nodes o
		WHERE s.name = $1 AND o.name = $3
		ON CONFLICT (subject_id, predicate, object_id) DO NOTHING`
	_, err := s.db.ExecContext(ctx, query, subject, predicate, object, documentID)
	return err
}

// Match returns every directed edge where either endpoint's name contains the
// keyword as a substring. LIKE is case-sensitive in Postgres, which is the
// containment policy wanted here: a lookup for 七号房 matches 七号房的礼物.
func (s *PostgresStore) Match(ctx context.Context, keyword string, limit int) ([]fusion.Triple, error) {
	query := `
		SELECT s.name, e.predicate, o.name
		FROM kg_edges e
		JOIN kg_nodes s ON e.subject_id = s.id
		JOIN kg_nodes o ON e.object_id = o.id
		WHERE s.name LIKE '%' || $1 || '%' OR o.name LIKE '%' || $1 || '%'
		ORDER BY e.created_at, e.id
		LIMIT $2`
	rows, err := s.db.QueryContext(ctx, query, keyword, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triples []fusion.Triple
	for rows.Next() {
		var t fusion.Triple
		if err := rows.Scan(&t.Subject, &t.Predicate, &t.Object); err != nil {
			return nil, err
		}
		triples = append(triples, t)
	}
	return triples, rows.Err()
}
