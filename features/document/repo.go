package document

import (
	"context"
	"database/sql"
	"errors"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Save(ctx context.Context, doc *Document) error {
	query := `INSERT INTO documents (name, kind, source_url, content) VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, doc.Name, doc.Kind, doc.SourceURL, doc.Content).
		Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
}

func (r *PostgresRepo) Update(ctx context.Context, doc *Document) error {
	query := `UPDATE documents SET name = $1, content = $2, updated_at = NOW() WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, doc.Name, doc.Content, doc.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Document, error) {
	doc := &Document{}
	query := `SELECT id, name, kind, COALESCE(source_url, ''), content, created_at, updated_at FROM documents WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&doc.ID, &doc.Name, &doc.Kind, &doc.SourceURL, &doc.Content, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *PostgresRepo) GetContent(ctx context.Context, id string) (string, error) {
	var content string
	query := `SELECT content FROM documents WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return content, err
}

func (r *PostgresRepo) Page(ctx context.Context, params PageParams) (*PageResult, error) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 10
	}
	keyword := "%" + params.Keyword + "%"

	var total int
	countQuery := `SELECT COUNT(*) FROM documents WHERE name LIKE $1`
	if err := r.db.QueryRowContext(ctx, countQuery, keyword).Scan(&total); err != nil {
		return nil, err
	}

	query := `SELECT id, name, kind, COALESCE(source_url, ''), created_at, updated_at
		FROM documents WHERE name LIKE $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, keyword, params.PageSize, (params.Page-1)*params.PageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := &PageResult{Total: total}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Name, &d.Kind, &d.SourceURL, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		result.Items = append(result.Items, d)
	}
	return result, rows.Err()
}

func (r *PostgresRepo) ListIDs(ctx context.Context) ([]Document, error) {
	query := `SELECT id, name, kind FROM documents ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Name, &d.Kind); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}
