package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"socialcast/internal/models"
)

// PostgresContentStore reads content items, authors, terms and custom
// fields from the host's content database.
type PostgresContentStore struct {
	db *sql.DB
}

func NewPostgresContentStore(db *sql.DB) *PostgresContentStore {
	return &PostgresContentStore{db: db}
}

func (s *PostgresContentStore) Get(ctx context.Context, id int64) (*models.ContentItem, error) {
	query := `
		SELECT id, type, title, excerpt, body, permalink, short_url,
		       published_at, modified_at, author_id, status
		FROM content_items
		WHERE id = $1
	`
	var item models.ContentItem
	var shortURL sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.Type, &item.Title, &item.Excerpt, &item.Body,
		&item.Permalink, &shortURL, &item.PublishedAt, &item.ModifiedAt,
		&item.AuthorID, &item.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	item.ShortURL = shortURL.String
	return &item, nil
}

func (s *PostgresContentStore) Author(ctx context.Context, id int64) (*models.Author, error) {
	query := `
		SELECT id, login, display_name, email, url
		FROM authors
		WHERE id = $1
	`
	var a models.Author
	var email, url sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Login, &a.DisplayName, &email, &url)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Email = email.String
	a.URL = url.String

	rows, err := s.db.QueryContext(ctx, `SELECT role FROM author_roles WHERE author_id = $1 ORDER BY role`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		a.Roles = append(a.Roles, role)
	}
	return &a, rows.Err()
}

func (s *PostgresContentStore) Terms(ctx context.Context, id int64, taxonomy string) ([]models.Term, error) {
	query := `
		SELECT t.id, t.name
		FROM terms t
		JOIN item_terms it ON it.term_id = t.id
		WHERE it.item_id = $1 AND t.taxonomy = $2
		ORDER BY it.position
	`
	rows, err := s.db.QueryContext(ctx, query, id, taxonomy)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var terms []models.Term
	for rows.Next() {
		var t models.Term
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

func (s *PostgresContentStore) Field(ctx context.Context, id int64, key string) (interface{}, error) {
	return s.fieldValue(ctx, `SELECT value FROM item_fields WHERE item_id = $1 AND key = $2`, id, key)
}

func (s *PostgresContentStore) AuthorField(ctx context.Context, authorID int64, key string) (interface{}, error) {
	return s.fieldValue(ctx, `SELECT value FROM author_fields WHERE author_id = $1 AND key = $2`, authorID, key)
}

// fieldValue returns nil for absent fields. Values are stored as text;
// JSON objects and arrays decode into maps/slices so nested paths can be
// descended, anything else stays a string.
func (s *PostgresContentStore) fieldValue(ctx context.Context, query string, ownerID int64, key string) (interface{}, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, ownerID, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	trimmed := string(raw)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		var decoded interface{}
		if json.Unmarshal(raw, &decoded) == nil {
			return decoded, nil
		}
	}
	return trimmed, nil
}
