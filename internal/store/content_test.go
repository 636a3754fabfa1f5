package store

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestContentGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	published := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "type", "title", "excerpt", "body", "permalink", "short_url",
		"published_at", "modified_at", "author_id", "status",
	}).AddRow(42, "post", "Hello", "short", "body", "https://example.com/hello", "https://sh.rt/x", published, published, 7, "publish")
	mock.ExpectQuery("SELECT id, type, title").WithArgs(int64(42)).WillReturnRows(rows)

	item, err := NewPostgresContentStore(db).Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item.Title != "Hello" || item.ShortURL != "https://sh.rt/x" || item.AuthorID != 7 {
		t.Fatalf("unexpected item %+v", item)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestContentGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT id, type, title").WithArgs(int64(99)).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewPostgresContentStore(db).Get(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestContentAuthorWithRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT id, login, display_name").WithArgs(int64(7)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "login", "display_name", "email", "url"}).
			AddRow(7, "jdoe", "Jane Doe", "j@example.com", nil))
	mock.ExpectQuery("SELECT role FROM author_roles").WithArgs(int64(7)).WillReturnRows(
		sqlmock.NewRows([]string{"role"}).AddRow("author").AddRow("editor"))

	a, err := NewPostgresContentStore(db).Author(context.Background(), 7)
	if err != nil {
		t.Fatalf("author: %v", err)
	}
	if a.DisplayName != "Jane Doe" || len(a.Roles) != 2 || a.Roles[1] != "editor" {
		t.Fatalf("unexpected author %+v", a)
	}
}

func TestContentTerms(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT t.id, t.name").WithArgs(int64(42), "category").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Deals").AddRow(2, "News"))

	terms, err := NewPostgresContentStore(db).Terms(context.Background(), 42, "category")
	if err != nil {
		t.Fatalf("terms: %v", err)
	}
	if len(terms) != 2 || terms[0].Name != "Deals" {
		t.Fatalf("unexpected terms %+v", terms)
	}
}

func TestContentFieldDecodesJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT value FROM item_fields").WithArgs(int64(42), "meta").WillReturnRows(
		sqlmock.NewRows([]string{"value"}).AddRow(`{"a":{"b":"deep"}}`))

	raw, err := NewPostgresContentStore(db).Field(context.Background(), 42, "meta")
	if err != nil {
		t.Fatalf("field: %v", err)
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		t.Fatalf("expected decoded map, got %T", raw)
	}
	inner := m["a"].(map[string]interface{})
	if inner["b"] != "deep" {
		t.Fatalf("unexpected nested value %v", inner["b"])
	}
}

func TestContentFieldAbsentIsNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT value FROM item_fields").WithArgs(int64(42), "missing").WillReturnRows(
		sqlmock.NewRows([]string{"value"}))

	raw, err := NewPostgresContentStore(db).Field(context.Background(), 42, "missing")
	if err != nil {
		t.Fatalf("field: %v", err)
	}
	if raw != nil {
		t.Fatalf("expected nil for absent field, got %v", raw)
	}
}
