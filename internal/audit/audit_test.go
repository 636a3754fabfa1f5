package audit

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"socialcast/internal/models"
	"socialcast/pkg/logging"
)

func TestRecordInsertsEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO dispatch_log").
		WithArgs(int64(42), "publish", "p1", "success", "queued", "Hello", nil, nil, ts).
		WillReturnResult(sqlmock.NewResult(1, 1))

	l := NewLog(db, true, logging.NewLoggerWithService("herald"))
	err = l.Record(context.Background(), 42, models.DispatchResult{
		Action:    models.ActionPublish,
		Timestamp: ts,
		ProfileID: "p1",
		Kind:      models.ResultSuccess,
		Message:   "queued",
		Text:      "Hello",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRecordDisabledSkipsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	l := NewLog(db, false, logging.NewLoggerWithService("herald"))
	if l.Enabled() {
		t.Fatal("expected disabled log")
	}
	if err := l.Record(context.Background(), 42, models.DispatchResult{}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
