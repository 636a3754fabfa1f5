package schedule

import (
	"context"
	"testing"
	"time"

	"socialcast/internal/models"
	"socialcast/internal/store"
)

type fieldStore struct {
	fields map[string]interface{}
}

func (s *fieldStore) Get(ctx context.Context, id int64) (*models.ContentItem, error) {
	return nil, store.ErrNotFound
}

func (s *fieldStore) Author(ctx context.Context, id int64) (*models.Author, error) {
	return nil, store.ErrNotFound
}

func (s *fieldStore) Terms(ctx context.Context, id int64, taxonomy string) ([]models.Term, error) {
	return nil, nil
}

func (s *fieldStore) Field(ctx context.Context, id int64, key string) (interface{}, error) {
	return s.fields[key], nil
}

func (s *fieldStore) AuthorField(ctx context.Context, authorID int64, key string) (interface{}, error) {
	return nil, nil
}

func newTestResolver(site *time.Location, now time.Time, fields map[string]interface{}) *Resolver {
	r := NewResolver(&fieldStore{fields: fields}, site)
	r.now = func() time.Time { return now }
	return r
}

func schedItem() *models.ContentItem {
	return &models.ContentItem{
		ID:          5,
		PublishedAt: time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC),
		ModifiedAt:  time.Date(2024, 9, 2, 8, 30, 0, 0, time.UTC),
	}
}

func TestResolveQueueHints(t *testing.T) {
	r := newTestResolver(time.UTC, time.Now(), nil)
	got, err := r.Resolve(context.Background(), models.ScheduleSpec{Mode: models.ScheduleQueueTail}, schedItem(), models.ActionPublish)
	if err != nil || got.QueueHint != "bottom" || !got.At.IsZero() {
		t.Fatalf("queue tail: got %+v, err %v", got, err)
	}
	got, err = r.Resolve(context.Background(), models.ScheduleSpec{Mode: models.ScheduleQueueHead}, schedItem(), models.ActionPublish)
	if err != nil || got.QueueHint != "top" {
		t.Fatalf("queue head: got %+v, err %v", got, err)
	}
}

func TestResolveImmediate(t *testing.T) {
	r := newTestResolver(time.UTC, time.Now(), nil)
	got, err := r.Resolve(context.Background(), models.ScheduleSpec{Mode: models.ScheduleImmediate}, schedItem(), models.ActionPublish)
	if err != nil || got.QueueHint != "" || !got.At.IsZero() {
		t.Fatalf("immediate: got %+v, err %v", got, err)
	}
}

func TestResolveRelativeAnchorsByAction(t *testing.T) {
	now := time.Date(2024, 9, 10, 12, 0, 0, 0, time.UTC)
	r := newTestResolver(time.UTC, now, nil)
	spec := models.ScheduleSpec{Mode: models.ScheduleRelative, Days: 1, Hours: 2, Minutes: 30}

	tests := []struct {
		action models.Action
		want   time.Time
	}{
		{models.ActionPublish, time.Date(2024, 9, 2, 12, 30, 0, 0, time.UTC)},
		{models.ActionUpdate, time.Date(2024, 9, 3, 11, 0, 0, 0, time.UTC)},
		{models.ActionRepost, now.Add(26*time.Hour + 30*time.Minute)},
		{models.ActionBulk, now.Add(26*time.Hour + 30*time.Minute)},
	}
	for _, tc := range tests {
		got, err := r.Resolve(context.Background(), spec, schedItem(), tc.action)
		if err != nil {
			t.Fatalf("%s: %v", tc.action, err)
		}
		if !got.At.Equal(tc.want) {
			t.Errorf("%s: got %v, want %v", tc.action, got.At, tc.want)
		}
	}
}

func TestResolveWeekday(t *testing.T) {
	// A Tuesday in the site timezone.
	site := time.FixedZone("UTC+2", 2*3600)
	now := time.Date(2024, 9, 10, 15, 0, 0, 0, site)
	r := newTestResolver(site, now, nil)

	tests := []struct {
		weekday string
		want    time.Time
	}{
		{"friday", time.Date(2024, 9, 13, 9, 0, 0, 0, site)},
		{"tuesday", time.Date(2024, 9, 17, 9, 0, 0, 0, site)},
		{"today", time.Date(2024, 9, 10, 9, 0, 0, 0, site)},
		{"tomorrow", time.Date(2024, 9, 11, 9, 0, 0, 0, site)},
	}
	for _, tc := range tests {
		spec := models.ScheduleSpec{Mode: models.ScheduleWeekday, Weekday: tc.weekday, TimeOfDay: "09:00"}
		got, err := r.Resolve(context.Background(), spec, schedItem(), models.ActionPublish)
		if err != nil {
			t.Fatalf("%s: %v", tc.weekday, err)
		}
		if !got.At.Equal(tc.want.UTC()) {
			t.Errorf("%s: got %v, want %v", tc.weekday, got.At, tc.want.UTC())
		}
	}
}

func TestResolveCustomFieldRelation(t *testing.T) {
	fields := map[string]interface{}{"event_date": "2024-10-01 18:00"}
	r := newTestResolver(time.UTC, time.Now(), fields)

	after := models.ScheduleSpec{Mode: models.ScheduleCustomField, FieldKey: "event_date", Relation: "after", Hours: 2}
	got, err := r.Resolve(context.Background(), after, schedItem(), models.ActionPublish)
	if err != nil {
		t.Fatalf("after: %v", err)
	}
	if want := time.Date(2024, 10, 1, 20, 0, 0, 0, time.UTC); !got.At.Equal(want) {
		t.Fatalf("after: got %v, want %v", got.At, want)
	}

	before := models.ScheduleSpec{Mode: models.ScheduleCustomField, FieldKey: "event_date", Relation: "before", Days: 1}
	got, err = r.Resolve(context.Background(), before, schedItem(), models.ActionPublish)
	if err != nil {
		t.Fatalf("before: %v", err)
	}
	if want := time.Date(2024, 9, 30, 18, 0, 0, 0, time.UTC); !got.At.Equal(want) {
		t.Fatalf("before: got %v, want %v", got.At, want)
	}
}

func TestResolveCustomFieldMissing(t *testing.T) {
	r := newTestResolver(time.UTC, time.Now(), map[string]interface{}{})
	spec := models.ScheduleSpec{Mode: models.ScheduleCustomField, FieldKey: "event_date"}
	if _, err := r.Resolve(context.Background(), spec, schedItem(), models.ActionPublish); err == nil {
		t.Fatal("expected error for unset field")
	}
}

func TestResolveAbsoluteNormalizesToUTC(t *testing.T) {
	site := time.FixedZone("UTC+1", 3600)
	r := newTestResolver(site, time.Now(), nil)
	spec := models.ScheduleSpec{Mode: models.ScheduleAbsolute, At: "2024-09-01 13:00"}

	got, err := r.Resolve(context.Background(), spec, schedItem(), models.ActionPublish)
	if err != nil {
		t.Fatalf("absolute: %v", err)
	}
	want := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	if !got.At.Equal(want) || got.At.Location() != time.UTC {
		t.Fatalf("absolute: got %v, want %v", got.At, want)
	}
}

func TestResolveUnknownMode(t *testing.T) {
	r := newTestResolver(time.UTC, time.Now(), nil)
	if _, err := r.Resolve(context.Background(), models.ScheduleSpec{Mode: "lunar"}, schedItem(), models.ActionPublish); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
