// Package schedule resolves a symbolic schedule spec into a provider
// queue hint or an absolute UTC timestamp.
package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"socialcast/internal/models"
	"socialcast/internal/store"
)

// Resolver turns a ScheduleSpec into a ScheduleInstruction. Site is the
// site-local timezone; weekday, time-of-day and absolute specs are
// authored in it and converted to UTC exactly once here.
type Resolver struct {
	content store.ContentStore
	site    *time.Location
	now     func() time.Time
}

func NewResolver(content store.ContentStore, site *time.Location) *Resolver {
	if site == nil {
		site = time.UTC
	}
	return &Resolver{content: content, site: site, now: time.Now}
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Resolve computes the send instruction for one payload. Queue modes
// return a hint with no timestamp; every timestamped path returns UTC.
func (r *Resolver) Resolve(ctx context.Context, spec models.ScheduleSpec, item *models.ContentItem, action models.Action) (models.ScheduleInstruction, error) {
	switch spec.Mode {
	case models.ScheduleQueueTail, "":
		return models.ScheduleInstruction{QueueHint: "bottom"}, nil
	case models.ScheduleQueueHead:
		return models.ScheduleInstruction{QueueHint: "top"}, nil
	case models.ScheduleImmediate:
		return models.ScheduleInstruction{}, nil
	case models.ScheduleRelative:
		base := r.baseDate(item, action)
		return utcAt(applyOffset(base, spec)), nil
	case models.ScheduleWeekday:
		at, err := r.nextWeekday(spec)
		if err != nil {
			return models.ScheduleInstruction{}, err
		}
		return utcAt(at), nil
	case models.ScheduleCustomField:
		at, err := r.fromField(ctx, spec, item)
		if err != nil {
			return models.ScheduleInstruction{}, err
		}
		return utcAt(at), nil
	case models.ScheduleAbsolute:
		at, err := time.ParseInLocation("2006-01-02 15:04", spec.At, r.site)
		if err != nil {
			return models.ScheduleInstruction{}, fmt.Errorf("schedule: bad absolute time %q: %w", spec.At, err)
		}
		return utcAt(at), nil
	default:
		return models.ScheduleInstruction{}, fmt.Errorf("schedule: unknown mode %q", spec.Mode)
	}
}

// baseDate picks the anchor for relative offsets: the publish date for a
// publish, the modification date for an update, and now for repost and
// bulk actions.
func (r *Resolver) baseDate(item *models.ContentItem, action models.Action) time.Time {
	switch action {
	case models.ActionPublish:
		if !item.PublishedAt.IsZero() {
			return item.PublishedAt
		}
	case models.ActionUpdate:
		if !item.ModifiedAt.IsZero() {
			return item.ModifiedAt
		}
	}
	return r.now()
}

func applyOffset(base time.Time, spec models.ScheduleSpec) time.Time {
	d := time.Duration(spec.Days)*24*time.Hour +
		time.Duration(spec.Hours)*time.Hour +
		time.Duration(spec.Minutes)*time.Minute
	return base.Add(d)
}

// nextWeekday resolves "next <weekday> at HH:MM" in the site timezone.
// "today" keeps the current day even when the time has already passed;
// "tomorrow" is the next day; a named weekday advances to its next
// occurrence strictly after today.
func (r *Resolver) nextWeekday(spec models.ScheduleSpec) (time.Time, error) {
	hour, minute, err := parseClock(spec.TimeOfDay)
	if err != nil {
		return time.Time{}, err
	}

	now := r.now().In(r.site)
	day := now
	switch name := strings.ToLower(spec.Weekday); name {
	case "today", "":
	case "tomorrow":
		day = day.AddDate(0, 0, 1)
	default:
		target, ok := weekdays[name]
		if !ok {
			return time.Time{}, fmt.Errorf("schedule: unknown weekday %q", spec.Weekday)
		}
		ahead := (int(target) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		day = day.AddDate(0, 0, ahead)
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, r.site), nil
}

func parseClock(s string) (int, int, error) {
	ts, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule: bad time of day %q: %w", s, err)
	}
	return ts.Hour(), ts.Minute(), nil
}

// fromField reads a date from a custom field and shifts it by the spec
// offset, before or after the field's value per the relation.
func (r *Resolver) fromField(ctx context.Context, spec models.ScheduleSpec, item *models.ContentItem) (time.Time, error) {
	raw, err := r.content.Field(ctx, item.ID, spec.FieldKey)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: field %q: %w", spec.FieldKey, err)
	}
	if raw == nil {
		return time.Time{}, fmt.Errorf("schedule: field %q is not set", spec.FieldKey)
	}

	base, err := parseFieldDate(fmt.Sprintf("%v", raw), r.site)
	if err != nil {
		return time.Time{}, err
	}

	shifted := applyOffset(base, spec)
	if strings.EqualFold(spec.Relation, "before") {
		shifted = base.Add(-shifted.Sub(base))
	}
	return shifted, nil
}

var fieldDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
}

func parseFieldDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range fieldDateLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("schedule: unparseable field date %q", s)
}

func utcAt(ts time.Time) models.ScheduleInstruction {
	return models.ScheduleInstruction{At: ts.UTC()}
}
