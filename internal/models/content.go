package models

import "time"

// LifecycleStatus is the publication state of a content item as reported
// by the content store.
type LifecycleStatus string

const (
	StatusPublish   LifecycleStatus = "publish"
	StatusFuture    LifecycleStatus = "future"
	StatusDraft     LifecycleStatus = "draft"
	StatusAutoDraft LifecycleStatus = "auto-draft"
	StatusPending   LifecycleStatus = "pending"
	StatusTrash     LifecycleStatus = "trash"
	StatusInherit   LifecycleStatus = "inherit"
)

// Suppressed reports whether a status never produces a dispatch.
func (s LifecycleStatus) Suppressed() bool {
	switch s {
	case StatusDraft, StatusAutoDraft, StatusTrash, StatusInherit:
		return true
	}
	return false
}

// Transport identifies how the authoring signal reached us. The
// deferred-metadata transport delivers item data in two signals with
// metadata lagging behind the first; the API transport has the data but
// needs a late hook before metadata persistence is guaranteed.
type Transport string

const (
	TransportDirect       Transport = "direct"
	TransportDeferredMeta Transport = "deferred-metadata"
	TransportAPI          Transport = "api"
)

// ContentItem is one publishable item read from the content store. The
// engine never mutates it and only holds it for the duration of a single
// dispatch call.
type ContentItem struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Excerpt     string          `json:"excerpt"`
	Body        string          `json:"body"`
	Permalink   string          `json:"permalink"`
	ShortURL    string          `json:"short_url"`
	PublishedAt time.Time       `json:"published_at"`
	ModifiedAt  time.Time       `json:"modified_at"`
	AuthorID    int64           `json:"author_id"`
	Status      LifecycleStatus `json:"status"`
}

// Author is the read-only author record attached to a content item.
type Author struct {
	ID          int64                  `json:"id"`
	Login       string                 `json:"login"`
	DisplayName string                 `json:"display_name"`
	Email       string                 `json:"email"`
	URL         string                 `json:"url"`
	Roles       []string               `json:"roles"`
	Fields      map[string]interface{} `json:"fields,omitempty"`
}

// HasRole reports whether the author carries the given role.
func (a *Author) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Term is one taxonomy term assigned to a content item.
type Term struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Profile is a configured destination social account supplied by the
// profile directory.
type Profile struct {
	ID               string `json:"id"`
	Service          string `json:"service"`
	FormattedService string `json:"formatted_service"`
	Username         string `json:"username"`
	Enabled          bool   `json:"enabled"`
}
