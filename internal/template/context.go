package template

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"socialcast/internal/models"
	"socialcast/internal/store"
)

// ContextOptions tunes how the render context derives tag values.
type ContextOptions struct {
	// ExcerptFallbackToBody derives the excerpt tag from the body when
	// the item has no authored excerpt.
	ExcerptFallbackToBody bool
	// CutMarker ends the excerpt_cut tag's slice of the body.
	CutMarker string
	// DateFormat renders the date tag. Defaults to "2006-01-02 15:04".
	DateFormat string
	// Location is the site timezone used for date rendering.
	Location *time.Location
}

// RenderContext is the per-content-item tag table. Plain content and
// author tags are built once; custom-field, author-field and taxonomy
// tags resolve lazily against the content store and are memoized, so
// repeated tags across the many statuses rendered for one item are free.
// A context is never reused across items or persisted beyond one
// dispatch call.
type RenderContext struct {
	item    *models.ContentItem
	author  *models.Author
	content store.ContentStore
	opts    ContextOptions

	values map[string]string
}

// NewRenderContext builds the tag table for one content item.
func NewRenderContext(item *models.ContentItem, author *models.Author, content store.ContentStore, opts ContextOptions) *RenderContext {
	if opts.DateFormat == "" {
		opts.DateFormat = "2006-01-02 15:04"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.CutMarker == "" {
		opts.CutMarker = "<!--more-->"
	}

	rc := &RenderContext{
		item:    item,
		author:  author,
		content: content,
		opts:    opts,
		values:  make(map[string]string),
	}
	rc.seed()
	return rc
}

func (rc *RenderContext) seed() {
	it := rc.item
	rc.values["title"] = it.Title
	rc.values["content"] = it.Body
	rc.values["url"] = it.Permalink
	rc.values["permalink"] = it.Permalink
	rc.values["short_url"] = it.ShortURL
	rc.values["id"] = strconv.FormatInt(it.ID, 10)
	rc.values["date"] = it.PublishedAt.In(rc.opts.Location).Format(rc.opts.DateFormat)

	excerpt := it.Excerpt
	if excerpt == "" && rc.opts.ExcerptFallbackToBody {
		excerpt = it.Body
	}
	rc.values["excerpt"] = excerpt

	cut := it.Body
	if idx := strings.Index(cut, rc.opts.CutMarker); idx >= 0 {
		cut = cut[:idx]
	}
	rc.values["excerpt_cut"] = cut

	if a := rc.author; a != nil {
		rc.values["author_display_name"] = a.DisplayName
		rc.values["author_login"] = a.Login
		rc.values["author_email"] = a.Email
		rc.values["author_url"] = a.URL
	}
}

// Resolve returns the raw value for a base tag. termLimit caps taxonomy
// term lists when positive; other tags ignore it. The second return is
// false for tags the context does not know.
func (rc *RenderContext) Resolve(ctx context.Context, base string, termLimit int) (string, bool, error) {
	if v, ok := rc.values[base]; ok {
		return v, true, nil
	}

	switch {
	case strings.HasPrefix(base, customFieldPrefix):
		return rc.resolveField(ctx, base, strings.TrimPrefix(base, customFieldPrefix), false)
	case strings.HasPrefix(base, authorFieldPrefix):
		return rc.resolveField(ctx, base, strings.TrimPrefix(base, authorFieldPrefix), true)
	case strings.HasPrefix(base, taxonomyPrefix):
		return rc.resolveTaxonomy(ctx, base, termLimit)
	}
	return "", false, nil
}

var bracketPath = regexp.MustCompile(`\[([^\[\]]*)\]`)

// resolveField resolves custom_field_/author_field_ tags, supporting a
// bracketed path into nested values: key[a][b].
func (rc *RenderContext) resolveField(ctx context.Context, cacheKey, key string, fromAuthor bool) (string, bool, error) {
	path := []string{}
	if idx := strings.Index(key, "["); idx >= 0 {
		for _, m := range bracketPath.FindAllStringSubmatch(key[idx:], -1) {
			path = append(path, m[1])
		}
		key = key[:idx]
	}

	var raw interface{}
	var err error
	if fromAuthor {
		raw, err = rc.content.AuthorField(ctx, rc.item.AuthorID, key)
	} else {
		raw, err = rc.content.Field(ctx, rc.item.ID, key)
	}
	if err != nil {
		return "", false, fmt.Errorf("template: field %q: %w", key, err)
	}

	for _, seg := range path {
		raw = descend(raw, seg)
	}

	v := stringify(raw)
	rc.values[cacheKey] = v
	return v, true, nil
}

func descend(raw interface{}, seg string) interface{} {
	switch v := raw.(type) {
	case map[string]interface{}:
		return v[seg]
	case []interface{}:
		if i, err := strconv.Atoi(seg); err == nil && i >= 0 && i < len(v) {
			return v[i]
		}
	}
	return nil
}

func stringify(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Taxonomy tag formats.
const (
	taxFormatHashtag    = "hashtag"
	taxFormatName       = "name"
	taxFormatRetainCase = "hashtag_retain_case"
	taxFormatUnderscore = "hashtag_underscore"
)

// resolveTaxonomy resolves taxonomy_<name> tags and their
// format-qualified variants, joining formatted terms with single spaces.
func (rc *RenderContext) resolveTaxonomy(ctx context.Context, base string, termLimit int) (string, bool, error) {
	name := strings.TrimPrefix(base, taxonomyPrefix)
	format := taxFormatHashtag
	switch {
	case strings.HasSuffix(name, "_"+taxFormatRetainCase):
		format = taxFormatRetainCase
		name = strings.TrimSuffix(name, "_"+taxFormatRetainCase)
	case strings.HasSuffix(name, "_"+taxFormatUnderscore):
		format = taxFormatUnderscore
		name = strings.TrimSuffix(name, "_"+taxFormatUnderscore)
	case strings.HasSuffix(name, "_"+taxFormatName):
		format = taxFormatName
		name = strings.TrimSuffix(name, "_"+taxFormatName)
	}

	cacheKey := base
	if termLimit > 0 {
		cacheKey = fmt.Sprintf("%s#%d", base, termLimit)
	}
	if v, ok := rc.values[cacheKey]; ok {
		return v, true, nil
	}

	terms, err := rc.content.Terms(ctx, rc.item.ID, name)
	if err != nil {
		return "", false, fmt.Errorf("template: taxonomy %q: %w", name, err)
	}
	if termLimit > 0 && len(terms) > termLimit {
		terms = terms[:termLimit]
	}

	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, FormatTerm(t.Name, format))
	}
	v := strings.Join(parts, " ")
	rc.values[cacheKey] = v
	return v, true, nil
}

// FormatTerm renders one term name in the given taxonomy tag format.
func FormatTerm(name, format string) string {
	switch format {
	case taxFormatName:
		return name
	case taxFormatRetainCase:
		return "#" + strings.ReplaceAll(name, " ", "")
	case taxFormatUnderscore:
		return "#" + strings.ToLower(strings.ReplaceAll(name, " ", "_"))
	default:
		return "#" + strings.ToLower(strings.ReplaceAll(name, " ", ""))
	}
}

// IsTaxonomyTag reports whether base resolves a taxonomy term list.
func IsTaxonomyTag(base string) bool {
	return strings.HasPrefix(base, taxonomyPrefix)
}
