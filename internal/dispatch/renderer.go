package dispatch

import (
	"context"

	"socialcast/internal/models"
	"socialcast/internal/store"
	"socialcast/internal/template"
)

// MessageRenderer opens a per-call render session for one content item.
// The session shares one tag cache across every definition in the call.
type MessageRenderer interface {
	Session(item *models.ContentItem, author *models.Author) RenderSession
}

// RenderSession renders message templates for the session's item.
type RenderSession interface {
	Render(ctx context.Context, tmpl string, includeLinkURLs bool) (string, error)
	// RenderVariants returns the link-bearing and link-stripped
	// renderings of a single expansion, so alternation choices match
	// across the pair.
	RenderVariants(ctx context.Context, tmpl string) (string, string, error)
}

// TemplateRenderer adapts the template engine to the orchestrator.
type TemplateRenderer struct {
	renderer *template.Renderer
	content  store.ContentStore
	ctxOpts  template.ContextOptions
}

func NewTemplateRenderer(renderer *template.Renderer, content store.ContentStore, ctxOpts template.ContextOptions) *TemplateRenderer {
	return &TemplateRenderer{renderer: renderer, content: content, ctxOpts: ctxOpts}
}

func (r *TemplateRenderer) Session(item *models.ContentItem, author *models.Author) RenderSession {
	return &templateSession{
		renderer: r.renderer,
		rc:       template.NewRenderContext(item, author, r.content, r.ctxOpts),
	}
}

type templateSession struct {
	renderer *template.Renderer
	rc       *template.RenderContext
}

func (s *templateSession) Render(ctx context.Context, tmpl string, includeLinkURLs bool) (string, error) {
	return s.renderer.Render(ctx, tmpl, s.rc, template.Options{IncludeLinkURLs: includeLinkURLs})
}

func (s *templateSession) RenderVariants(ctx context.Context, tmpl string) (string, string, error) {
	return s.renderer.RenderVariants(ctx, tmpl, s.rc, nil)
}
