package template

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"socialcast/internal/spintax"
)

var tokenPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// ShortcodeExpander expands host-supplied embedded macros in the
// substituted text. A nil expander is a no-op.
type ShortcodeExpander func(string) string

// Options tunes one render call.
type Options struct {
	// IncludeLinkURLs renders links as "text (url)"; otherwise links
	// collapse to their text.
	IncludeLinkURLs bool
	// Rand drives spintax choices. Nil uses the shared source.
	Rand *rand.Rand
}

// Renderer turns a status message template into final plain text for one
// status, against a per-item RenderContext.
type Renderer struct {
	shortcodes ShortcodeExpander
}

// NewRenderer creates a renderer. shortcodes may be nil.
func NewRenderer(shortcodes ShortcodeExpander) *Renderer {
	return &Renderer{shortcodes: shortcodes}
}

// Render expands spintax, resolves every distinct tag once, applies its
// transformation chain, substitutes all tokens in a single pass, expands
// host shortcodes and normalizes the result to plain text.
func (r *Renderer) Render(ctx context.Context, tmpl string, rc *RenderContext, opts Options) (string, error) {
	out, err := r.substitute(ctx, tmpl, rc, opts.Rand)
	if err != nil {
		return "", err
	}
	return ToPlainText(out, opts.IncludeLinkURLs), nil
}

// RenderVariants runs one expansion and returns both link treatments of
// it: the link-bearing text first, the link-stripped text second.
// Mention-entity offsets are computed against the link-bearing variant,
// so the pair must come from the same alternation choices.
func (r *Renderer) RenderVariants(ctx context.Context, tmpl string, rc *RenderContext, rng *rand.Rand) (string, string, error) {
	out, err := r.substitute(ctx, tmpl, rc, rng)
	if err != nil {
		return "", "", err
	}
	return ToPlainText(out, true), ToPlainText(out, false), nil
}

func (r *Renderer) substitute(ctx context.Context, tmpl string, rc *RenderContext, rng *rand.Rand) (string, error) {
	expanded, err := spintax.ExpandWithRand(tmpl, rng)
	if err != nil {
		return "", fmt.Errorf("template: %w", err)
	}

	tokens := tokenPattern.FindAllString(expanded, -1)

	// Distinct tokens resolve once per render call.
	resolved := make(map[string]string, len(tokens))
	for _, token := range tokens {
		if _, done := resolved[token]; done {
			continue
		}
		value, ok, err := r.resolveToken(ctx, token, rc)
		if err != nil {
			return "", err
		}
		if !ok {
			// Unknown tags pass through untouched; authors see them in
			// the output instead of losing text silently.
			continue
		}
		resolved[token] = value
	}

	pairs := make([]string, 0, len(resolved)*2)
	for token, value := range resolved {
		pairs = append(pairs, token, value)
	}
	out := strings.NewReplacer(pairs...).Replace(expanded)

	if r.shortcodes != nil {
		out = r.shortcodes(out)
	}

	return out, nil
}

func (r *Renderer) resolveToken(ctx context.Context, token string, rc *RenderContext) (string, bool, error) {
	tag, err := ParseTag(token[1 : len(token)-1])
	if err != nil {
		// Malformed tokens stay literal.
		return "", false, nil
	}

	transforms := tag.Transforms

	// For taxonomy tags a numeric limit caps the term list instead of
	// truncating the joined text.
	termLimit := 0
	if IsTaxonomyTag(tag.Base) {
		if n, ok := tag.FirstNumericArg(); ok {
			termLimit = n
			transforms = dropFirstNumeric(transforms)
		}
	}

	value, ok, err := rc.Resolve(ctx, tag.Base, termLimit)
	if err != nil || !ok {
		return "", ok, err
	}

	return applyTransforms(tag.Base, value, transforms), true, nil
}

func dropFirstNumeric(transforms []Transform) []Transform {
	for i, tr := range transforms {
		if len(tr.Args) > 0 {
			out := make([]Transform, 0, len(transforms)-1)
			out = append(out, transforms[:i]...)
			return append(out, transforms[i+1:]...)
		}
	}
	return transforms
}
