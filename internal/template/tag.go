// Package template renders status message templates: spintax expansion,
// tag resolution against a per-item render context, a transformation
// chain, and plain-text normalization of the result.
package template

import (
	"fmt"
	"strconv"
	"strings"
)

// Transform is one named, optionally parameterized text operation
// applied to a resolved tag value.
type Transform struct {
	Name string
	Args []string
}

// Tag is the parsed form of one {token}: a base tag plus an ordered
// transformation list. Both the modern `tag:transform(args):next` syntax
// and the legacy inline `tag(N)`, `tag(N_words)`, `tag(N_sentences)`
// forms normalize to this representation.
type Tag struct {
	Raw        string
	Base       string
	Transforms []Transform
}

// Transformation names. Legacy inline forms are rewritten onto the same
// names during parse.
const (
	TransformUpper      = "uppercase"
	TransformLower      = "lowercase"
	TransformTitle      = "titlecase"
	TransformFirstChar  = "ucfirst"
	TransformFirstWord  = "first_word"
	TransformLastWord   = "last_word"
	TransformSlug       = "url_slug"
	TransformURLEncode  = "url_encode"
	TransformDateFormat = "date_format"
	TransformWords      = "words"
	TransformSentences  = "sentences"
	TransformCharacters = "characters"
)

// customFieldPrefix and authorFieldPrefix mark lazily resolved tags. For
// these, a parenthesized suffix is part of the field key, never a legacy
// limit (the key itself may contain digits and parentheses; the explicit
// `:characters(N)` form must be used to truncate them).
const (
	customFieldPrefix = "custom_field_"
	authorFieldPrefix = "author_field_"
	taxonomyPrefix    = "taxonomy_"
)

type tagParser struct {
	s   string
	pos int
}

// ParseTag parses the inner text of one {token} into a Tag. The token is
// given without the surrounding braces.
func ParseTag(token string) (Tag, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Tag{}, fmt.Errorf("template: empty tag")
	}

	p := &tagParser{s: token}
	tag, err := p.parse()
	if err != nil {
		return Tag{}, err
	}
	tag.Raw = token
	return tag, nil
}

func (p *tagParser) parse() (Tag, error) {
	base := p.readUntil(":(")

	var tag Tag
	tag.Base = base

	// Legacy inline limit: tag(N), tag(N_words), tag(N_sentences).
	// Field tags keep their parentheses as part of the key.
	if p.peek() == '(' {
		if isFieldTag(base) {
			tag.Base = base + p.rest()
			return tag, nil
		}
		legacy, err := p.parseLegacyLimit()
		if err != nil {
			return Tag{}, err
		}
		tag.Transforms = append(tag.Transforms, legacy)
	}

	for p.peek() == ':' {
		p.pos++
		tr, err := p.parseTransform()
		if err != nil {
			return Tag{}, err
		}
		tag.Transforms = append(tag.Transforms, tr)
	}

	if p.pos != len(p.s) {
		return Tag{}, fmt.Errorf("template: unexpected %q in tag %q", p.s[p.pos:], p.s)
	}
	return tag, nil
}

// parseLegacyLimit consumes "(N)", "(N_words)" or "(N_sentences)" and
// rewrites it into the equivalent transformation entry.
func (p *tagParser) parseLegacyLimit() (Transform, error) {
	p.pos++ // consume '('
	inner := p.readUntil(")")
	if p.peek() != ')' {
		return Transform{}, fmt.Errorf("template: unterminated limit in tag %q", p.s)
	}
	p.pos++

	name := TransformCharacters
	num := inner
	switch {
	case strings.HasSuffix(inner, "_words"):
		name = TransformWords
		num = strings.TrimSuffix(inner, "_words")
	case strings.HasSuffix(inner, "_sentences"):
		name = TransformSentences
		num = strings.TrimSuffix(inner, "_sentences")
	}

	if _, err := strconv.Atoi(num); err != nil {
		return Transform{}, fmt.Errorf("template: invalid limit %q in tag %q", inner, p.s)
	}
	return Transform{Name: name, Args: []string{num}}, nil
}

func (p *tagParser) parseTransform() (Transform, error) {
	name := p.readUntil(":(")
	if name == "" {
		return Transform{}, fmt.Errorf("template: empty transformation in tag %q", p.s)
	}
	tr := Transform{Name: name}
	if p.peek() == '(' {
		p.pos++
		args := p.readUntil(")")
		if p.peek() != ')' {
			return Transform{}, fmt.Errorf("template: unterminated arguments in tag %q", p.s)
		}
		p.pos++
		for _, a := range strings.Split(args, ",") {
			tr.Args = append(tr.Args, strings.TrimSpace(a))
		}
	}
	return tr, nil
}

func (p *tagParser) readUntil(stop string) string {
	start := p.pos
	for p.pos < len(p.s) && !strings.ContainsRune(stop, rune(p.s[p.pos])) {
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *tagParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *tagParser) rest() string {
	r := p.s[p.pos:]
	p.pos = len(p.s)
	return r
}

func isFieldTag(base string) bool {
	return strings.HasPrefix(base, customFieldPrefix) || strings.HasPrefix(base, authorFieldPrefix)
}

// FirstNumericArg returns the first integer argument of the first
// transformation carrying one, and whether it was found.
func (t Tag) FirstNumericArg() (int, bool) {
	for _, tr := range t.Transforms {
		if len(tr.Args) == 0 {
			continue
		}
		if n, err := strconv.Atoi(tr.Args[0]); err == nil {
			return n, true
		}
	}
	return 0, false
}
