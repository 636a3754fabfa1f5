package template

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// truncationExempt lists base tags whose truncation would corrupt the
// output. The check is keyed on the base tag name after resolution, so a
// legacy {url(3)} is parsed but its limit never applied.
var truncationExempt = map[string]bool{
	"url":       true,
	"short_url": true,
	"permalink": true,
	"id":        true,
}

var sentenceSplit = regexp.MustCompile(`([.!?]+)(\s+|$)`)

// dateLayouts are tried in order when a transform needs the value as a
// date.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// applyTransforms runs the transformation chain over a resolved value.
// Unknown transformations are ignored rather than failing the render.
func applyTransforms(base, value string, transforms []Transform) string {
	for _, tr := range transforms {
		value = applyTransform(base, value, tr)
	}
	return value
}

func applyTransform(base, value string, tr Transform) string {
	switch tr.Name {
	case TransformUpper:
		return strings.ToUpper(value)
	case TransformLower:
		return strings.ToLower(value)
	case TransformTitle:
		return titleCase(value)
	case TransformFirstChar:
		return upperFirst(value)
	case TransformFirstWord:
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return value
		}
		return fields[0]
	case TransformLastWord:
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return value
		}
		return fields[len(fields)-1]
	case TransformSlug:
		return slugify(value)
	case TransformURLEncode:
		return url.QueryEscape(value)
	case TransformDateFormat:
		return formatDate(value, tr.Args)
	case TransformWords:
		if truncationExempt[base] {
			return value
		}
		return limitWords(value, intArg(tr, 0))
	case TransformSentences:
		if truncationExempt[base] {
			return value
		}
		return limitSentences(value, intArg(tr, 0))
	case TransformCharacters:
		if truncationExempt[base] {
			return value
		}
		return limitCharacters(value, intArg(tr, 0))
	}
	return value
}

func intArg(tr Transform, idx int) int {
	if idx >= len(tr.Args) {
		return 0
	}
	n, _ := strconv.Atoi(tr.Args[idx])
	return n
}

func titleCase(s string) string {
	prev := ' '
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(prev) {
			prev = r
			return unicode.ToUpper(r)
		}
		prev = r
		return unicode.ToLower(r)
	}, s)
}

func upperFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// formatDate re-renders a date-valued tag. Values that do not parse as a
// date pass through untouched.
func formatDate(value string, args []string) string {
	layout := "2006-01-02"
	if len(args) > 0 && args[0] != "" {
		layout = args[0]
	}
	for _, l := range dateLayouts {
		if ts, err := time.Parse(l, value); err == nil {
			return ts.Format(layout)
		}
	}
	return value
}

func limitWords(s string, n int) string {
	if n <= 0 {
		return s
	}
	fields := strings.Fields(s)
	if len(fields) <= n {
		return s
	}
	return strings.Join(fields[:n], " ")
}

func limitSentences(s string, n int) string {
	if n <= 0 {
		return s
	}
	var b strings.Builder
	count := 0
	last := 0
	for _, m := range sentenceSplit.FindAllStringIndex(s, -1) {
		b.WriteString(s[last:m[1]])
		last = m[1]
		count++
		if count == n {
			return strings.TrimSpace(b.String())
		}
	}
	return s
}

func limitCharacters(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
