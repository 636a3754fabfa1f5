// Package spintax resolves {a|b|c} alternation groups by picking one
// alternative per group at random, innermost groups first.
package spintax

import (
	"errors"
	"math/rand"
	"regexp"
	"strings"
)

// ErrLimitExceeded is returned when the expander cannot finish within
// its internal bounds. The input is pathological (unbounded nesting or a
// group that keeps reappearing); the caller gets the error rather than a
// silently truncated result.
var ErrLimitExceeded = errors.New("spintax: expansion limit exceeded")

// group matches one innermost brace group: no nested braces inside.
var group = regexp.MustCompile(`\{([^{}]*)\}`)

const (
	// Literal braces are parked on private-use runes so an already
	// resolved literal group is never re-matched.
	openMark  = "\uE000"
	closeMark = "\uE001"

	maxDepth      = 64
	maxIterations = 1024
)

// Expand resolves every alternation group in s using the default random
// source.
func Expand(s string) (string, error) {
	return ExpandWithRand(s, nil)
}

// ExpandWithRand resolves every alternation group in s, drawing choices
// from rng. A nil rng falls back to the shared random source.
func ExpandWithRand(s string, rng *rand.Rand) (string, error) {
	out, err := expandRecursive(s, rng, 0)
	if err != nil {
		// Primary pass hit its bound: retry with the flat iterative
		// loop, which tolerates deeper inputs at the cost of a cap on
		// total group resolutions.
		out, err = expandIterative(s, rng)
		if err != nil {
			return "", err
		}
	}
	return unmask(out), nil
}

// expandRecursive resolves all innermost groups, then recurses so outer
// groups see their inner alternatives already chosen.
func expandRecursive(s string, rng *rand.Rand, depth int) (string, error) {
	if depth > maxDepth {
		return "", ErrLimitExceeded
	}
	if !group.MatchString(s) {
		return s, nil
	}
	s = group.ReplaceAllStringFunc(s, func(m string) string {
		return resolveGroup(m, rng)
	})
	return expandRecursive(s, rng, depth+1)
}

// expandIterative re-applies per-group resolution until no groups
// remain. Same semantics as the recursive pass, bounded by a total
// iteration count instead of nesting depth.
func expandIterative(s string, rng *rand.Rand) (string, error) {
	for i := 0; i < maxIterations; i++ {
		if !group.MatchString(s) {
			return s, nil
		}
		s = group.ReplaceAllStringFunc(s, func(m string) string {
			return resolveGroup(m, rng)
		})
	}
	return "", ErrLimitExceeded
}

// resolveGroup picks one alternative from a single {..} group, or parks
// the braces as literal text when the group is not spintax.
func resolveGroup(m string, rng *rand.Rand) string {
	inner := m[1 : len(m)-1]

	// A group with no pipe is a plain token, and a double pipe means
	// the braces belong to unrelated content (style/script blocks use
	// `||`). Both are restored verbatim.
	if !strings.Contains(inner, "|") || strings.Contains(inner, "||") {
		return openMark + inner + closeMark
	}

	alts := strings.Split(inner, "|")
	if rng != nil {
		return alts[rng.Intn(len(alts))]
	}
	return alts[rand.Intn(len(alts))]
}

func unmask(s string) string {
	s = strings.ReplaceAll(s, openMark, "{")
	return strings.ReplaceAll(s, closeMark, "}")
}
