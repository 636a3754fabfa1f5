// Package conditions evaluates the per-status eligibility rules against
// a content item and its author.
package conditions

import (
	"strconv"
	"strings"
	"sync"

	"socialcast/internal/models"
)

// Operator implements one comparison between an actual value and the
// configured literal. exists reports whether the underlying field was
// present at all, independent of its value.
type Operator func(actual string, exists bool, expected string) bool

var (
	opMu       sync.RWMutex
	extraOps   = map[models.ComparisonOp]Operator{}
	fallbackOp Operator
)

// RegisterOperator installs an operator for a comparison symbol the
// built-in table does not cover, or overrides an existing extension.
func RegisterOperator(op models.ComparisonOp, fn Operator) {
	opMu.Lock()
	defer opMu.Unlock()
	extraOps[op] = fn
}

// SetFallbackOperator installs a catch-all used for operators with no
// registration. Without one, unknown operators evaluate to false.
func SetFallbackOperator(fn Operator) {
	opMu.Lock()
	defer opMu.Unlock()
	fallbackOp = fn
}

// Compare applies op to an actual value. Numeric ordering is used for
// the relational operators when both sides parse as numbers; string
// ordering otherwise.
func Compare(actual string, exists bool, op models.ComparisonOp, expected string) bool {
	switch op {
	case models.OpEqual:
		return actual == expected
	case models.OpNotEqual:
		return actual != expected
	case models.OpGreater:
		return ordered(actual, expected) > 0
	case models.OpGreaterEqual:
		return ordered(actual, expected) >= 0
	case models.OpLess:
		return ordered(actual, expected) < 0
	case models.OpLessEqual:
		return ordered(actual, expected) <= 0
	case models.OpIn:
		return inSet(actual, expected)
	case models.OpNotIn:
		return !inSet(actual, expected)
	case models.OpLike:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(expected))
	case models.OpNotLike:
		return !strings.Contains(strings.ToLower(actual), strings.ToLower(expected))
	case models.OpEmpty:
		return actual == ""
	case models.OpNotEmpty:
		return actual != ""
	case models.OpExists:
		return exists
	case models.OpNotExists:
		return !exists
	}

	opMu.RLock()
	fn, ok := extraOps[op]
	fb := fallbackOp
	opMu.RUnlock()
	if ok {
		return fn(actual, exists, expected)
	}
	if fb != nil {
		return fb(actual, exists, expected)
	}
	return false
}

func ordered(a, b string) int {
	af, aerr := strconv.ParseFloat(strings.TrimSpace(a), 64)
	bf, berr := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

func inSet(actual, expected string) bool {
	for _, candidate := range strings.Split(expected, ",") {
		if strings.TrimSpace(candidate) == actual {
			return true
		}
	}
	return false
}
