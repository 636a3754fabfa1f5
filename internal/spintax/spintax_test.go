package spintax

import (
	"math/rand"
	"strings"
	"testing"
)

func TestExpandSingleAlternativeIsLiteral(t *testing.T) {
	got, err := Expand("{only}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "{only}" {
		t.Fatalf("expected literal braces back, got %q", got)
	}
}

func TestExpandDoublePipeIsLiteral(t *testing.T) {
	in := "body { color: red; } if (a || b) { x(); }"
	got, err := Expand(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "{ x(); }") {
		t.Fatalf("expected double-pipe group restored, got %q", got)
	}
}

func TestExpandPicksOneAlternative(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		got, err := ExpandWithRand("{a|b}", rng)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "a" && got != "b" {
			t.Fatalf("expected a or b, got %q", got)
		}
		seen[got] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("expected both alternatives over 1000 runs, saw %v", seen)
	}
}

func TestExpandNested(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		got, err := ExpandWithRand("{Hello|{Good morning|Good evening}} world", rng)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		switch got {
		case "Hello world", "Good morning world", "Good evening world":
		default:
			t.Fatalf("unexpected expansion %q", got)
		}
	}
}

func TestExpandMixedLiteralAndSpintax(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	got, err := ExpandWithRand("{title} is {great|awesome}", rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "{title} is ") {
		t.Fatalf("expected tag preserved, got %q", got)
	}
	rest := strings.TrimPrefix(got, "{title} is ")
	if rest != "great" && rest != "awesome" {
		t.Fatalf("expected one alternative, got %q", rest)
	}
}

func TestExpandNoGroups(t *testing.T) {
	got, err := Expand("plain text")
	if err != nil || got != "plain text" {
		t.Fatalf("expected passthrough, got %q err %v", got, err)
	}
}

func TestExpandDeeplyNestedFallsBack(t *testing.T) {
	// Build nesting past the recursion bound; the iterative loop should
	// still resolve it.
	depth := 80
	s := "x|y"
	for i := 0; i < depth; i++ {
		s = "a|{" + s + "}"
	}
	s = "{" + s + "}"

	rng := rand.New(rand.NewSource(11))
	got, err := ExpandWithRand(s, rng)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.ContainsAny(got, "{}|") {
		t.Fatalf("expected fully resolved output, got %q", got)
	}
}
