package conditions

import (
	"context"
	"fmt"
	"time"

	"socialcast/internal/models"
	"socialcast/internal/store"
)

// Evaluator checks a status definition's five condition categories
// against a content item and its author. Categories are conjunctive; a
// category with nothing configured auto-passes.
type Evaluator struct {
	content store.ContentStore
}

func NewEvaluator(content store.ContentStore) *Evaluator {
	return &Evaluator{content: content}
}

// Evaluate returns whether every configured category passes. The reason
// names the first failing category for logging; it is empty on a pass.
func (e *Evaluator) Evaluate(ctx context.Context, def *models.StatusDefinition, item *models.ContentItem, author *models.Author) (bool, string, error) {
	if !e.attributesPass(def.Conditions.Attributes, item) {
		return false, "post attribute conditions not met", nil
	}
	if !dateWindowPasses(def.Conditions.DateWindow, item.PublishedAt) {
		return false, "publish date outside configured window", nil
	}

	ok, err := e.taxonomiesPass(ctx, def.Conditions.Taxonomies, item)
	if err != nil {
		return false, "", err
	}
	if !ok {
		return false, "taxonomy conditions not met", nil
	}

	ok, err = e.fieldsPass(ctx, def.Conditions.Fields, item)
	if err != nil {
		return false, "", err
	}
	if !ok {
		return false, "custom field conditions not met", nil
	}

	if !authorPasses(def.Conditions.Author, author) {
		return false, "author conditions not met", nil
	}
	return true, "", nil
}

func (e *Evaluator) attributesPass(conds []models.AttributeCondition, item *models.ContentItem) bool {
	for _, c := range conds {
		var actual string
		switch c.Attribute {
		case "title":
			actual = item.Title
		case "excerpt":
			actual = item.Excerpt
		case "content", "body":
			actual = item.Body
		default:
			return false
		}
		if !Compare(actual, true, c.Op, c.Value) {
			return false
		}
	}
	return true
}

// dateWindowPasses normalizes the publish date's year to the current
// year and checks the inclusive month-day window. Blank bounds disable
// their side of the check.
func dateWindowPasses(w *models.DateWindowCondition, published time.Time) bool {
	if w == nil || (w.Start == "" && w.End == "") {
		return true
	}

	day := int(published.Month())*100 + published.Day()
	if w.Start != "" {
		start, err := parseMonthDay(w.Start)
		if err != nil || day < start {
			return false
		}
	}
	if w.End != "" {
		end, err := parseMonthDay(w.End)
		if err != nil || day > end {
			return false
		}
	}
	return true
}

func parseMonthDay(s string) (int, error) {
	ts, err := time.Parse("01-02", s)
	if err != nil {
		return 0, fmt.Errorf("conditions: bad month-day %q: %w", s, err)
	}
	return int(ts.Month())*100 + ts.Day(), nil
}

func (e *Evaluator) taxonomiesPass(ctx context.Context, conds []models.TaxonomyCondition, item *models.ContentItem) (bool, error) {
	for _, c := range conds {
		if len(c.TermIDs) == 0 {
			continue
		}
		terms, err := e.content.Terms(ctx, item.ID, c.Taxonomy)
		if err != nil {
			return false, fmt.Errorf("conditions: taxonomy %q: %w", c.Taxonomy, err)
		}
		have := make(map[int64]bool, len(terms))
		for _, t := range terms {
			have[t.ID] = true
		}

		matched := 0
		for _, id := range c.TermIDs {
			if have[id] {
				matched++
			}
		}

		switch c.Method {
		case models.TaxonomyIncludeAll:
			if matched != len(c.TermIDs) {
				return false, nil
			}
		case models.TaxonomyExcludeAny:
			if matched > 0 {
				return false, nil
			}
		default: // include_any
			if matched == 0 {
				return false, nil
			}
		}
	}
	return true, nil
}

func (e *Evaluator) fieldsPass(ctx context.Context, conds []models.FieldCondition, item *models.ContentItem) (bool, error) {
	for _, c := range conds {
		var raw interface{}
		var err error
		if c.Source == models.FieldSourceAuthor {
			raw, err = e.content.AuthorField(ctx, item.AuthorID, c.Key)
		} else {
			raw, err = e.content.Field(ctx, item.ID, c.Key)
		}
		if err != nil {
			return false, fmt.Errorf("conditions: field %q: %w", c.Key, err)
		}

		exists := raw != nil
		actual := ""
		if exists {
			actual = fmt.Sprintf("%v", raw)
		}
		if !Compare(actual, exists, c.Op, c.Value) {
			return false, nil
		}
	}
	return true, nil
}

func authorPasses(c *models.AuthorCondition, author *models.Author) bool {
	if c == nil || (len(c.AuthorIDs) == 0 && len(c.Roles) == 0) {
		return true
	}
	if author == nil {
		return false
	}

	negate := c.Compare == models.OpNotEqual

	if len(c.AuthorIDs) > 0 {
		found := false
		for _, id := range c.AuthorIDs {
			if id == author.ID {
				found = true
				break
			}
		}
		if found == negate {
			return false
		}
	}
	if len(c.Roles) > 0 {
		found := false
		for _, role := range c.Roles {
			if author.HasRole(role) {
				found = true
				break
			}
		}
		if found == negate {
			return false
		}
	}
	return true
}
