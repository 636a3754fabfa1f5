package models

// Action is the dispatch trigger kind.
type Action string

const (
	ActionPublish Action = "publish"
	ActionUpdate  Action = "update"
	ActionRepost  Action = "repost"
	ActionBulk    Action = "bulk_publish"
)

// ImageMode controls which image, if any, accompanies a status.
type ImageMode int

const (
	ImageNone ImageMode = iota
	ImageOpenGraph
	ImageFeatured
)

func (m ImageMode) String() string {
	switch m {
	case ImageOpenGraph:
		return "open_graph"
	case ImageFeatured:
		return "featured"
	default:
		return "none"
	}
}

// ScheduleMode selects how a status send time is resolved.
type ScheduleMode string

const (
	ScheduleQueueTail   ScheduleMode = "queue_bottom"
	ScheduleQueueHead   ScheduleMode = "queue_top"
	ScheduleImmediate   ScheduleMode = "now"
	ScheduleRelative    ScheduleMode = "relative"
	ScheduleWeekday     ScheduleMode = "weekday"
	ScheduleCustomField ScheduleMode = "custom_field"
	ScheduleAbsolute    ScheduleMode = "specific"
)

// ScheduleSpec is the symbolic schedule attached to a status definition.
type ScheduleSpec struct {
	Mode ScheduleMode `json:"mode"`

	// Relative and custom-field offsets.
	Days    int `json:"days,omitempty"`
	Hours   int `json:"hours,omitempty"`
	Minutes int `json:"minutes,omitempty"`

	// Weekday mode: "monday".."sunday", plus "today" and "tomorrow".
	Weekday string `json:"weekday,omitempty"`
	// TimeOfDay is "HH:MM" in the site timezone.
	TimeOfDay string `json:"time_of_day,omitempty"`

	// Custom-field mode.
	FieldKey string `json:"field_key,omitempty"`
	// Relation is "before" or "after" the field's date.
	Relation string `json:"relation,omitempty"`

	// Absolute mode: "2006-01-02 15:04" in the site timezone.
	At string `json:"at,omitempty"`
}

// ComparisonOp is one operator of the generic condition comparator.
type ComparisonOp string

const (
	OpEqual        ComparisonOp = "="
	OpNotEqual     ComparisonOp = "!="
	OpGreater      ComparisonOp = ">"
	OpGreaterEqual ComparisonOp = ">="
	OpLess         ComparisonOp = "<"
	OpLessEqual    ComparisonOp = "<="
	OpIn           ComparisonOp = "IN"
	OpNotIn        ComparisonOp = "NOT IN"
	OpLike         ComparisonOp = "LIKE"
	OpNotLike      ComparisonOp = "NOT LIKE"
	OpEmpty        ComparisonOp = "EMPTY"
	OpNotEmpty     ComparisonOp = "NOT EMPTY"
	OpExists       ComparisonOp = "EXISTS"
	OpNotExists    ComparisonOp = "NOT EXISTS"
)

// AttributeCondition compares a content item attribute (title, excerpt,
// body) against a literal.
type AttributeCondition struct {
	Attribute string       `json:"attribute"`
	Op        ComparisonOp `json:"op"`
	Value     string       `json:"value"`
}

// DateWindowCondition passes when the item's publish date, normalized to
// the current year, falls inside the inclusive month-day window. A blank
// start or end disables the corresponding bound.
type DateWindowCondition struct {
	// Start and End are "MM-DD".
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// TaxonomyMethod selects how a configured term set is matched.
type TaxonomyMethod string

const (
	TaxonomyIncludeAny TaxonomyMethod = "include_any"
	TaxonomyIncludeAll TaxonomyMethod = "include_all"
	TaxonomyExcludeAny TaxonomyMethod = "exclude_any"
)

// TaxonomyCondition matches the item's term set for one taxonomy.
type TaxonomyCondition struct {
	Taxonomy string         `json:"taxonomy"`
	Method   TaxonomyMethod `json:"method"`
	TermIDs  []int64        `json:"term_ids"`
}

// FieldSource selects whether a custom-field condition reads the content
// item's fields or the author's.
type FieldSource string

const (
	FieldSourceContent FieldSource = "content"
	FieldSourceAuthor  FieldSource = "author"
)

// FieldCondition compares a named custom field against a literal.
type FieldCondition struct {
	Source FieldSource  `json:"source"`
	Key    string       `json:"key"`
	Op     ComparisonOp `json:"op"`
	Value  string       `json:"value"`
}

// AuthorCondition matches the item's author against configured id or
// role sets. Compare is "=" or "!=".
type AuthorCondition struct {
	Compare   ComparisonOp `json:"compare,omitempty"`
	AuthorIDs []int64      `json:"author_ids,omitempty"`
	Roles     []string     `json:"roles,omitempty"`
}

// Conditions groups the five conjunctive condition categories of one
// status definition. A category with no configured entries auto-passes.
type Conditions struct {
	Attributes []AttributeCondition `json:"attributes,omitempty"`
	DateWindow *DateWindowCondition `json:"date_window,omitempty"`
	Taxonomies []TaxonomyCondition  `json:"taxonomies,omitempty"`
	Fields     []FieldCondition     `json:"fields,omitempty"`
	Author     *AuthorCondition     `json:"author,omitempty"`
}

// StatusDefinition is one authored rule: template + conditions +
// schedule + image mode for one profile/action. Immutable during a
// dispatch call.
type StatusDefinition struct {
	Message    string                       `json:"message"`
	ImageMode  ImageMode                    `json:"image_mode"`
	Schedule   ScheduleSpec                 `json:"schedule"`
	Conditions Conditions                   `json:"conditions"`
	Extensions map[string]map[string]string `json:"extensions,omitempty"`
	// Roles restricts visibility of this definition to authors holding
	// one of the listed roles. Empty means visible to all.
	Roles []string `json:"roles,omitempty"`
}

// ActionRules holds the enabled flag and the author-ordered status list
// for one action under one profile.
type ActionRules struct {
	Enabled  bool               `json:"enabled"`
	Statuses []StatusDefinition `json:"statuses"`
}

// ProfileRules holds all per-action rules for one profile entry in a
// rule set. The reserved id "default" carries the fallback bucket used
// when a profile has no action-specific override.
type ProfileRules struct {
	ProfileID string                 `json:"profile_id"`
	Actions   map[Action]ActionRules `json:"actions"`
	// Roles restricts this whole profile entry to authors holding one
	// of the listed roles. Empty means visible to all.
	Roles []string `json:"roles,omitempty"`
}

// DefaultProfileKey is the reserved rule-set key providing fallback
// action rules; it never names a real profile.
const DefaultProfileKey = "default"

// RuleSet is the ordered status rules governing one dispatch, either a
// content type's defaults or a single item's override.
type RuleSet struct {
	Profiles []ProfileRules `json:"profiles"`
}

// Rules returns the profile entry for id, or nil.
func (rs *RuleSet) Rules(profileID string) *ProfileRules {
	for i := range rs.Profiles {
		if rs.Profiles[i].ProfileID == profileID {
			return &rs.Profiles[i]
		}
	}
	return nil
}

// OverrideMode is the three-state per-item override indicator.
type OverrideMode int

const (
	OverrideDoNotPost  OverrideMode = -1
	OverrideUseDefault OverrideMode = 0
	OverrideUseItem    OverrideMode = 1
)
