package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/feedfilter/internal/common"
)

type Condition string

const (
	ConditionContains Condition = "contains"
	ConditionExcludes Condition = "excludes"
)

type Field string

const (
	FieldFeed  Field = "feed"
	FieldTitle Field = "title"
	FieldBody  Field = "body"
	FieldLink  Field = "link"
	FieldTag   Field = "tag"
)

type Action string

const (
	ActionShow Action = "show"
	ActionHide Action = "hide"
)

// FilterRule is a user-defined show/hide condition over one article field.
// Rules are unique per (FeedID, Keyword, Condition, Field).
type FilterRule struct {
	ID        int64
	FeedID    int64
	Keyword   string
	Condition Condition
	Field     Field
	Action    Action
}

// NewFilterRule validates the rule and normalises the keyword to lower case.
func NewFilterRule(feedID int64, keyword string, cond Condition, field Field, action Action) (*FilterRule, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil, fmt.Errorf("%w: empty keyword", common.ErrInvalidFilterRule)
	}
	switch cond {
	case ConditionContains, ConditionExcludes:
	default:
		return nil, fmt.Errorf("%w: condition %q", common.ErrInvalidFilterRule, cond)
	}
	switch field {
	case FieldFeed, FieldTitle, FieldBody, FieldLink, FieldTag:
	case "":
		field = FieldFeed
	default:
		return nil, fmt.Errorf("%w: field %q", common.ErrInvalidFilterRule, field)
	}
	switch action {
	case ActionShow, ActionHide:
	default:
		return nil, fmt.Errorf("%w: action %q", common.ErrInvalidFilterRule, action)
	}
	return &FilterRule{FeedID: feedID, Keyword: keyword, Condition: cond, Field: field, Action: action}, nil
}

func (r FilterRule) String() string {
	return fmt.Sprintf("IF [%s] [%s] [%s] THEN [%s]", r.Keyword, r.Condition, r.Field, r.Action)
}

// Decision is the outcome of evaluating a rule set against one article.
type Decision struct {
	Hidden          bool
	HiddenAt        *time.Time
	ActiveShowRules []FilterRule
	ActiveHideRules []FilterRule
	MatchedKeywords []string
}
