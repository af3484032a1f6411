package classify

import (
	"fmt"
	"os"
	"strings"

	"github.com/casehq/triage/internal/model"
	"gopkg.in/yaml.v3"
)

// CategoryRule maps one category to its keyword set and per-priority boost
// table. Keywords are matched as lowercase substrings of the ticket text.
// The boost table is tuning data carried alongside the keywords; the
// shipped scoring evaluates priority independently of category and does
// not consume it.
type CategoryRule struct {
	Category      model.Category         `yaml:"category"`
	Keywords      []string               `yaml:"keywords"`
	PriorityBoost map[model.Priority]int `yaml:"priority_boost"`
}

// PriorityRule maps one trigger-carrying priority level to its keyword set.
// Medium carries no triggers and is the default, so it never appears here.
type PriorityRule struct {
	Priority model.Priority `yaml:"priority"`
	Keywords []string       `yaml:"keywords"`
}

// RuleSet is the immutable classification configuration. Category order is
// the tie-break order (earliest declared wins equal match counts); priority
// rules are ordered from lowest to highest severity and the position of a
// matched level feeds the priority confidence formula.
type RuleSet struct {
	Categories []CategoryRule `yaml:"categories"`
	Priorities []PriorityRule `yaml:"priorities"`
}

// DefaultRuleSet returns the built-in rules. The keyword strings are
// tunable data, not a contract; replace them wholesale with a rules file
// when the defaults don't fit the deployment.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Categories: []CategoryRule{
			{
				Category: model.CategoryAccountAccess,
				Keywords: []string{
					"login", "password", "locked out", "account", "reset",
					"sign in", "signin", "access denied", "authentication", "credentials",
				},
			},
			{
				Category: model.CategoryTechnicalIssue,
				Keywords: []string{
					"not working", "slow", "timeout", "cannot connect", "connection",
					"error", "issue", "problem", "fails", "unavailable",
				},
			},
			{
				Category: model.CategoryBilling,
				Keywords: []string{
					"billing", "invoice", "charge", "payment", "refund",
					"subscription", "price", "overcharged", "receipt",
				},
			},
			{
				Category: model.CategoryFeatureRequest,
				Keywords: []string{
					"feature request", "feature", "enhancement", "would be nice",
					"suggestion", "add support", "improvement", "request", "dark mode",
				},
			},
			{
				Category: model.CategoryBugReport,
				Keywords: []string{
					"bug", "crash", "broken", "defect", "glitch",
					"stack trace", "exception", "regression", "reproduce",
				},
			},
		},
		Priorities: []PriorityRule{
			{
				Priority: model.PriorityLow,
				Keywords: []string{
					"minor", "cosmetic", "would be nice", "nice to have",
					"no rush", "whenever", "low priority", "typo",
				},
			},
			{
				Priority: model.PriorityHigh,
				Keywords: []string{
					"asap", "important", "high priority", "blocking",
					"major", "serious", "significant", "affects many",
				},
			},
			{
				Priority: model.PriorityUrgent,
				Keywords: []string{
					"urgent", "critical", "emergency", "immediately",
					"production down", "outage", "data loss", "security breach",
					"locked out", "cannot access", "can't access",
				},
			},
		},
	}
}

// LoadRuleSet reads a YAML rule-set file and validates it. The file
// replaces the defaults wholesale.
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("read rules: %w", err)
	}

	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("parse rules: %w", err)
	}

	if err := rs.Validate(); err != nil {
		return RuleSet{}, fmt.Errorf("rules %s: %w", path, err)
	}

	return rs, nil
}

// Validate checks identifiers, keyword sets, and severity ordering.
func (rs RuleSet) Validate() error {
	if len(rs.Categories) == 0 {
		return fmt.Errorf("no category rules defined")
	}

	seenCat := make(map[model.Category]bool)
	for _, rule := range rs.Categories {
		if _, err := model.ParseCategory(string(rule.Category)); err != nil {
			return err
		}
		if rule.Category == model.CategoryOther {
			return fmt.Errorf("category %q is the fallback and cannot carry keywords", model.CategoryOther)
		}
		if seenCat[rule.Category] {
			return fmt.Errorf("duplicate category rule %q", rule.Category)
		}
		seenCat[rule.Category] = true
		if len(cleanKeywords(rule.Keywords)) == 0 {
			return fmt.Errorf("category %q has no usable keywords", rule.Category)
		}
		for p := range rule.PriorityBoost {
			if _, err := model.ParsePriority(string(p)); err != nil {
				return fmt.Errorf("category %q boost table: %w", rule.Category, err)
			}
		}
	}

	lastSeverity := -1
	seenPri := make(map[model.Priority]bool)
	for _, rule := range rs.Priorities {
		if _, err := model.ParsePriority(string(rule.Priority)); err != nil {
			return err
		}
		if rule.Priority == model.PriorityMedium {
			return fmt.Errorf("priority %q is the default level and cannot carry trigger keywords", model.PriorityMedium)
		}
		if seenPri[rule.Priority] {
			return fmt.Errorf("duplicate priority rule %q", rule.Priority)
		}
		seenPri[rule.Priority] = true
		if len(cleanKeywords(rule.Keywords)) == 0 {
			return fmt.Errorf("priority %q has no usable keywords", rule.Priority)
		}
		sev := severityIndex(rule.Priority)
		if sev <= lastSeverity {
			return fmt.Errorf("priority rules must be ordered from lowest to highest severity, got %q out of order", rule.Priority)
		}
		lastSeverity = sev
	}

	return nil
}

// severityIndex returns the position of p in the severity order.
func severityIndex(p model.Priority) int {
	for i, candidate := range model.Priorities() {
		if candidate == p {
			return i
		}
	}
	return -1
}

// cleanKeywords lowercases, trims, and drops empty keywords while
// preserving order. An empty keyword would substring-match everything.
func cleanKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// totalBoost returns the rule's boost table filled out over every priority
// level, missing entries defaulting to zero.
func totalBoost(boost map[model.Priority]int) map[model.Priority]int {
	out := make(map[model.Priority]int, len(model.Priorities()))
	for _, p := range model.Priorities() {
		out[p] = boost[p]
	}
	return out
}
