package classify

import (
	"fmt"
	"math"
	"strings"

	"github.com/casehq/triage/internal/model"
)

// Confidence fallbacks when no keyword matched on an axis. The formulas
// (count/5 and severity/3, both capped at 1.0) are normalization choices
// kept for behavioral compatibility; treat them as tuning knobs.
const (
	fallbackCategoryConfidence = 0.3
	fallbackPriorityConfidence = 0.5
)

// Engine assigns a category and priority to ticket text by deterministic
// keyword matching. It is a pure function over the rule set it was built
// with: no I/O, no shared mutable state, safe for concurrent use.
type Engine struct {
	categories []categoryMatcher
	priorities []priorityMatcher
	rules      RuleSet
}

type categoryMatcher struct {
	category model.Category
	keywords []string
}

type priorityMatcher struct {
	priority model.Priority
	keywords []string
}

// NewEngine creates an Engine from the given rule set. Keywords are
// lowercased and empty entries dropped; boost tables are normalized to be
// total over every priority level.
func NewEngine(rules RuleSet) *Engine {
	e := &Engine{}

	for _, rule := range rules.Categories {
		kws := cleanKeywords(rule.Keywords)
		e.categories = append(e.categories, categoryMatcher{
			category: rule.Category,
			keywords: kws,
		})
		e.rules.Categories = append(e.rules.Categories, CategoryRule{
			Category:      rule.Category,
			Keywords:      kws,
			PriorityBoost: totalBoost(rule.PriorityBoost),
		})
	}

	for _, rule := range rules.Priorities {
		kws := cleanKeywords(rule.Keywords)
		e.priorities = append(e.priorities, priorityMatcher{
			priority: rule.Priority,
			keywords: kws,
		})
		e.rules.Priorities = append(e.rules.Priorities, PriorityRule{
			Priority: rule.Priority,
			Keywords: kws,
		})
	}

	return e
}

// Rules returns the normalized rule set the engine was built with.
func (e *Engine) Rules() RuleSet {
	return e.rules
}

// Classify scores the ticket text against the rule set and returns the
// chosen category, priority, confidences, and reasoning. It never fails:
// text matching nothing yields the fallback category and priority with
// low confidence.
func (e *Engine) Classify(subject, description string) model.ClassificationResult {
	text := strings.ToLower(subject + " " + description)

	seen := make(map[string]bool)
	var found []string
	record := func(kw string) {
		if !seen[kw] {
			seen[kw] = true
			found = append(found, kw)
		}
	}

	// Category: count distinct keyword hits per category (presence, not
	// frequency). The first category to reach the strictly highest count
	// wins; a later category needs a strictly greater count to replace it.
	bestIdx := -1
	bestCount := 0
	for i, cat := range e.categories {
		count := 0
		for _, kw := range cat.keywords {
			if strings.Contains(text, kw) {
				count++
				record(kw)
			}
		}
		if count > bestCount {
			bestCount = count
			bestIdx = i
		}
	}

	category := model.CategoryOther
	categoryConfidence := fallbackCategoryConfidence
	categoryReason := "no keywords matched, assigned default category"
	if bestIdx >= 0 {
		category = e.categories[bestIdx].category
		categoryConfidence = math.Min(float64(bestCount)/5, 1.0)
		categoryReason = fmt.Sprintf("matched %d keyword(s) for %s", bestCount, category)
	}

	// Priority: walk trigger levels in increasing severity and keep the
	// highest severity with at least one hit, so a later, more severe
	// match overrides an earlier, less severe one.
	matchedLevel := 0 // 1-based position among trigger-carrying levels
	for i, lvl := range e.priorities {
		for _, kw := range lvl.keywords {
			if strings.Contains(text, kw) {
				record(kw)
				if i+1 > matchedLevel {
					matchedLevel = i + 1
				}
			}
		}
	}

	priority := model.PriorityMedium
	priorityConfidence := fallbackPriorityConfidence
	priorityReason := "no priority indicators found, assigned default medium priority"
	if matchedLevel > 0 {
		priority = e.priorities[matchedLevel-1].priority
		priorityConfidence = math.Min(float64(matchedLevel)/3, 1.0)
		priorityReason = fmt.Sprintf("found urgent/important keywords indicating %s priority", priority)
	}

	categoryConfidence = round2(categoryConfidence)
	priorityConfidence = round2(priorityConfidence)

	return model.ClassificationResult{
		Category:           category,
		Priority:           priority,
		CategoryConfidence: categoryConfidence,
		PriorityConfidence: priorityConfidence,
		OverallConfidence:  round2((categoryConfidence + priorityConfidence) / 2),
		Reasoning: model.Reasoning{
			Category: categoryReason,
			Priority: priorityReason,
		},
		KeywordsFound: found,
	}
}

// round2 rounds to 2 decimal places and clamps to [0,1].
func round2(v float64) float64 {
	v = math.Round(v*100) / 100
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
