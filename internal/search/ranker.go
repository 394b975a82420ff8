package search

import (
	"sort"
	"strings"

	"planner/internal/model"
)

// Match priority tiers, lower is more relevant. The two exact-both-fields
// tiers differ only in case sensitivity and are kept as distinct tiers on
// purpose; TierNoMatch marks tasks excluded from the result.
const (
	TierExactBothFold = -2
	TierExactBoth     = -1
	TierExactName     = 0
	TierExactNameFold = 1
	TierExactDesc     = 2
	TierExactDescFold = 3
	TierNamePrefix    = 4
	TierNameContains  = 5
	TierDescPrefix    = 6
	TierDescContains  = 7
	TierNoMatch       = 8
)

// Relevance computes the match-priority tier of a task's name and description
// against a free-text query. The second return value is the length of the
// matched field, used as a tie-break inside a tier.
func Relevance(query, name, description string) (tier int, fieldLen int) {
	q := strings.TrimSpace(query)
	if q == "" {
		return TierNoMatch, 0
	}

	qLower := strings.ToLower(q)
	nameLower := strings.ToLower(name)
	descLower := strings.ToLower(description)
	tokens := strings.Fields(qLower)

	switch {
	case strings.EqualFold(name, q) && strings.EqualFold(description, q):
		tier = TierExactBothFold
	case name == q && description == q:
		tier = TierExactBoth
	case name == q:
		tier = TierExactName
	case strings.EqualFold(name, q):
		tier = TierExactNameFold
	case description == q:
		tier = TierExactDesc
	case strings.EqualFold(description, q):
		tier = TierExactDescFold
	case strings.HasPrefix(nameLower, qLower):
		tier = TierNamePrefix
	case containsAll(nameLower, tokens):
		tier = TierNameContains
	case strings.HasPrefix(descLower, qLower):
		tier = TierDescPrefix
	case containsAll(descLower, tokens):
		tier = TierDescContains
	default:
		return TierNoMatch, 0
	}

	if tier <= TierExactNameFold || tier == TierNamePrefix || tier == TierNameContains {
		fieldLen = len(name)
	} else {
		fieldLen = len(description)
	}
	return tier, fieldLen
}

// containsAll reports whether every query token appears as a substring of s.
// Multi-word queries match names like "Buy almond milk" for "Buy milk".
func containsAll(s string, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if !strings.Contains(s, tok) {
			return false
		}
	}
	return true
}

type ranked struct {
	task     model.Task
	tier     int
	fieldLen int
}

// Rank filters tasks to those matching the query and orders them by
// ascending tier, then ascending matched-field length, then newest first.
func Rank(query string, tasks []model.Task) []model.Task {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}

	matches := make([]ranked, 0, len(tasks))
	for _, task := range tasks {
		tier, fieldLen := Relevance(q, task.Name, task.Description)
		if tier == TierNoMatch {
			continue
		}
		matches = append(matches, ranked{task: task, tier: tier, fieldLen: fieldLen})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].tier != matches[j].tier {
			return matches[i].tier < matches[j].tier
		}
		if matches[i].fieldLen != matches[j].fieldLen {
			return matches[i].fieldLen < matches[j].fieldLen
		}
		return matches[i].task.CreatedAt.After(matches[j].task.CreatedAt)
	})

	result := make([]model.Task, len(matches))
	for i, m := range matches {
		result[i] = m.task
	}
	return result
}
