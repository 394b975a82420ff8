package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrBadResponse means the model reply did not follow the expected JSON
// shape; callers treat it as "no suggestions"
var ErrBadResponse = errors.New("malformed AI response")

// Suggestion is one task proposed by the model
type Suggestion struct {
	TaskName    string `json:"taskName"`
	Description string `json:"description"`
}

type suggestionsEnvelope struct {
	Todos []Suggestion `json:"todos"`
}

// ParseSuggestions parses the raw model reply: an optional ``` or ```json
// fence around a JSON object with a todos array of {taskName, description}.
// Any deviation from that grammar yields ErrBadResponse.
func ParseSuggestions(raw string) ([]Suggestion, error) {
	text := stripCodeFence(strings.TrimSpace(raw))
	if text == "" {
		return nil, ErrBadResponse
	}

	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.DisallowUnknownFields()

	var envelope suggestionsEnvelope
	if err := decoder.Decode(&envelope); err != nil {
		return nil, ErrBadResponse
	}
	if envelope.Todos == nil {
		return nil, ErrBadResponse
	}

	for _, s := range envelope.Todos {
		if s.TaskName == "" {
			return nil, ErrBadResponse
		}
	}
	return envelope.Todos, nil
}

// stripCodeFence removes a surrounding markdown code fence, with or without
// a json language tag
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
