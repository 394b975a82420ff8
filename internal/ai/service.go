package ai

import (
	"context"
	"fmt"
	"strings"

	"planner/internal/model"
)

// Service builds the task-management prompts on top of the raw client
type Service struct {
	client *Client
}

func NewService(client *Client) *Service {
	return &Service{client: client}
}

// Complete forwards a raw conversation to the model
func (s *Service) Complete(ctx context.Context, messages []Message, useJSONFormat bool) (string, error) {
	return s.client.Complete(ctx, messages, useJSONFormat)
}

// GenerateDescription asks the model for a short description of a task
func (s *Service) GenerateDescription(ctx context.Context, taskName string) (string, error) {
	messages := []Message{
		{
			Role: "system",
			Content: "You are a personal productivity assistant. Write a short, " +
				"practical description (2-3 sentences) for the task the user names. " +
				"Reply with the description text only, no preamble.",
		},
		{Role: "user", Content: taskName},
	}

	description, err := s.client.Complete(ctx, messages, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(description), nil
}

// SuggestTasks asks the model which tasks are missing from the user's list.
// A malformed reply is treated as no suggestions, never as a partial result.
func (s *Service) SuggestTasks(ctx context.Context, existing []model.Task) ([]Suggestion, error) {
	names := make([]string, 0, len(existing))
	for _, task := range existing {
		if !task.Completed {
			names = append(names, task.Name)
		}
	}

	prompt := "The user currently has these open tasks:\n"
	if len(names) == 0 {
		prompt = "The user currently has no open tasks.\n"
	} else {
		prompt += "- " + strings.Join(names, "\n- ") + "\n"
	}
	prompt += "\nSuggest up to 5 tasks they are likely missing. Respond with a JSON object " +
		`of the form {"todos": [{"taskName": "...", "description": "..."}]} and nothing else.`

	messages := []Message{
		{
			Role: "system",
			Content: "You are a personal productivity assistant helping the user keep " +
				"their to-do list complete.",
		},
		{Role: "user", Content: prompt},
	}

	raw, err := s.client.Complete(ctx, messages, true)
	if err != nil {
		return nil, fmt.Errorf("suggestion request failed: %w", err)
	}

	return ParseSuggestions(raw)
}
