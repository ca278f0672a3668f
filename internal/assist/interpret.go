package assist

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"hnreader/internal/hn"
	"hnreader/internal/llm"
)

// Action is a UI command chosen by the model.
type Action struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

const ActionNone = "none"

var actions = func() map[string]bool {
	m := map[string]bool{
		"theme:dark":       true,
		"theme:light":      true,
		"navigate:home":    true,
		"navigate:about":   true,
		"scroll:top":       true,
		"scroll:bottom":    true,
		"navigate:back":    true,
		"navigate:forward": true,
		"page:refresh":     true,
		ActionNone:         true,
	}
	for _, c := range hn.Categories {
		m["navigate:storytype:"+string(c)] = true
	}
	return m
}()

// KnownAction reports whether a belongs to the closed action set.
func KnownAction(a string) bool { return actions[a] }

type InterpretInput struct {
	Command string
	Theme   string
	Page    string
	History []string
}

var jsonObject = regexp.MustCompile(`\{[^}]+\}`)

// Interpret maps a spoken command to an Action. Model output that is not a
// known action degrades to ActionNone; only transport failures are errors.
func (s *Service) Interpret(ctx context.Context, in InterpretInput) (Action, error) {
	out, err := s.generate(ctx, llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Text: interpretPrompt(in.Command, in.Theme, in.Page, in.History)}},
		JSON:     true,
	})
	if err != nil {
		return Action{}, err
	}
	return parseAction(out), nil
}

func parseAction(out string) Action {
	raw := jsonObject.FindString(out)
	if raw == "" {
		return Action{Action: ActionNone, Reason: "Could not understand command"}
	}
	var a Action
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return Action{Action: ActionNone, Reason: "Could not parse response"}
	}
	a.Action = strings.TrimSpace(a.Action)
	if !KnownAction(a.Action) {
		return Action{Action: ActionNone, Reason: "Could not parse response"}
	}
	return a
}
