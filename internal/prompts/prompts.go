// Package prompts builds agent instructions from session state. Builders are
// pure string formatting: a missing key is rendered as an empty string.
package prompts

import (
	"fmt"
	"strings"

	"google.golang.org/adk/agent"

	"stock-analysis-agent/internal/types"
)

// State is the read side of a session's state. session.ReadonlyState satisfies it.
type State interface {
	Get(key string) (any, error)
}

// Builder renders one agent's instruction.
type Builder func(State) string

// MapState adapts a plain map, mostly for tests and offline rendering.
type MapState map[string]any

func (m MapState) Get(key string) (any, error) {
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("state key %q not found", key)
	}
	return v, nil
}

// Provider adapts a builder to an llmagent instruction provider.
func Provider(b Builder) func(agent.ReadonlyContext) (string, error) {
	return func(ctx agent.ReadonlyContext) (string, error) {
		return b(ctx.ReadonlyState()), nil
	}
}

// str returns the state value under key as a string, "" when absent.
func str(s State, key string) string {
	if s == nil {
		return ""
	}
	v, err := s.Get(key)
	if err != nil || v == nil {
		return ""
	}
	if t, ok := v.(string); ok {
		return t
	}
	return fmt.Sprint(v)
}

// teamInstruction looks up the project manager's note for one team.
func teamInstruction(s State, team string) string {
	if s == nil {
		return ""
	}
	v, err := s.Get(types.KeyPMInstructions)
	if err != nil || v == nil {
		return ""
	}
	switch m := v.(type) {
	case types.PMInstructions:
		return m[team]
	case map[string]string:
		return m[team]
	case map[string]any:
		if note, ok := m[team]; ok && note != nil {
			return fmt.Sprint(note)
		}
	case string:
		return ParsePMInstructions(m)[team]
	}
	return ""
}

// section is a titled block with the body on the following lines.
func section(b *strings.Builder, title, body string) {
	b.WriteString("[")
	b.WriteString(title)
	b.WriteString("]\n")
	b.WriteString(body)
	b.WriteString("\n\n")
}

func sharedPreamble(b *strings.Builder, s State) {
	b.WriteString("Shared instruction for every agent: ")
	b.WriteString(str(s, types.KeySharedInstruction))
	b.WriteString("\n\n")
}

// pmSection puts the team's note at the top of the prompt. It is omitted when
// the project manager gave no note for the team.
func pmSection(b *strings.Builder, s State, team, role string) {
	note := teamInstruction(s, team)
	if note == "" {
		return
	}
	b.WriteString("[IMPORTANT] Team instruction from the project manager\n")
	b.WriteString("----------------------------------------\n")
	b.WriteString(note)
	b.WriteString("\n----------------------------------------\n\n")
	b.WriteString("You are the ")
	b.WriteString(role)
	b.WriteString(" of this team. Work within the team instruction above.\n\n")
}

func userQuery(b *strings.Builder, s State) {
	section(b, "Original user query", str(s, types.KeyUserQuery))
}

func reportDate(b *strings.Builder, s State) {
	b.WriteString("Report date: ")
	b.WriteString(str(s, types.KeyTimestamp))
	b.WriteString(" (render it as a readable local time)\n\n")
}

func upstream(b *strings.Builder, s State, title, key string) {
	b.WriteString("**")
	b.WriteString(title)
	b.WriteString("**\n")
	b.WriteString(str(s, key))
	b.WriteString("\n\n")
}
