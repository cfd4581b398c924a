package types

import "strings"

// ConversationTurn is one (role, content) pair in a conversation payload.
type ConversationTurn struct {
	Role    string
	Content string
}

// Payload is either a plain string or a conversation. Exactly one of Text
// or Conversation should be set; Flatten handles both uniformly.
type Payload struct {
	Text         string
	Conversation []ConversationTurn
}

// NewTextPayload wraps a plain string payload.
func NewTextPayload(text string) Payload {
	return Payload{Text: text}
}

// NewConversationPayload wraps an ordered sequence of (role, content) turns.
func NewConversationPayload(turns []ConversationTurn) Payload {
	return Payload{Conversation: turns}
}

// Flatten deterministically reduces the payload to a single string, joining
// "<role>: <content>" lines with newlines for conversations. This exact
// flattening is part of the contract (SPEC_FULL.md §4.2) so that token
// counts are reproducible across reimplementations.
func (p Payload) Flatten() string {
	if p.Conversation == nil {
		return p.Text
	}
	lines := make([]string, 0, len(p.Conversation))
	for _, turn := range p.Conversation {
		lines = append(lines, turn.Role+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}
