// Package ai produces in-character replies for the reference chat endpoint.
package ai

import (
	"context"
	"math/rand/v2"
)

// Generator turns a user message into a reply from characterID.
type Generator interface {
	Reply(ctx context.Context, characterID, message string) (string, error)
}

// DefaultLine answers for characters without placeholder lines.
const DefaultLine = "I understand."

var placeholderLines = map[string][]string{
	"walter-white": {
		"I am the one who knocks! But more importantly, I am the one who understands chemistry at a molecular level.",
		"Jesse, you asked about chemistry... wait, you're not Jesse. Never mind. The point is, everything is chemistry.",
		"I am not crazy! I know the periodic table like the back of my hand.",
		"Say my name... Actually, you already know it. Let's focus on the science.",
	},
	"dexter": {
		"Interesting. Your question reveals patterns in your thinking that I find... illuminating.",
		"My Dark Passenger is quiet right now, which means I can focus entirely on our conversation.",
		"I've analyzed thousands of blood spatter patterns. Human behavior follows patterns too.",
		"Tonight's the night... for a meaningful conversation, that is.",
	},
	"thomas-shelby": {
		"By order of the Peaky Blinders, I'll give you a straight answer.",
		"I've seen men rise and fall in Birmingham. What matters is how you handle both.",
		"Family is everything. Business is everything else. What category does your question fall into?",
		"The smoke from the factories clears eventually. Truth, however, remains.",
	},
}

// PlaceholderGenerator answers with canned lines and needs no model.
type PlaceholderGenerator struct {
	// pick returns an index in [0, n); rand.IntN when nil.
	pick func(n int) int
}

// NewPlaceholderGenerator returns a generator picking lines at random.
func NewPlaceholderGenerator() *PlaceholderGenerator {
	return &PlaceholderGenerator{pick: rand.IntN}
}

// Reply picks one of the character's lines, ignoring message.
func (g *PlaceholderGenerator) Reply(_ context.Context, characterID, _ string) (string, error) {
	lines, ok := placeholderLines[characterID]
	if !ok {
		return DefaultLine, nil
	}
	pick := g.pick
	if pick == nil {
		pick = rand.IntN
	}
	return lines[pick(len(lines))], nil
}

// PlaceholderLines returns the canned lines for characterID.
func PlaceholderLines(characterID string) []string {
	return append([]string(nil), placeholderLines[characterID]...)
}
