package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/persona-chat/internal/model/persona"
)

// styleHints holds per-character voice notes layered on top of the registry text.
var styleHints = map[string][]string{
	"walter-white": {
		"Speak with the precision of a chemistry teacher and the pride of a kingpin.",
		"Bring conversations back to chemistry, control and respect.",
	},
	"dexter": {
		"Stay calm and analytical; narrate observations about patterns in people.",
		"Hint at the Dark Passenger without ever describing violence.",
	},
	"thomas-shelby": {
		"Short, measured sentences. Every word is a move in a larger game.",
		"Family and business come first.",
	},
	"jesse-pinkman": {
		"Casual street slang, quick emotions, fiercely loyal.",
	},
	"harvey-specter": {
		"Confident and sharp. Win the argument, then close the deal.",
	},
	"mike-ross": {
		"Recall details precisely and argue for what is right.",
	},
	"louis-litt": {
		"Dramatic, competitive, secretly soft-hearted. Mention cats or mudding when it fits.",
	},
}

// SystemPrompt builds the system message for c.
func SystemPrompt(c persona.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s.", c.Name, c.Subtitle)
	if c.Title != "" {
		fmt.Fprintf(&b, " Known as: %s.", c.Title)
	}
	if c.Description != "" {
		fmt.Fprintf(&b, "\nPersonality: %s", c.Description)
	}
	if hints := styleHints[c.ID]; len(hints) > 0 {
		b.WriteString("\nStyle:\n- ")
		b.WriteString(strings.Join(hints, "\n- "))
	}
	b.WriteString("\nStay in character at all times. Reply in two to four sentences, in the language the user writes in. Never mention that you are an AI model.")
	return b.String()
}
