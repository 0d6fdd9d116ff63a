package persona

// GenericGreeting opens every conversation whose character has no dedicated line.
const GenericGreeting = "Hello there."

// greetings covers only part of the seed list. Characters missing here, and
// ids that are not registered at all, get GenericGreeting.
var greetings = map[string]string{
	"walter-white":  "I am not in danger, I AM the danger. What do you want to discuss?",
	"dexter":        "Hello. I find most people are predictable, but you might surprise me. What's on your mind?",
	"thomas-shelby": "Right then. You've got my attention. What business brings you here today?",
}

// GreetingFor returns the opening line for a conversation with characterID.
func GreetingFor(characterID string) string {
	if line, ok := greetings[characterID]; ok {
		return line
	}
	return GenericGreeting
}

// HasGreeting reports whether characterID has a dedicated opening line.
func HasGreeting(characterID string) bool {
	_, ok := greetings[characterID]
	return ok
}
