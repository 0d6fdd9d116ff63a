package chat

import "time"

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderCharacter Sender = "character"
)

// Message is one entry of a conversation log. It is never mutated after creation.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// FromCharacter reports whether the message was authored by the persona.
func (m Message) FromCharacter() bool {
	return m.Sender == SenderCharacter
}
