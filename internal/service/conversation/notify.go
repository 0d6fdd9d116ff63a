package conversation

import (
	"context"

	speechmodel "github.com/zhouzirui/persona-chat/internal/model/speech"
)

// Variant tells a presentation layer how loudly to show a notification.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// NotificationKind says which operation produced a notification.
type NotificationKind string

const (
	KindChatFailure   NotificationKind = "chat_failure"
	KindSpeechFailure NotificationKind = "speech_failure"
)

// Notification is a transient, user-visible message.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Variant     Variant          `json:"variant"`
}

var (
	chatFailureNotice = Notification{
		Kind:        KindChatFailure,
		Title:       "Error",
		Description: "Failed to get response. Please try again.",
		Variant:     VariantDestructive,
	}
	speechFailureNotice = Notification{
		Kind:        KindSpeechFailure,
		Title:       "Voice Error",
		Description: "Could not generate voice. Please try again.",
		Variant:     VariantDefault,
	}
)

// Notifier receives notifications. Implementations must not block for long:
// they are called from the goroutine completing a request.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Player hands an audio reference to the host's audio subsystem. Play should
// return once playback has started; it must not wait for it to finish.
type Player interface {
	Play(ctx context.Context, ref speechmodel.AudioRef) error
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(ctx context.Context, ref speechmodel.AudioRef) error

// Play calls f(ctx, ref).
func (f PlayerFunc) Play(ctx context.Context, ref speechmodel.AudioRef) error { return f(ctx, ref) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}

type nopPlayer struct{}

func (nopPlayer) Play(context.Context, speechmodel.AudioRef) error { return nil }
