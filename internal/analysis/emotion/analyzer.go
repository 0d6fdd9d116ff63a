// Package emotion picks a speaking emotion for a line of dialogue so the TTS
// voice can match its tone.
package emotion

import (
	"strings"
)

// Label is an emotion name accepted by the TTS service.
type Label string

const (
	Neutral  Label = "neutral"
	Happy    Label = "happy"
	Sad      Label = "sad"
	Angry    Label = "angry"
	Excited  Label = "excited"
	Tender   Label = "tender"
	Comfort  Label = "comfort"
	Magnetic Label = "magnetic"
)

// Decision is the detected emotion and a suggested intensity in [1, 5].
type Decision struct {
	Emotion Label
	Scale   float32
	Score   int
}

// ranking order breaks ties between equal scores
var labels = []Label{Angry, Magnetic, Sad, Comfort, Tender, Excited, Happy}

var keywords = map[Label][]string{
	Happy: {
		"glad", "happy", "great", "wonderful", "thank you", "thanks", "love", "pleasure",
		"delighted", "nice", "good news", "haha", "congratulations",
	},
	Sad: {
		"sorry", "sad", "miss", "lost", "alone", "tired", "regret", "grief", "hurt",
		"cry", "broken", "gone",
	},
	Angry: {
		"angry", "furious", "damn", "hell", "enough", "shut up", "how dare", "get out",
		"idiot", "never again", "disrespect",
	},
	Excited: {
		"amazing", "incredible", "can't wait", "unbelievable", "let's go", "wow", "yes!",
		"brilliant", "huge",
	},
	Tender: {
		"gently", "softly", "quiet", "calm", "easy now", "dear", "sweet", "careful",
	},
	Comfort: {
		"don't worry", "it's okay", "it's alright", "i'm here", "you're safe", "breathe",
		"take it easy", "we'll figure", "not your fault",
	},
	Magnetic: {
		"listen", "understand", "remember", "must", "never", "rule", "business",
		"serious", "mistake", "warning", "i am the one", "by order",
	},
}

// Detect scores text against keyword buckets. Text with no cues is Neutral.
func Detect(text string) Decision {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Decision{Emotion: Neutral, Scale: 3}
	}

	scores := make(map[Label]int, len(labels))
	for _, label := range labels {
		for _, word := range keywords[label] {
			if strings.Contains(normalized, word) {
				scores[label] += 3
			}
		}
	}
	if n := strings.Count(text, "!"); n > 0 {
		scores[Excited] += 3 * n
		if n == 1 {
			scores[Happy] += 2
		}
	}

	best, bestScore := Neutral, 0
	for _, label := range labels {
		if scores[label] > bestScore {
			best, bestScore = label, scores[label]
		}
	}
	if bestScore == 0 {
		return Decision{Emotion: Neutral, Scale: 3}
	}
	return Decision{Emotion: best, Scale: scaleFor(best, bestScore), Score: bestScore}
}

func scaleFor(label Label, score int) float32 {
	scale := 2 + float32(score)/4
	switch label {
	case Excited:
		scale++
	case Magnetic:
		scale = min(scale, 4)
	case Comfort, Tender:
		scale = min(scale, 3.5)
	}
	return max(1, min(scale, 5))
}
