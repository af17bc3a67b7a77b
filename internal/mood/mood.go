// Package mood maps an intent classification to the assistant's displayed
// emotional state. Determination is a pure function: identical input always
// yields the identical mood, and no state is retained between calls.
package mood

import (
	"strings"

	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/intent"
)

// Mood is the assistant's displayed emotional state, independent of
// conversation content correctness.
type Mood string

// The closed set of display moods.
const (
	Happy     Mood = "happy"
	Curious   Mood = "curious"
	Thinking  Mood = "thinking"
	Neutral   Mood = "neutral"
	Surprised Mood = "surprised"
	Concerned Mood = "concerned"
	Excited   Mood = "excited"
	Confused  Mood = "confused"
)

// emotionMoods maps a detected primary emotion to a display mood. Checked
// first: an explicit emotional signal outranks the intent category.
var emotionMoods = map[intent.Emotion]Mood{
	intent.EmotionHappy:    Happy,
	intent.EmotionExcited:  Excited,
	intent.EmotionSad:      Concerned,
	intent.EmotionAngry:    Concerned,
	intent.EmotionConfused: Confused,
	intent.EmotionCurious:  Curious,
}

// intentMoods maps an intent label to a display mood when no emotion was
// detected.
var intentMoods = map[intent.Label]Mood{
	intent.LabelGreeting: Happy,
	intent.LabelFarewell: Happy,
	intent.LabelCalendar: Thinking,
	intent.LabelEmail:    Thinking,
	intent.LabelContacts: Thinking,
	intent.LabelReminder: Thinking,
	intent.LabelWeather:  Neutral,
	intent.LabelTime:     Neutral,
	intent.LabelSearch:   Curious,
	intent.LabelHelp:     Concerned,
}

var surpriseKeywords = []string{"wow", "really", "no way", "unbelievable"}
var concernKeywords = []string{"sorry", "worried", "problem", "wrong"}

// Determine computes the display mood for an intent result. Priority order:
// the detected emotion, then the intent label, then a scan of the raw text
// for question marks and sentiment keywords, defaulting to Neutral.
func Determine(result intent.Result) Mood {
	if m, ok := emotionMoods[result.PrimaryEmotion]; ok {
		return m
	}
	if m, ok := intentMoods[result.Label]; ok {
		return m
	}
	return fromText(result.NormalizedText)
}

func fromText(text string) Mood {
	for _, kw := range surpriseKeywords {
		if strings.Contains(text, kw) {
			return Surprised
		}
	}
	for _, kw := range concernKeywords {
		if strings.Contains(text, kw) {
			return Concerned
		}
	}
	if strings.Contains(text, "?") {
		return Curious
	}
	return Neutral
}
