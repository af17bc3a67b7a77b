// Package speech defines the speech I/O device ports. The core only supplies
// finished text and an options bundle; audio capture and playback mechanics
// live behind these interfaces.
package speech

import (
	"context"
	"log/slog"
)

// Options is the bundle handed to the output device alongside the text.
type Options struct {
	VoiceID         string
	Pitch           float64
	Rate            float64
	Volume          float64
	EnhancedQuality bool
}

// Output consumes finished assistant message text and renders audio.
type Output interface {
	Speak(ctx context.Context, text string, opts Options) error
}

// RecognizedText is one recognition result from the input device. Only final
// results are treated as user input.
type RecognizedText struct {
	Text  string
	Final bool
}

// Input produces recognized text strings. Finalized results are fed to the
// conversation identically to typed input.
type Input interface {
	Results() <-chan RecognizedText
}

// NopInput is an input device that never produces results. It stands in for
// a real speech recognizer.
type NopInput struct{}

// NewNopInput creates the no-op input device.
func NewNopInput() *NopInput {
	return &NopInput{}
}

// Results returns a nil channel; receives block until the consumer's context
// ends.
func (*NopInput) Results() <-chan RecognizedText {
	return nil
}

// LogOutput is a no-op output device that records what would have been
// spoken. It stands in for a real TTS device.
type LogOutput struct {
	logger *slog.Logger
}

// NewLogOutput creates an slog-backed Output.
func NewLogOutput(logger *slog.Logger) *LogOutput {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogOutput{logger: logger.With("component", "speech_output")}
}

// Speak logs the utterance instead of rendering audio.
func (o *LogOutput) Speak(ctx context.Context, text string, opts Options) error {
	o.logger.DebugContext(ctx, "speaking", "voice_id", opts.VoiceID, "rate", opts.Rate, "chars", len(text))
	return nil
}
