package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/config"
)

const remoteSystemInstruction = "You are Bella, a warm and concise personal assistant. " +
	"Reply in at most three sentences unless the user asks for detail."

// RemoteSource is the real ResponseSource implementation: it calls the
// Gemini API through the genai SDK. It conforms to the same timing contract
// as the offline source.
type RemoteSource struct {
	genaiClient *genai.Client
	sim         *Simulator
	logger      *slog.Logger
	model       string
	contentCfg  *genai.GenerateContentConfig
	maxRetries  int
	retryDelay  time.Duration
}

// NewRemoteSource creates a Gemini-backed response source with the provided
// configuration. It initializes the connection to the Gemini API and sets up
// retry parameters.
func NewRemoteSource(ctx context.Context, cfg config.GeminiConfig, sim *Simulator, logger *slog.Logger) (*RemoteSource, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	contentCfg := &genai.GenerateContentConfig{
		Temperature:       &cfg.Temperature,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: remoteSystemInstruction}}},
	}

	log := logger.With("component", "remote_source")
	log.Info("Gemini response source initialized", "model", cfg.Model)
	return &RemoteSource{
		genaiClient: gi,
		sim:         sim,
		logger:      log,
		model:       cfg.Model,
		contentCfg:  contentCfg,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}, nil
}

// Generate produces a reply from the remote model, tagged with the provider
// and model identifier.
func (s *RemoteSource) Generate(ctx context.Context, req Request) (Response, error) {
	if err := s.sim.Wait(ctx, req.Text); err != nil {
		return Response{}, fmt.Errorf("remote generation interrupted: %w", err)
	}

	prompt := req.Text
	if req.Intent.Label != "" {
		prompt = fmt.Sprintf("[intent: %s] %s", req.Intent.Label, req.Text)
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := s.generateWithRetries(ctx, contents)
	if err != nil {
		return Response{}, err
	}

	text, err := extractText(resp)
	if err != nil {
		return Response{}, err
	}

	s.logger.DebugContext(ctx, "remote reply generated", "model", s.model)
	return Response{Text: text, Provider: string(KindGemini), Model: s.model}, nil
}

func (s *RemoteSource) generateWithRetries(ctx context.Context, contents []*genai.Content) (*genai.GenerateContentResponse, error) {
	var resp *genai.GenerateContentResponse
	var err error

	for i := 0; i <= s.maxRetries; i++ {
		resp, err = s.genaiClient.Models.GenerateContent(ctx, s.model, contents, s.contentCfg)
		if err == nil {
			return resp, nil
		}

		s.logger.WarnContext(ctx, "Gemini API call failed, checking for retry",
			"attempt", i+1, "max_retries", s.maxRetries, "error", err)

		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && (apiErr.Code == 500 || apiErr.Code == 503) {
			if i < s.maxRetries {
				s.logger.InfoContext(ctx, "Retrying Gemini API call", "delay", s.retryDelay, "code", apiErr.Code)
				time.Sleep(s.retryDelay)
				continue
			}
			return nil, fmt.Errorf("gemini API call failed after %d retries (code %d): %w", s.maxRetries, apiErr.Code, err)
		}

		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return nil, err
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini response contained no candidates")
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("gemini response contained no text parts")
	}
	return text, nil
}
