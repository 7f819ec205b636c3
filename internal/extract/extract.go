// Package extract turns free-form input (text, images, voice transcripts)
// into structured event descriptors using a generative model, grounded on a
// fixed-timezone now-context so relative expressions resolve
// deterministically.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"calbot/internal/clock"
	"calbot/internal/models"

	"google.golang.org/genai"
)

// ErrNoResponse means the model returned nothing usable at the transport
// level (as opposed to returning prose the parser could not salvage).
var ErrNoResponse = errors.New("no model response")

const maxExtractTokens = 500

// Extractor issues extraction and transcription calls against the Gemini
// API.
type Extractor struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewExtractor creates an Extractor for the given model.
func NewExtractor(ctx context.Context, logger *slog.Logger, apiKey, model string) (*Extractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Extractor{client: client, model: model, logger: logger}, nil
}

// FromText extracts one or more event descriptors from free-form text. A
// message describing several distinct occasions yields one descriptor per
// occasion.
func (e *Extractor) FromText(ctx context.Context, now clock.Context, text string) ([]models.EventDescriptor, error) {
	system := textSystemPrompt + groundingLine(now)
	parts := []*genai.Part{genai.NewPartFromText(text)}

	reply, err := e.generate(ctx, system, parts)
	if err != nil {
		return nil, err
	}

	parsed, err := parseDescriptors(reply)
	if err != nil {
		e.logger.Warn("Could not parse model reply as events", "reply", truncate(reply, 200))
		return nil, err
	}
	return normalizeAll(parsed)
}

// FromImage extracts exactly one event descriptor from an image
// (invitation, flyer, screenshot). The caption, when present, is passed as
// disambiguating context only; the instruction contract forbids using it as
// the title.
func (e *Extractor) FromImage(ctx context.Context, now clock.Context, image []byte, mimeType, caption string) (models.EventDescriptor, error) {
	system := imageSystemPrompt + groundingLine(now)

	parts := []*genai.Part{genai.NewPartFromBytes(image, mimeType)}
	if caption != "" {
		parts = append(parts, genai.NewPartFromText(fmt.Sprintf(`[הקשר: ההודעה הועברה עם הכיתוב: "%s"]`, caption)))
	}

	reply, err := e.generate(ctx, system, parts)
	if err != nil {
		return models.EventDescriptor{}, err
	}

	parsed, err := parseDescriptors(reply)
	if err != nil {
		e.logger.Warn("Could not parse model reply as event", "reply", truncate(reply, 200))
		return models.EventDescriptor{}, err
	}

	// A single image depicts one occasion.
	normalized, err := normalizeAll(parsed[:1])
	if err != nil {
		return models.EventDescriptor{}, err
	}
	return normalized[0], nil
}

// Transcribe turns a voice recording into plain text with a Hebrew
// language hint.
func (e *Extractor) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(transcribePrompt),
		genai.NewPartFromBytes(audio, mimeType),
	}

	reply, err := e.generate(ctx, "", parts)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	transcript := strings.TrimSpace(reply)
	if transcript == "" {
		return "", fmt.Errorf("transcription failed: %w", ErrNoResponse)
	}
	return transcript, nil
}

// generate issues one GenerateContent call at low temperature. An empty
// reply gets a single retry; retrying on parse failures is the caller's
// policy decision and never done here.
func (e *Extractor) generate(ctx context.Context, system string, parts []*genai.Part) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.1),
		MaxOutputTokens: maxExtractTokens,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	for attempt := 0; attempt < 2; attempt++ {
		resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, cfg)
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}
		if text := resp.Text(); strings.TrimSpace(text) != "" {
			return text, nil
		}
		e.logger.Warn("Empty model reply, retrying once", "attempt", attempt)
	}
	return "", ErrNoResponse
}

// groundingLine renders the now-context appended to every instruction.
func groundingLine(now clock.Context) string {
	return fmt.Sprintf("\n\nהיום: %s (יום %s), השעה עכשיו: %s", now.Date, now.Weekday, now.Time)
}

// normalizeAll applies the extraction contract's defaults and drops
// descriptors missing required fields. An empty result after filtering is
// unparseable output, not a valid extraction.
func normalizeAll(parsed []models.EventDescriptor) ([]models.EventDescriptor, error) {
	out := make([]models.EventDescriptor, 0, len(parsed))
	for _, d := range parsed {
		d.Title = strings.TrimSpace(d.Title)
		if d.Title == "" || d.Date == "" || d.StartTime == "" {
			continue
		}
		if d.EndDate == "" {
			d.EndDate = d.Date
		}
		if d.EndTime == "" {
			d.EndTime = plusOneHour(d.StartTime)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil, ErrUnparseable
	}
	return out, nil
}

// plusOneHour implements the contract's end-time default. The date does not
// roll over: an event starting at 23:30 ends at 23:59 rather than gaining a
// day the user never mentioned.
func plusOneHour(start string) string {
	t, err := time.Parse("15:04", start)
	if err != nil {
		return start
	}
	end := t.Add(time.Hour)
	if end.Day() != t.Day() {
		return "23:59"
	}
	return end.Format("15:04")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
