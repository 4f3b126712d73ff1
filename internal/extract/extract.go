// Package extract turns free-form intake conversation into a structured
// patient record using Claude. It is a collaborator of the triage
// engine, never a dependency: the engine only ever sees the validated
// record this package produces.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/acuity/internal/patient"
)

const responseTokens = 1024

const systemPrompt = `You are a clinical intake extraction assistant. Extract a
structured patient record from the conversation text you are given.

Respond with a single JSON object and nothing else, using exactly these keys:
{
  "age": int,
  "sex": "male" | "female" | "other",
  "complaint": string,
  "chronic_conditions": [string],
  "vitals": {
    "heart_rate": int,
    "systolic_bp": int,
    "diastolic_bp": int,
    "respiratory_rate": int,
    "temperature": float,
    "oxygen_saturation": int,
    "pain_score": int,
    "glasgow": int or null,
    "glucose": float or null
  }
}

Only report values actually stated in the text. Never invent a vital sign.
Temperature is in °C, glucose in g/L.`

// Extractor converts intake text into a validated patient.Record.
type Extractor struct {
	client anthropic.Client
	model  anthropic.Model
	logger log.Logger
}

// New creates an extractor backed by the Claude API.
func New(apiKey, model string, logger log.Logger) *Extractor {
	if logger == nil {
		logger = log.Nop()
	}
	return &Extractor{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
		logger: logger,
	}
}

// Extract asks Claude for a structured record and validates it before
// returning. Any validation failure is the caller's to surface; no
// partial record ever escapes.
func (e *Extractor) Extract(ctx context.Context, text string) (*patient.Record, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("extract: empty input text")
	}

	msg, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.model,
		MaxTokens: responseTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extract: claude call: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	e.logger.Info(ctx, "extraction response",
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens,
	)

	rec, err := parseRecord(sb.String())
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return rec, nil
}

// parseRecord decodes the model's JSON reply into a validated record.
// Code fences around the JSON are tolerated; anything else is not.
func parseRecord(raw string) (*patient.Record, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var rec patient.Record
	dec := json.NewDecoder(strings.NewReader(s))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}
