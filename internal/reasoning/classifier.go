package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"tradecoach/internal/domain"
)

const promptTemplate = `
You are a financial reasoning classifier for beginner students.
You do NOT give investment advice.
You ONLY analyze reasoning quality and biases.

User reasoning:
"%s"

Return ONLY valid JSON using this schema:
%s
`

// Classification is the outcome of one classifier call. Err is nil only when
// Signal was parsed from the model's answer.
type Classification struct {
	Signal Signal
	Err    error
	Raw    string
}

func (c Classification) OK() bool { return c.Err == nil }

// SignalOrDefault returns the parsed signal, or DefaultSignal when
// classification failed.
func (c Classification) SignalOrDefault() Signal {
	if c.Err != nil {
		return DefaultSignal()
	}
	return c.Signal
}

type Classifier struct {
	generator domain.Generator
	logger    *slog.Logger
	schema    string
}

func NewClassifier(g domain.Generator, logger *slog.Logger) *Classifier {
	schema, _ := json.MarshalIndent(DefaultSignal(), "", "  ")
	return &Classifier{generator: g, logger: logger, schema: string(schema)}
}

// Prompt renders the instruction sent to the model for text.
func (c *Classifier) Prompt(text string) string {
	return fmt.Sprintf(promptTemplate, text, c.schema)
}

// Classify asks the model to judge text. It never returns an error directly;
// failures are reported in the Classification.
func (c *Classifier) Classify(ctx context.Context, text string) Classification {
	raw, err := c.generator.Generate(ctx, c.Prompt(text))
	if err != nil {
		return Classification{Err: fmt.Errorf("classify reasoning: %w", err)}
	}
	sig, err := ParseSignal(raw)
	if err != nil {
		c.logger.Debug("unparseable classifier response", "raw", raw, "err", err)
		return Classification{Err: fmt.Errorf("classify reasoning: %w", err), Raw: raw}
	}
	return Classification{Signal: sig, Raw: raw}
}
