// Package reasoning classifies a user's written investment reasoning through
// a text-generation model and scores the result against a fixed rubric.
package reasoning

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Quality string

const (
	QualityWeak    Quality = "weak"
	QualityAverage Quality = "average"
	QualityStrong  Quality = "strong"
)

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Signal is the structured judgement the model returns for one text.
type Signal struct {
	ReasoningQuality     Quality    `json:"reasoning_quality"`
	TimeHorizonPresent   bool       `json:"time_horizon_present"`
	RiskAwarenessPresent bool       `json:"risk_awareness_present"`
	ConfidenceLevel      Confidence `json:"confidence_level"`
	DetectedBiases       []string   `json:"detected_biases"`
	ClarityScore         float64    `json:"clarity_score"`
}

// DefaultSignal is the most cautious judgement, used whenever the model's
// answer cannot be obtained or trusted.
func DefaultSignal() Signal {
	return Signal{
		ReasoningQuality:     QualityWeak,
		TimeHorizonPresent:   false,
		RiskAwarenessPresent: false,
		ConfidenceLevel:      ConfidenceMedium,
		DetectedBiases:       []string{},
		ClarityScore:         0.3,
	}
}

// ErrMalformedSignal reports a response without a valid signal object.
var ErrMalformedSignal = errors.New("malformed reasoning signal")

// wireSignal uses pointers so absent fields can be told apart from zero values.
type wireSignal struct {
	ReasoningQuality     *Quality    `json:"reasoning_quality"`
	TimeHorizonPresent   *bool       `json:"time_horizon_present"`
	RiskAwarenessPresent *bool       `json:"risk_awareness_present"`
	ConfidenceLevel      *Confidence `json:"confidence_level"`
	DetectedBiases       *[]string   `json:"detected_biases"`
	ClarityScore         *float64    `json:"clarity_score"`
}

// ParseSignal extracts the first balanced JSON object from raw model output
// and decodes it. All six fields are required and enums must be known values.
func ParseSignal(raw string) (Signal, error) {
	span, ok := firstObject(raw)
	if !ok {
		return Signal{}, fmt.Errorf("%w: no JSON object in response", ErrMalformedSignal)
	}

	var w wireSignal
	if err := json.Unmarshal([]byte(span), &w); err != nil {
		return Signal{}, fmt.Errorf("%w: %v", ErrMalformedSignal, err)
	}

	switch {
	case w.ReasoningQuality == nil:
		return Signal{}, missing("reasoning_quality")
	case w.TimeHorizonPresent == nil:
		return Signal{}, missing("time_horizon_present")
	case w.RiskAwarenessPresent == nil:
		return Signal{}, missing("risk_awareness_present")
	case w.ConfidenceLevel == nil:
		return Signal{}, missing("confidence_level")
	case w.DetectedBiases == nil:
		return Signal{}, missing("detected_biases")
	case w.ClarityScore == nil:
		return Signal{}, missing("clarity_score")
	}

	switch *w.ReasoningQuality {
	case QualityWeak, QualityAverage, QualityStrong:
	default:
		return Signal{}, fmt.Errorf("%w: reasoning_quality %q", ErrMalformedSignal, *w.ReasoningQuality)
	}
	switch *w.ConfidenceLevel {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
	default:
		return Signal{}, fmt.Errorf("%w: confidence_level %q", ErrMalformedSignal, *w.ConfidenceLevel)
	}

	return Signal{
		ReasoningQuality:     *w.ReasoningQuality,
		TimeHorizonPresent:   *w.TimeHorizonPresent,
		RiskAwarenessPresent: *w.RiskAwarenessPresent,
		ConfidenceLevel:      *w.ConfidenceLevel,
		DetectedBiases:       *w.DetectedBiases,
		ClarityScore:         *w.ClarityScore,
	}, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing %s", ErrMalformedSignal, field)
}

// firstObject returns the first balanced {...} span in s. Braces inside JSON
// string literals are not counted.
func firstObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
