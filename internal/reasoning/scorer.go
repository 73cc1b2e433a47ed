package reasoning

type Verdict string

const (
	VerdictGood    Verdict = "good"
	VerdictRisky   Verdict = "risky"
	VerdictPoor    Verdict = "poor"
	VerdictUnknown Verdict = "unknown"
)

// Judgement is the rubric outcome shown to the user.
type Judgement struct {
	Verdict   Verdict `json:"verdict"`
	XPAwarded int     `json:"xp_awarded"`
	Feedback  string  `json:"feedback"`
}

const fomoBias = "fomo"

const noReasoningMessage = "No reasoning provided."

var feedback = map[Verdict]string{
	VerdictGood: `Your reasoning shows a balanced way of thinking. You considered both
positive factors and risks. This shows awareness of uncertainty.
To improve, clearly state your time horizon and how you would respond to changes.`,

	VerdictRisky: `Your reasoning shows some understanding but is influenced by bias or
short-term focus. You may be relying on recent trends.
To improve, consider what could go wrong and how long your decision depends on current conditions.`,

	VerdictPoor: `Your reasoning lacks clarity and risk awareness.
Important factors such as uncertainty or supporting information are missing.
To improve, explain your interest clearly, identify risks, and state what information you used.`,
}

// Score applies the XP rubric to s. The fomo override runs after all
// bonuses and replaces whatever verdict the quality produced.
func Score(s Signal) Judgement {
	xp := 0
	verdict := VerdictPoor

	switch s.ReasoningQuality {
	case QualityStrong:
		xp += 30
		verdict = VerdictGood
	case QualityAverage:
		xp += 15
		verdict = VerdictRisky
	default:
		xp += 5
	}

	if s.TimeHorizonPresent {
		xp += 10
	}
	if s.RiskAwarenessPresent {
		xp += 10
	}
	if s.ClarityScore > 0.6 {
		xp += 5
	}

	for _, b := range s.DetectedBiases {
		if b == fomoBias {
			xp -= 5
			verdict = VerdictRisky
			break
		}
	}

	return Judgement{
		Verdict:   verdict,
		XPAwarded: max(xp, 0),
		Feedback:  feedback[verdict],
	}
}

// NoReasoning is the judgement for a request that carried no reasoning text.
func NoReasoning() Judgement {
	return Judgement{Verdict: VerdictUnknown, XPAwarded: 0, Feedback: noReasoningMessage}
}
