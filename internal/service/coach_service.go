package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"

	"tradecoach/internal/domain"
	"tradecoach/internal/reasoning"
	"tradecoach/internal/retriever"
)

// Retriever returns the chunk texts nearest to a query, nearest first.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]string, error)
}

// Classifier turns free-text reasoning into a classification result.
type Classifier interface {
	Classify(ctx context.Context, text string) reasoning.Classification
}

const (
	noNewsSummary       = "No significant recent information found."
	summaryUnavailable  = "Unable to generate company summary."
	companyNewsTemplate = `
Summarize the key business information and risks about %s
using the context below. Keep it short and factual.

Context:
%s
`
	groundedTemplate = `
You are a financial news summarizer for beginner students.
Do NOT give investment advice.

Context:
%s

Task:
Based ONLY on the context above, write 2–3 simple sentences describing
business activity, stability, or risks related to %s.
Do NOT say you lack information.
Do NOT refuse.
If information is limited, summarize whatever is available.
`
)

var negativeWords = []string{"risk", "uncertain", "volatility", "pressure", "slowdown", "regulatory"}

// NewsDigest is a short summary of what the corpus says about a company.
type NewsDigest struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Sentiment int    `json:"sentiment"`
	Grounded  bool   `json:"-"`
}

type PreTradeRequest struct {
	SessionID     string
	Company       string
	UserReasoning string
}

type PreTradeResult struct {
	SessionID        string            `json:"session_id"`
	Verdict          reasoning.Verdict `json:"verdict"`
	XPAwarded        int               `json:"xp_awarded"`
	JudgementMessage string            `json:"judgement_message"`
	CompanyNews      string            `json:"company_news"`
}

// ReflectionResult carries only the judgement; the classifier signal stays
// inside the service.
type ReflectionResult struct {
	Verdict          reasoning.Verdict `json:"verdict"`
	XPAwarded        int               `json:"xp_awarded"`
	JudgementMessage string            `json:"judgement_message"`
}

// CoachService runs the request pipelines. Failures of the embedding and
// generation backends are contained here and replaced by fallback values.
type CoachService struct {
	retriever  Retriever
	generator  domain.Generator
	classifier Classifier
	topK       int
	logger     *slog.Logger
}

func NewCoachService(r Retriever, g domain.Generator, c Classifier, topK int, logger *slog.Logger) *CoachService {
	return &CoachService{retriever: r, generator: g, classifier: c, topK: topK, logger: logger}
}

// CompanyNews summarizes the chunks retrieved for the company name as given.
func (s *CoachService) CompanyNews(ctx context.Context, company string) NewsDigest {
	chunks, err := s.retriever.Retrieve(ctx, company, s.topK)
	if err != nil {
		s.logger.Warn("retrieval failed, no news", "company", company, "err", err)
		chunks = nil
	}
	chunks = retriever.FilterByEntity(chunks, company)
	if len(chunks) == 0 {
		return NewsDigest{Title: company, Summary: noNewsSummary, Sentiment: 0}
	}

	prompt := fmt.Sprintf(companyNewsTemplate, company, strings.Join(chunks, "\n"))
	summary, err := s.generator.Generate(ctx, prompt)
	grounded := err == nil
	if err != nil {
		s.logger.Warn("generation failed, using fallback summary", "company", company, "err", err)
		summary = summaryUnavailable
	}
	summary = strings.TrimSpace(summary)
	return NewsDigest{
		Title:     company,
		Summary:   summary,
		Sentiment: DetectSentiment(summary),
		Grounded:  grounded,
	}
}

// GroundedSummary writes a short summary of the normalized company from
// retrieved context. The bool is false when the fallback text was used.
func (s *CoachService) GroundedSummary(ctx context.Context, company string) (string, bool) {
	normalized := retriever.NormalizeCompany(company)
	chunks, err := s.retriever.Retrieve(ctx, normalized, s.topK)
	if err != nil {
		s.logger.Warn("retrieval failed, using fallback news", "company", normalized, "err", err)
		return fallbackNews(normalized), false
	}
	chunks = retriever.FilterByEntity(chunks, normalized)
	if len(chunks) == 0 {
		return fallbackNews(normalized), false
	}

	prompt := fmt.Sprintf(groundedTemplate, strings.Join(chunks, "\n"), normalized)
	out, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Warn("generation failed, using fallback news", "company", normalized, "err", err)
		return fallbackNews(normalized), false
	}
	return strings.TrimSpace(out), true
}

func fallbackNews(company string) string {
	return fmt.Sprintf("No significant recent information found about %s.", company)
}

// PreTradeCheck pairs the grounded summary for a company with a judgement
// of the user's reasoning. Blank reasoning is judged unknown without calling
// the classifier.
func (s *CoachService) PreTradeCheck(ctx context.Context, req PreTradeRequest) PreTradeResult {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = ulid.Make().String()
	}
	news, _ := s.GroundedSummary(ctx, req.Company)

	judgement := reasoning.NoReasoning()
	if strings.TrimSpace(req.UserReasoning) != "" {
		judgement = s.judge(ctx, req.UserReasoning)
	}

	s.logger.Info("pre-trade check", "session", sessionID, "company", req.Company, "verdict", judgement.Verdict, "xp", judgement.XPAwarded)
	return PreTradeResult{
		SessionID:        sessionID,
		Verdict:          judgement.Verdict,
		XPAwarded:        judgement.XPAwarded,
		JudgementMessage: judgement.Feedback,
		CompanyNews:      news,
	}
}

// ReflectionCheck classifies and scores reasoning written after a trade.
func (s *CoachService) ReflectionCheck(ctx context.Context, text string) ReflectionResult {
	j := s.judge(ctx, text)
	return ReflectionResult{Verdict: j.Verdict, XPAwarded: j.XPAwarded, JudgementMessage: j.Feedback}
}

func (s *CoachService) judge(ctx context.Context, text string) reasoning.Judgement {
	c := s.classifier.Classify(ctx, text)
	if !c.OK() {
		s.logger.Warn("classification failed, using default signal", "err", c.Err)
	}
	return reasoning.Score(c.SignalOrDefault())
}

// DetectSentiment returns 0 (cautious) when the text mentions at least two
// distinct negative keywords, otherwise 1 (positive).
func DetectSentiment(text string) int {
	lower := strings.ToLower(text)
	hits := 0
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	if hits >= 2 {
		return 0
	}
	return 1
}
