package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tradecoach/internal/reasoning"
	"tradecoach/internal/service"
)

// CoachPort is the console-facing subset of the coach service.
type CoachPort interface {
	PreTradeCheck(ctx context.Context, req service.PreTradeRequest) service.PreTradeResult
	ReflectionCheck(ctx context.Context, text string) service.ReflectionResult
}

const (
	focusCompany = iota
	focusReasoning
)

type checkDoneMsg struct{ res service.PreTradeResult }

type reflectDoneMsg struct{ res service.ReflectionResult }

// Model is the Bubble Tea model for the console.
type Model struct {
	ctx       context.Context
	coach     CoachPort
	company   textinput.Model
	reasoning textinput.Model
	focus     int
	viewport  viewport.Model
	header    string
	status    string
	body      string
	sessionID string
	totalXP   int
	busy      bool
	ready     bool
}

// New creates the console model. header is shown above the inputs.
func New(ctx context.Context, coach CoachPort, header string) Model {
	company := textinput.New()
	company.Prompt = "company > "
	company.Placeholder = "e.g. TCS.NS"
	company.Focus()

	why := textinput.New()
	why.Prompt = "reasoning > "
	why.Placeholder = "Why this trade? (optional)"
	why.CharLimit = 0

	return Model{
		ctx:       ctx,
		coach:     coach,
		company:   company,
		reasoning: why,
		viewport:  viewport.New(0, 0),
		header:    header,
		status:    "Enter: pre-trade check · Ctrl+R: reflection on reasoning · Tab: switch field",
		body:      "No checks yet.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + 2*ih + 2 // header lines, status, two input boxes, input lines
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.body)
		return m, nil

	case checkDoneMsg:
		m.busy = false
		m.sessionID = msg.res.SessionID
		m.totalXP += msg.res.XPAwarded
		m.status = fmt.Sprintf("Session %s · total XP %d", m.sessionID, m.totalXP)
		m.body = renderCheck(msg.res, m.company.Value())
		m.viewport.SetContent(m.body)
		return m, nil

	case reflectDoneMsg:
		m.busy = false
		m.totalXP += msg.res.XPAwarded
		m.status = fmt.Sprintf("Reflection scored · total XP %d", m.totalXP)
		m.body = renderJudgement(msg.res.Verdict, msg.res.XPAwarded, msg.res.JudgementMessage)
		m.viewport.SetContent(m.body)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab", "shift+tab":
			m = m.toggleFocus()
			return m, nil
		case "enter":
			if m.busy {
				return m, nil
			}
			company := strings.TrimSpace(m.company.Value())
			if company == "" {
				m.status = "Enter a company first."
				return m, nil
			}
			m.busy = true
			m.status = fmt.Sprintf("Checking %s...", company)
			return m, m.checkCmd(service.PreTradeRequest{
				SessionID:     m.sessionID,
				Company:       company,
				UserReasoning: m.reasoning.Value(),
			})
		case "ctrl+r":
			if m.busy {
				return m, nil
			}
			text := strings.TrimSpace(m.reasoning.Value())
			if text == "" {
				m.status = "Write some reasoning to reflect on."
				return m, nil
			}
			m.busy = true
			m.status = "Scoring reflection..."
			return m, m.reflectCmd(text)
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	if m.focus == focusCompany {
		m.company, cmd = m.company.Update(msg)
	} else {
		m.reasoning, cmd = m.reasoning.Update(msg)
	}
	return m, cmd
}

func (m Model) toggleFocus() Model {
	if m.focus == focusCompany {
		m.focus = focusReasoning
		m.company.Blur()
		m.reasoning.Focus()
	} else {
		m.focus = focusCompany
		m.reasoning.Blur()
		m.company.Focus()
	}
	return m
}

func (m Model) checkCmd(req service.PreTradeRequest) tea.Cmd {
	return func() tea.Msg {
		return checkDoneMsg{res: m.coach.PreTradeCheck(m.ctx, req)}
	}
}

func (m Model) reflectCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return reflectDoneMsg{res: m.coach.ReflectionCheck(m.ctx, text)}
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Trade Coach")
	sub := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.header)
	results := resultBoxStyle.Render(m.viewport.View())
	company := inputBoxStyle.Render(m.company.View())
	why := inputBoxStyle.Render(m.reasoning.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + sub + "\n" + results + "\n" + company + "\n" + why + "\n" + status
}

func renderCheck(res service.PreTradeResult, company string) string {
	news := highlightBestSentence(res.CompanyNews, company)
	return renderJudgement(res.Verdict, res.XPAwarded, res.JudgementMessage) +
		"\n\n" + sectionStyle.Render("Company news") + "\n" + news
}

func renderJudgement(v reasoning.Verdict, xp int, message string) string {
	title := verdictStyle(v).Render(strings.ToUpper(string(v))) + fmt.Sprintf("  +%d XP", xp)
	return title + "\n\n" + message
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sectionStyle   = lipgloss.NewStyle().Underline(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	wordRe         = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

func verdictStyle(v reasoning.Verdict) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch v {
	case reasoning.VerdictGood:
		return s.Foreground(lipgloss.Color("10"))
	case reasoning.VerdictRisky:
		return s.Foreground(lipgloss.Color("11"))
	case reasoning.VerdictPoor:
		return s.Foreground(lipgloss.Color("9"))
	default:
		return s.Foreground(lipgloss.Color("8"))
	}
}

// highlightBestSentence emphasizes the sentence sharing the most words with
// query. Text without sentence punctuation is returned unchanged.
func highlightBestSentence(text, query string) string {
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		return text
	}
	q := toTokenSet(query)
	if len(q) == 0 {
		return text
	}
	best, bestScore := -1, 0
	for i, s := range sentences {
		if score := overlap(q, s); score > bestScore {
			best, bestScore = i, score
		}
	}
	out := make([]string, len(sentences))
	for i, s := range sentences {
		s = strings.TrimSpace(s)
		if i == best {
			s = highlightStyle.Render(s)
		}
		out[i] = s
	}
	return strings.Join(out, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := wordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func overlap(q map[string]struct{}, sentence string) int {
	n := 0
	for t := range toTokenSet(sentence) {
		if _, ok := q[t]; ok {
			n++
		}
	}
	return n
}
