package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/entrenacoco/rosco/internal/letters"
	"github.com/entrenacoco/rosco/internal/model"
	"github.com/entrenacoco/rosco/internal/round"
	"github.com/entrenacoco/rosco/internal/speech"
	"github.com/entrenacoco/rosco/internal/stats"
	"github.com/entrenacoco/rosco/internal/store"
	"github.com/entrenacoco/rosco/internal/telemetry"
)

var (
	letterNewStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	letterOKStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#35D07F"))
	letterFailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	letterSkipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	letterEmptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	letterCurrentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true).Underline(true)
	questionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	hintStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Italic(true)
	pillStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	wrongStyle         = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#FF4D4F")).
				Padding(0, 1)
	endStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type tickMsg time.Time

type transcriptMsg string

type micClosedMsg struct{}

// Model implements the Bubble Tea round UI.
type Model struct {
	cfg     model.RoundConfig
	session *round.Session
	store   *store.Store
	rec     *telemetry.Recorder
	speaker speech.Output
	mic     speech.Input

	input textinput.Model

	width  int
	height int

	muted     bool
	listening bool
	saved     bool

	lastSpokenCardID string
}

// NewModel constructs the round TUI model. The session must not be
// started yet; the model owns its lifecycle from here on.
func NewModel(cfg model.RoundConfig, session *round.Session, st *store.Store, rec *telemetry.Recorder, speaker speech.Output, mic speech.Input) *Model {
	input := textinput.New()
	input.Placeholder = "Escribe la respuesta…"
	input.CharLimit = 120
	input.Focus()

	m := &Model{
		cfg:     cfg,
		session: session,
		store:   st,
		rec:     rec,
		speaker: speaker,
		mic:     mic,
		input:   input,
		muted:   cfg.Mute,
	}
	session.Start(context.Background())
	m.autoSpeak()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), textinput.Blink}
	if m.cfg.Voice {
		cmds = append(cmds, m.startListening())
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.session.Tick(context.Background())
		m.afterTransition()
		if m.session.Ended() {
			return m, nil
		}
		return m, tickCmd()

	case transcriptMsg:
		// Voice answers land in the field and submit themselves.
		m.input.SetValue(string(msg))
		m.submit()
		return m, m.waitTranscript()

	case micClosedMsg:
		m.listening = false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.teardown()
		return m, tea.Quit

	case "enter":
		snap := m.session.Snapshot()
		switch {
		case snap.Ended:
			m.teardown()
			return m, tea.Quit
		case snap.Paused:
			m.session.AcknowledgeReview(context.Background())
			m.afterTransition()
		default:
			m.submit()
		}
		return m, nil

	case "ctrl+p":
		m.session.Skip(context.Background())
		m.input.Reset()
		m.afterTransition()
		return m, nil

	case "ctrl+f":
		m.session.Fail(context.Background())
		m.input.Reset()
		m.afterTransition()
		return m, nil

	case "ctrl+r":
		if m.session.Ended() {
			m.saved = false
			m.lastSpokenCardID = ""
			m.session.Restart(context.Background())
			m.afterTransition()
			return m, tickCmd()
		}
		return m, nil

	case "ctrl+o":
		m.muted = !m.muted
		if m.muted {
			m.speaker.Cancel()
		}
		return m, nil

	case "ctrl+v":
		if m.listening {
			m.mic.Stop()
			m.listening = false
			return m, nil
		}
		return m, m.startListening()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submit() {
	m.session.Submit(context.Background(), m.input.Value())
	m.input.Reset()
	m.afterTransition()
}

// afterTransition handles everything that follows a state change:
// reading the next question aloud, quieting voice on pause/end, and
// persisting the finished round exactly once.
func (m *Model) afterTransition() {
	snap := m.session.Snapshot()
	if snap.Paused || snap.Ended {
		m.speaker.Cancel()
	}
	if snap.Ended {
		m.finishRound()
		return
	}
	m.autoSpeak()
}

func (m *Model) autoSpeak() {
	if m.muted {
		return
	}
	snap := m.session.Snapshot()
	if snap.Paused || snap.Ended || snap.Card == nil {
		return
	}
	if snap.Card.CardID == m.lastSpokenCardID {
		return
	}
	m.lastSpokenCardID = snap.Card.CardID
	m.speaker.Speak(snap.Card.Question)
}

func (m *Model) finishRound() {
	if m.saved {
		return
	}
	m.saved = true
	m.mic.Stop()
	m.listening = false

	sum := m.session.Summary()
	sum.Score = telemetry.ScoreFor(sum)
	ctx := context.Background()
	if _, err := m.store.InsertRound(ctx, sum); err != nil {
		logErrf("failed to save round: %v\n", err)
	}
	go func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		m.rec.SubmitScore(flushCtx, sum)
		m.rec.Flush(flushCtx)
	}()
}

func (m *Model) teardown() {
	m.session.Close()
	m.speaker.Cancel()
	m.mic.Stop()
	// Drain whatever is still queued, including events from an
	// abandoned round.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	m.rec.Flush(ctx)
}

func (m *Model) startListening() tea.Cmd {
	if err := m.mic.Start(); err != nil {
		logErrf("failed to start voice input: %v\n", err)
		return nil
	}
	if m.mic.Transcripts() == nil {
		return nil
	}
	m.listening = true
	return m.waitTranscript()
}

func (m *Model) waitTranscript() tea.Cmd {
	ch := m.mic.Transcripts()
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		text, ok := <-ch
		if !ok {
			return micClosedMsg{}
		}
		return transcriptMsg(text)
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	snap := m.session.Snapshot()

	var b strings.Builder
	b.WriteString(m.renderHeader(snap))
	b.WriteString("\n")
	b.WriteString(m.renderWheel(snap))
	b.WriteString("\n\n")

	switch {
	case snap.Ended:
		b.WriteString(m.renderEnd())
	case snap.Paused && snap.Review != nil:
		b.WriteString(m.renderReview(snap))
	case snap.Card != nil:
		b.WriteString(m.renderQuestion(snap))
	default:
		b.WriteString("No hay tarjetas jugables en este mazo.")
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderFooter(snap))
	return b.String()
}

func (m *Model) renderHeader(snap round.Snapshot) string {
	segments := []string{
		fmt.Sprintf("Tiempo %s", fmtClock(snap.RoundTimeLeft)),
	}
	if !snap.Ended && snap.Card != nil && !snap.Paused {
		segments = append(segments, fmt.Sprintf("Pregunta %ds", snap.QuestionTimeLeft))
	}
	segments = append(segments,
		fmt.Sprintf("Racha %d", snap.Streak),
		fmt.Sprintf("Δ %.2f", snap.Difficulty),
	)
	if m.muted {
		segments = append(segments, "silencio")
	}
	if m.listening {
		segments = append(segments, "escuchando…")
	}
	return pillStyle.Render(strings.Join(segments, "  ·  "))
}

func (m *Model) renderWheel(snap round.Snapshot) string {
	var b strings.Builder
	for i, l := range letters.PerimeterOrder() {
		if i > 0 {
			b.WriteString(" ")
		}
		label := string(l)
		style := letterNewStyle
		switch snap.Outcomes[l] {
		case round.OutcomeOK:
			style = letterOKStyle
		case round.OutcomeFail:
			style = letterFailStyle
		case round.OutcomeSkip:
			style = letterSkipStyle
		}
		if l == snap.Letter {
			style = letterCurrentStyle
		}
		b.WriteString(style.Render(label))
	}
	return b.String()
}

func (m *Model) renderQuestion(snap round.Snapshot) string {
	width := m.contentWidth()
	var b strings.Builder
	b.WriteString(questionStyle.Render(wrapText(fmt.Sprintf("[%s] %s", string(snap.Letter), snap.Card.Question), width)))
	if snap.Card.Hint != "" {
		b.WriteString("\n")
		b.WriteString(hintStyle.Render(wrapText("Pista: "+snap.Card.Hint, width)))
	}
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m *Model) renderReview(snap round.Snapshot) string {
	width := m.contentWidth()
	given := snap.Review.Given
	if given == "" {
		given = "—"
	}
	lines := []string{
		"❌ Incorrecto",
		"Tu respuesta: " + given,
		"Respuesta correcta: " + snap.Review.CorrectAnswer,
	}
	if snap.Review.Explanation != "" {
		lines = append(lines, wrapText(snap.Review.Explanation, width))
	}
	lines = append(lines, "", "Enter para continuar")
	return wrongStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderEnd() string {
	sum := m.session.Summary()
	acc, _ := stats.RoundMetrics(sum.OK, sum.Fail, sum.DurationMs)
	lines := []string{
		"Fin de ronda",
		fmt.Sprintf("%d aciertos · %d fallos · %d pasadas", sum.OK, sum.Fail, sum.Skip),
		fmt.Sprintf("Mejor racha: %d · Precisión: %.0f%%", sum.BestStreak, acc*100),
		fmt.Sprintf("Puntuación: %d", telemetry.ScoreFor(sum)),
		"",
		"Ctrl+R otra ronda · Enter salir",
	}
	return endStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter(snap round.Snapshot) string {
	if snap.Ended {
		return footerStyle.Render("Ctrl+C salir")
	}
	help := "Enter responder · Ctrl+P pasar · Ctrl+F fallo · Ctrl+O voz on/off"
	if m.cfg.Voice {
		help += " · Ctrl+V micro"
	}
	return footerStyle.Render(help)
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 72
	}
	width := int(float64(m.width) * 0.8)
	if width < 20 {
		width = 20
	}
	return width
}

func fmtClock(sec int) string {
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
