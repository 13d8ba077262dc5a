// Package studyui provides the Bubble Tea SRS review interface.
package studyui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/entrenacoco/rosco/internal/model"
	"github.com/entrenacoco/rosco/internal/srs"
	"github.com/entrenacoco/rosco/internal/store"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#35D07F")).Bold(true)
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type item struct {
	card model.Card
	rec  model.ProgressRecord
}

// Model implements the Bubble Tea study UI.
type Model struct {
	store *store.Store

	items      []item
	idx        int
	showAnswer bool
	reviewed   int

	width  int
	height int
}

// NewModel collects the due and new cards of a deck for review.
func NewModel(ctx context.Context, st *store.Store, deckID string) (*Model, error) {
	cards, err := st.ListCards(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	now := time.Now()
	m := &Model{store: st}
	for _, c := range cards {
		rec := srs.NewRecord(c.DeckID, c.CardID)
		stored, err := st.GetProgress(ctx, c.Key)
		if err == nil && stored != nil {
			rec = *stored
		}
		if srs.IsNew(rec) || srs.IsDue(rec, now) {
			m.items = append(m.items, item{card: c, rec: rec})
		}
	}
	return m, nil
}

// Pending returns how many cards are waiting for review.
func (m *Model) Pending() int {
	return len(m.items) - m.idx
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "enter", " ":
			if m.idx < len(m.items) {
				m.showAnswer = !m.showAnswer
			}
			return m, nil
		case "0", "1", "2", "3":
			if m.showAnswer && m.idx < len(m.items) {
				m.grade(int(msg.String()[0] - '0'))
			}
			return m, nil
		}
	}
	return m, nil
}

func (m *Model) grade(grade int) {
	it := m.items[m.idx]
	updated := srs.ApplyReview(it.rec, grade, time.Now())
	if err := m.store.PutProgress(context.Background(), updated); err != nil {
		logErrf("failed to save progress: %v\n", err)
	}
	m.reviewed++
	m.idx++
	m.showAnswer = false
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	if m.idx >= len(m.items) {
		b.WriteString(titleStyle.Render("Repaso terminado"))
		b.WriteString("\n\n")
		if m.reviewed == 0 {
			b.WriteString("Hoy no tienes tarjetas pendientes. Vuelve mañana.")
		} else {
			b.WriteString(fmt.Sprintf("Has repasado %d tarjetas.", m.reviewed))
		}
		b.WriteString("\n\n")
		b.WriteString(footerStyle.Render("q salir"))
		return b.String()
	}

	it := m.items[m.idx]
	b.WriteString(progressStyle.Render(fmt.Sprintf("%d/%d", m.idx+1, len(m.items))))
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("Pregunta"))
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(it.card.Question))
	b.WriteString("\n\n")

	if m.showAnswer {
		b.WriteString(mutedStyle.Render("Respuesta"))
		b.WriteString("\n")
		b.WriteString(answerStyle.Render(it.card.Answer))
		if it.card.Explanation != "" {
			b.WriteString("\n")
			b.WriteString(mutedStyle.Render(it.card.Explanation))
		}
		b.WriteString("\n\n")
		b.WriteString(footerStyle.Render("0 otra vez · 1 difícil · 2 bien · 3 fácil"))
	} else {
		b.WriteString(footerStyle.Render("Enter ver respuesta · q salir"))
	}
	return b.String()
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
