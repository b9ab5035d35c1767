// Package board is an interactive kanban view of the caller's cards, one
// column per status.
package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kutbudev/cardboard/internal/api"
	"github.com/kutbudev/cardboard/internal/models"
)

// Source loads and moves cards.
type Source interface {
	ListTaxonomy(ctx context.Context, kind api.Kind) ([]models.Term, error)
	ListAllCards(ctx context.Context, q api.CardQuery) ([]models.Card, error)
	UpdateCard(ctx context.Context, id uint, data map[string]interface{}) (*models.Card, error)
}

// LoadedMsg carries a fresh snapshot of the board.
type LoadedMsg struct {
	Statuses []models.Term
	Cards    []models.Card
}

// MovedMsg reports a card that changed status.
type MovedMsg struct {
	Card models.Card
}

// ErrMsg reports a failed load or move.
type ErrMsg struct {
	Err error
}

type column struct {
	status models.Term
	cards  []models.Card
}

// Model is the board view.
type Model struct {
	source  Source
	keys    KeyMap
	help    help.Model
	columns []column
	col     int
	row     int
	loading bool
	err     error
	width   int
	height  int
}

// New creates a board reading from source.
func New(source Source) Model {
	return Model{
		source:  source,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		loading: true,
	}
}

// Init loads the board.
func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		statuses, err := m.source.ListTaxonomy(ctx, api.Statuses)
		if err != nil {
			return ErrMsg{Err: err}
		}
		cards, err := m.source.ListAllCards(ctx, api.CardQuery{})
		if err != nil {
			return ErrMsg{Err: err}
		}
		return LoadedMsg{Statuses: statuses, Cards: cards}
	}
}

func (m Model) move(card models.Card, status uint) tea.Cmd {
	return func() tea.Msg {
		moved, err := m.source.UpdateCard(context.Background(), card.ID, map[string]interface{}{"status": status})
		if err != nil {
			return ErrMsg{Err: err}
		}
		return MovedMsg{Card: *moved}
	}
}

// Update handles messages for the board.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case LoadedMsg:
		m.loading = false
		m.err = nil
		m.columns = group(msg.Statuses, msg.Cards)
		m.clamp()
		return m, nil

	case MovedMsg:
		m.err = nil
		m.place(msg.Card)
		return m, nil

	case ErrMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.load()

	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
			m.clamp()
		}

	case key.Matches(msg, m.keys.Right):
		if m.col < len(m.columns)-1 {
			m.col++
			m.clamp()
		}

	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}

	case key.Matches(msg, m.keys.Down):
		if c, ok := m.current(); ok && m.row < len(c.cards)-1 {
			m.row++
		}

	case key.Matches(msg, m.keys.MoveNext):
		return m, m.shift(1)

	case key.Matches(msg, m.keys.MovePrev):
		return m, m.shift(-1)
	}

	return m, nil
}

// shift moves the selected card by delta columns.
func (m Model) shift(delta int) tea.Cmd {
	card, ok := m.Selected()
	target := m.col + delta
	if !ok || target < 0 || target >= len(m.columns) {
		return nil
	}
	return m.move(card, m.columns[target].status.ID)
}

// Selected returns the card under the cursor.
func (m Model) Selected() (models.Card, bool) {
	c, ok := m.current()
	if !ok || m.row >= len(c.cards) {
		return models.Card{}, false
	}
	return c.cards[m.row], true
}

func (m Model) current() (column, bool) {
	if m.col >= len(m.columns) {
		return column{}, false
	}
	return m.columns[m.col], true
}

func (m *Model) clamp() {
	if m.col >= len(m.columns) {
		m.col = max(len(m.columns)-1, 0)
	}
	c, ok := m.current()
	if !ok || len(c.cards) == 0 {
		m.row = 0
		return
	}
	if m.row >= len(c.cards) {
		m.row = len(c.cards) - 1
	}
}

// place moves card into the column of its status and follows it there.
func (m *Model) place(card models.Card) {
	for i := range m.columns {
		cards := m.columns[i].cards[:0:0]
		for _, c := range m.columns[i].cards {
			if c.ID != card.ID {
				cards = append(cards, c)
			}
		}
		m.columns[i].cards = cards
	}

	for i := range m.columns {
		if m.columns[i].status.ID != card.StatusID {
			continue
		}
		m.columns[i].cards = insertByID(m.columns[i].cards, card)
		m.col = i
		for row, c := range m.columns[i].cards {
			if c.ID == card.ID {
				m.row = row
			}
		}
	}
	m.clamp()
}

func insertByID(cards []models.Card, card models.Card) []models.Card {
	at := len(cards)
	for i, c := range cards {
		if c.ID > card.ID {
			at = i
			break
		}
	}
	cards = append(cards, models.Card{})
	copy(cards[at+1:], cards[at:])
	cards[at] = card
	return cards
}

// group builds one column per status, lowest identifier first. Cards keep
// their order.
func group(statuses []models.Term, cards []models.Card) []column {
	columns := make([]column, len(statuses))
	index := make(map[uint]int, len(statuses))
	for i := range statuses {
		s := statuses[len(statuses)-1-i]
		columns[i] = column{status: s}
		index[s.ID] = i
	}

	for _, c := range cards {
		if i, ok := index[c.StatusID]; ok {
			columns[i].cards = append(columns[i].cards, c)
		}
	}
	return columns
}

// View renders the board.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("cardboard"))
	b.WriteString("\n\n")

	switch {
	case m.loading && len(m.columns) == 0:
		b.WriteString(mutedStyle.Render("loading..."))
	case len(m.columns) == 0:
		b.WriteString(mutedStyle.Render("No statuses yet. Ask a staff member to create some."))
	default:
		b.WriteString(m.renderColumns())
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderColumns() string {
	width := 28
	if m.width > 0 && len(m.columns) > 0 {
		width = max(m.width/len(m.columns)-4, 12)
	}

	rendered := make([]string, 0, len(m.columns))
	for i, c := range m.columns {
		lines := []string{headerStyle.Render(fmt.Sprintf("%s (%d)", truncate(c.status.Name, width-6), len(c.cards)))}
		for row, card := range c.cards {
			title := truncate(fmt.Sprintf("#%d %s", card.ID, card.Title), width-2)
			if i == m.col && row == m.row {
				lines = append(lines, selectedCardStyle.Render(title))
			} else {
				lines = append(lines, cardStyle.Render(title))
			}
		}
		if len(c.cards) == 0 {
			lines = append(lines, mutedStyle.Render("empty"))
		}

		style := columnStyle
		if i == m.col {
			style = activeColumnStyle
		}
		rendered = append(rendered, style.Width(width).Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
