package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
)

const purchasePollInterval = 100 * time.Millisecond

type purchaseDoneMsg struct {
	err error
}

type purchasePhaseMsg domain.PurchaseState

// purchaseProgressModel spins while a purchase runs and names the step the
// controller is on.
type purchaseProgressModel struct {
	spinner spinner.Model
	phase   lipgloss.Style
	label   string
	state   func() domain.PurchaseState
	current domain.PurchaseState
	buy     tea.Cmd
	err     error
	done    bool
}

func newPurchaseProgressModel(label string, state func() domain.PurchaseState, buy tea.Cmd) purchaseProgressModel {
	return purchaseProgressModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
		phase: lipgloss.NewStyle().Faint(true),
		label: label,
		state: state,
		buy:   buy,
	}
}

func (m purchaseProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.buy, m.poll())
}

func (m purchaseProgressModel) poll() tea.Cmd {
	return tea.Tick(purchasePollInterval, func(time.Time) tea.Msg {
		return purchasePhaseMsg(m.state())
	})
}

func (m purchaseProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case purchasePhaseMsg:
		if m.done {
			return m, nil
		}
		m.current = domain.PurchaseState(msg)
		return m, m.poll()
	case purchaseDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m purchaseProgressModel) View() string {
	if m.done {
		return ""
	}

	line := fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	if phase := purchasePhase(m.current); phase != "" {
		line += " " + m.phase.Render(phase)
	}

	return line
}

func purchasePhase(state domain.PurchaseState) string {
	switch state {
	case domain.PurchaseRequesting:
		return "opening store"
	case domain.PurchaseAwaitingProviderEvent:
		return "waiting for the store"
	case domain.PurchaseVerifying:
		return "verifying transaction"
	default:
		return ""
	}
}

// runPurchaseProgress shows label and the purchase step on output until buy
// returns.
func runPurchaseProgress(ctx context.Context, output io.Writer, label string, state func() domain.PurchaseState, buy func(context.Context) error) error {
	buyCmd := func() tea.Msg {
		return purchaseDoneMsg{err: buy(ctx)}
	}

	p := tea.NewProgram(
		newPurchaseProgressModel(label, state, buyCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(purchaseProgressModel)
	if !ok {
		return fmt.Errorf("unexpected final purchase model type %T", finalModel)
	}

	return result.err
}
