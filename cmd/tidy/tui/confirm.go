package tui

import (
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmOptions configures a confirmation dialog.
type ConfirmOptions struct {
	// Prompt is the question shown as the dialog title.
	Prompt string

	// Details are extra lines shown under the prompt, such as a preview
	// of what the run would do.
	Details []string

	// DryRun adds a note that nothing will be moved.
	DryRun bool
}

type confirmKeyMap struct {
	Yes    key.Binding
	No     key.Binding
	Left   key.Binding
	Right  key.Binding
	Toggle key.Binding
	Submit key.Binding
	Quit   key.Binding
}

var confirmKeys = confirmKeyMap{
	Yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
	No:     key.NewBinding(key.WithKeys("n", "N", "q", "esc"), key.WithHelp("n", "no")),
	Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "cancel")),
	Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "proceed")),
	Toggle: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "abort")),
}

// ConfirmModel is a yes/no dialog. Cancel is focused initially.
type ConfirmModel struct {
	opts     ConfirmOptions
	focused  int // 0 = cancel, 1 = proceed
	answered bool
	accepted bool
}

// NewConfirmModel creates a dialog for opts.
func NewConfirmModel(opts ConfirmOptions) ConfirmModel {
	return ConfirmModel{opts: opts}
}

// Init implements tea.Model.
func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, confirmKeys.Quit), key.Matches(keyMsg, confirmKeys.No):
		return m.answer(false)
	case key.Matches(keyMsg, confirmKeys.Yes):
		return m.answer(true)
	case key.Matches(keyMsg, confirmKeys.Left):
		m.focused = 0
	case key.Matches(keyMsg, confirmKeys.Right):
		m.focused = 1
	case key.Matches(keyMsg, confirmKeys.Toggle):
		m.focused = (m.focused + 1) % 2
	case key.Matches(keyMsg, confirmKeys.Submit):
		return m.answer(m.focused == 1)
	}
	return m, nil
}

func (m ConfirmModel) answer(yes bool) (tea.Model, tea.Cmd) {
	m.answered = true
	m.accepted = yes
	return m, tea.Quit
}

// Accepted reports whether the user chose to proceed.
func (m ConfirmModel) Accepted() bool {
	return m.answered && m.accepted
}

// View implements tea.Model.
func (m ConfirmModel) View() string {
	if m.answered {
		return ""
	}

	var b strings.Builder
	b.WriteString(dialogTitleStyle.Render(m.opts.Prompt))
	b.WriteString("\n")
	if len(m.opts.Details) > 0 {
		b.WriteString("\n")
		for _, line := range m.opts.Details {
			b.WriteString(detailStyle.Render(line))
			b.WriteString("\n")
		}
	}
	if m.opts.DryRun {
		b.WriteString("\n")
		b.WriteString(warningTextStyle.Render("(Dry run - no files will be moved)"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	cancelBtn := inactiveButtonStyle.Render("Cancel")
	proceedBtn := inactiveButtonStyle.Render("Proceed")
	if m.focused == 0 {
		cancelBtn = activeButtonStyle.Background(primaryColor).Render("Cancel")
	} else {
		proceedBtn = activeButtonStyle.Render("Proceed")
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, cancelBtn, "  ", proceedBtn))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("y/n to answer, ←/→ to choose, enter to confirm"))

	return dialogBoxStyle.Render(b.String()) + "\n"
}

// Confirm runs the dialog on in/out and returns the answer.
func Confirm(opts ConfirmOptions, in io.Reader, out io.Writer) (bool, error) {
	p := tea.NewProgram(NewConfirmModel(opts),
		tea.WithInput(in),
		tea.WithOutput(out),
	)

	final, err := p.Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(ConfirmModel)
	return ok && m.Accepted(), nil
}
