package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eteu-technologies/s3-deployer/internal/deploy"
)

var ErrCancelled = errors.New("prompt cancelled")

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#6BCB77")).
			Border(lipgloss.NormalBorder(), true, false).
			BorderForeground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginBottom(1)

	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD93D"))
)

// Header renders the banner printed before an interactive run.
func Header() string {
	return headerStyle.Render("S3 Deployer is Initializing.")
}

// Terminal asks the operator through an interactive TUI.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

var _ deploy.Prompter = (*Terminal)(nil)

func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stdout}
}

func (t *Terminal) run(ctx context.Context, model tea.Model) (tea.Model, error) {
	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithInput(t.In),
		tea.WithOutput(t.Out),
	)
	return program.Run()
}

type environmentItem string

func (i environmentItem) Title() string       { return string(i) }
func (i environmentItem) Description() string { return "" }
func (i environmentItem) FilterValue() string { return string(i) }

type environmentChooser struct {
	list      list.Model
	choice    string
	cancelled bool
}

func newEnvironmentChooser(names []string) environmentChooser {
	items := make([]list.Item, len(names))
	for i, name := range names {
		items[i] = environmentItem(name)
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(items, delegate, 40, len(names)+6)
	l.Title = "What environment are you deploying to?"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(len(names) > 5)

	return environmentChooser{list: l}
}

func (m environmentChooser) Init() tea.Cmd { return nil }

func (m environmentChooser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(environmentItem); ok {
				m.choice = string(item)
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m environmentChooser) View() string {
	if m.choice != "" || m.cancelled {
		return ""
	}
	return m.list.View()
}

func (t *Terminal) ChooseEnvironment(ctx context.Context, names []string) (string, error) {
	if len(names) == 0 {
		return "", errors.New("no environments to choose from")
	}

	final, err := t.run(ctx, newEnvironmentChooser(names))
	if err != nil {
		return "", fmt.Errorf("environment prompt failed: %w", err)
	}

	chooser := final.(environmentChooser)
	if chooser.cancelled || chooser.choice == "" {
		return "", ErrCancelled
	}
	return chooser.choice, nil
}

type messageInput struct {
	input     textinput.Model
	done      bool
	cancelled bool
}

func newMessageInput() messageInput {
	ti := textinput.New()
	ti.Placeholder = deploy.DefaultDeployMessage
	ti.CharLimit = 500
	ti.Width = 60
	ti.Focus()
	return messageInput{input: ti}
}

func (m messageInput) Init() tea.Cmd { return textinput.Blink }

func (m messageInput) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m messageInput) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return questionStyle.Render("What is this deploy about?") + "\n" + m.input.View() + "\n"
}

// DeployMessage returns the typed message; an empty answer is returned as
// is and replaced with the default by the orchestrator.
func (t *Terminal) DeployMessage(ctx context.Context) (string, error) {
	final, err := t.run(ctx, newMessageInput())
	if err != nil {
		return "", fmt.Errorf("deploy message prompt failed: %w", err)
	}

	input := final.(messageInput)
	if input.cancelled {
		return "", ErrCancelled
	}
	return input.input.Value(), nil
}
