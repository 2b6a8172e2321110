package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// errInterrupted is Ctrl-C pressed inside the spinner view, where the terminal is in raw mode
// and no SIGINT reaches the process
var errInterrupted = errors.New("interrupted")

// frame is one render of a running operation
type frame struct {
	Status string
	Done   bool
}

// follow renders progress until read reports Done or changes closes. It returns ctx.Err() when
// ctx ends first and errInterrupted when the user quit the spinner view
func (a *App) follow(ctx context.Context, title string, plain bool, changes <-chan struct{}, read func() frame) error {
	if a.TTY && !plain {
		return a.followTUI(ctx, title, changes, read)
	}
	return a.followPlain(ctx, title, changes, read)
}

func (a *App) followPlain(ctx context.Context, title string, changes <-chan struct{}, read func() frame) error {
	last := ""
	emit := func() bool {
		f := read()
		if f.Status != "" && f.Status != last {
			fmt.Fprintf(a.Err, "%s: %s\n", title, f.Status)
			last = f.Status
		}
		return f.Done
	}
	if emit() {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-changes:
			if !ok || emit() {
				return nil
			}
		}
	}
}

type frameMsg frame

type progressModel struct {
	title       string
	spin        spinner.Model
	frame       frame
	interrupted bool
}

func newProgressModel(title string) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle
	return progressModel{title: title, spin: s}
}

func (m progressModel) Init() tea.Cmd { return m.spin.Tick }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.interrupted = true
			return m, tea.Quit
		}
	case frameMsg:
		m.frame = frame(msg)
		if m.frame.Done {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.frame.Done || m.interrupted {
		return ""
	}
	return m.spin.View() + " " + titleStyle.Render(m.title) + "  " + mutedStyle.Render(m.frame.Status) + "\n"
}

func (a *App) followTUI(ctx context.Context, title string, changes <-chan struct{}, read func() frame) error {
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(a.Err)}
	if a.In != nil {
		opts = append(opts, tea.WithInput(a.In))
	}
	p := tea.NewProgram(newProgressModel(title), opts...)

	go func() {
		send := func() bool {
			f := read()
			p.Send(frameMsg(f))
			return f.Done
		}
		if send() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					p.Send(frameMsg{Done: true})
					return
				}
				if send() {
					return
				}
			}
		}
	}()

	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, tea.ErrInterrupted) {
			return errInterrupted
		}
		return err
	}
	if m, ok := final.(progressModel); ok && m.interrupted {
		return errInterrupted
	}
	return nil
}

// paint styles text only on a terminal so piped output stays plain
func (a *App) paint(s lipgloss.Style, text string) string {
	if !a.TTY {
		return text
	}
	return s.Render(text)
}

// stopped reports an interrupted follow as ErrCancelled and passes anything else through
func (a *App) stopped(note string, err error) error {
	if errors.Is(err, errInterrupted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		fmt.Fprintln(a.Err, a.paint(mutedStyle, note))
		return ErrCancelled
	}
	return err
}
