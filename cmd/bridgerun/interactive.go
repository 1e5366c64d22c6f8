package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lumenui/bridge"
	"github.com/lumenui/bridge/engine"
	"github.com/lumenui/bridge/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	propStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err       error
	sess      *session.Session
	input     textinput.Model
	filename  string
	propsFlag string
	dataFlag  string
	status    string
	events    []string
	state     modelState
}

type modelState int

const (
	stateTree modelState = iota
	stateSetProperty
	stateEmitEvent
	stateSetData
)

type loadedMsg struct {
	err  error
	sess *session.Session
}

func newInteractiveModel(filename, props, data string) *interactiveModel {
	m := &interactiveModel{
		filename: filename,
		state:    stateTree,
	}
	m.propsFlag = props
	m.dataFlag = data

	ti := textinput.New()
	ti.Width = 40
	m.input = ti
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadSession
}

func (m *interactiveModel) loadSession() tea.Msg {
	s := session.New()
	if err := s.Initialize(nil); err != nil {
		return loadedMsg{err: err}
	}
	if err := newSessionSetup(s, m.propsFlag, m.dataFlag); err != nil {
		s.Close()
		return loadedMsg{err: err}
	}
	if !s.LoadDefinition(m.filename) {
		s.Close()
		return loadedMsg{err: fmt.Errorf("load %s failed", m.filename)}
	}
	return loadedMsg{sess: s}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateTree || msg.String() == "ctrl+c" {
				if m.sess != nil {
					m.sess.Close()
				}
				return m, tea.Quit
			}

		case "p":
			if m.state == stateTree && m.sess != nil {
				m.state = stateSetProperty
				m.input.Placeholder = "name=value"
				m.input.Prompt = "property: "
				m.input.SetValue("")
				m.input.Focus()
				return m, nil
			}

		case "e":
			if m.state == stateTree && m.sess != nil {
				m.state = stateEmitEvent
				m.input.Placeholder = "eventName arg1 arg2"
				m.input.Prompt = "emit: "
				m.input.SetValue("")
				m.input.Focus()
				return m, nil
			}

		case "d":
			if m.state == stateTree && m.sess != nil {
				m.state = stateSetData
				m.input.Placeholder = `name [{"k":"v"},...]`
				m.input.Prompt = "data: "
				m.input.SetValue("")
				m.input.Focus()
				return m, nil
			}

		case "enter":
			if m.state != stateTree {
				m.apply(m.input.Value())
				m.state = stateTree
				m.input.Blur()
				return m, nil
			}

		case "esc":
			if m.state != stateTree {
				m.state = stateTree
				m.input.Blur()
				return m, nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.sess = msg.sess
		m.wireEvents()
	}

	if m.state != stateTree {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// wireEvents registers a recording handler for every on_click target in
// the loaded tree so emitted events show up in the footer.
func (m *interactiveModel) wireEvents() {
	e := m.sess.Engine()
	a := e.Arena()
	var walk func(id engine.NodeID)
	walk = func(id engine.NodeID) {
		if name, ok := a.Prop(id, "on_click").AsString(); ok && name != "" {
			captured := name
			m.sess.RegisterHandler(captured, bridge.HandlerFunc(func(args []string) {
				m.events = append(m.events, captured+"("+strings.Join(args, ", ")+")")
				if len(m.events) > 5 {
					m.events = m.events[len(m.events)-5:]
				}
			}))
		}
		for _, child := range a.Children(id) {
			walk(child)
		}
	}
	for _, root := range e.RootNodes() {
		walk(root)
	}
}

func (m *interactiveModel) apply(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	switch m.state {
	case stateSetProperty:
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			m.status = errorStyle.Render("want name=value")
			return
		}
		m.sess.SetProperty(parts[0], parts[1])
		m.status = "set " + parts[0]

	case stateEmitEvent:
		fields := strings.Fields(line)
		args := make([]bridge.Scalar, 0, len(fields)-1)
		for _, f := range fields[1:] {
			args = append(args, bridge.String(f))
		}
		m.sess.EmitFromUI(fields[0], args)
		m.status = "emitted " + fields[0]

	case stateSetData:
		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			m.status = errorStyle.Render("want: name <json array>")
			return
		}
		m.sess.CreateProjection(parts[0])
		if err := m.sess.SetProjectionData(parts[0], parts[1]); err != nil {
			m.status = errorStyle.Render(err.Error())
			return
		}
		m.status = fmt.Sprintf("%s: %d rows", parts[0], m.sess.ProjectionCount(parts[0]))
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.sess == nil {
		return "Loading definition..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Bridge Runner"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	e := m.sess.Engine()
	a := e.Arena()
	for _, root := range e.RootNodes() {
		m.renderNode(&b, a, root, 0)
	}

	if len(m.events) > 0 {
		b.WriteString("\nEvents:\n")
		for _, ev := range m.events {
			b.WriteString("  " + eventStyle.Render(ev) + "\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}

	b.WriteString("\n")
	if m.state == stateTree {
		b.WriteString(helpStyle.Render("p set property • e emit event • d set data • q quit"))
	} else {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter apply • esc back"))
	}
	return b.String()
}

func (m *interactiveModel) renderNode(b *strings.Builder, a *engine.Arena, id engine.NodeID, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(nodeStyle.Render(string(a.Kind(id))))
	if label := a.Label(id); label != "" {
		b.WriteString(fmt.Sprintf(" %q", label))
	}
	for _, name := range a.PropNames(id) {
		v := a.Prop(id, name)
		if v.IsAbsent() {
			continue
		}
		b.WriteString(" ")
		b.WriteString(propStyle.Render(name + "=" + v.Render()))
	}
	b.WriteString("\n")
	for _, child := range a.Children(id) {
		m.renderNode(b, a, child, depth+1)
	}
}

func runInteractive(filename, props, data string) error {
	p := tea.NewProgram(newInteractiveModel(filename, props, data), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
