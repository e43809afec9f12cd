package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sguter90/soilmaestro/pkg/models"
	"github.com/sguter90/soilmaestro/pkg/orchestrator"
)

var (
	sloganStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7FB069")).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Width(26)
	buttonStyle = lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.RoundedBorder())
	focusStyle  = buttonStyle.BorderForeground(lipgloss.Color("#E6AA68"))
	bannerStyle = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#CA3C25")).Padding(0, 1)
	resultStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E6AA68"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CA3C25"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

type sloganMsg struct {
	index  int
	slogan string
}

type snapshotMsg orchestrator.Snapshot

type submitResultMsg struct {
	report *models.Report
	err    error
}

// formModel is the interactive sensor form. The focus index equal to
// len(inputs) selects the submit button.
type formModel struct {
	ctx     context.Context
	schema  models.Schema
	inputs  []textinput.Model
	focus   int
	orch    *orchestrator.Orchestrator
	spinner spinner.Model

	slogan   string
	banner   string
	snapshot orchestrator.Snapshot
	report   *models.Report
	err      error
}

func newFormModel(ctx context.Context, schema models.Schema, orch *orchestrator.Orchestrator, slogan string) formModel {
	inputs := make([]textinput.Model, len(schema.Fields))
	for i, f := range schema.Fields {
		ti := textinput.New()
		ti.Placeholder = f.Placeholder
		if ti.Placeholder == "" {
			ti.Placeholder = f.Label
		}
		ti.CharLimit = 32
		ti.Width = 20
		ti.Prompt = "│ "
		inputs[i] = ti
	}
	if len(inputs) > 0 {
		inputs[0].Focus()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return formModel{
		ctx:     ctx,
		schema:  schema,
		inputs:  inputs,
		orch:    orch,
		spinner: sp,
		slogan:  slogan,
	}
}

func (m formModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m formModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case sloganMsg:
		m.slogan = msg.slogan
		return m, nil

	case snapshotMsg:
		m.snapshot = orchestrator.Snapshot(msg)
		return m, nil

	case submitResultMsg:
		m.report = msg.report
		m.err = msg.err
		m.snapshot = m.orch.Snapshot()
		return m, nil

	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateInputs(msg)
}

func (m formModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	}

	// the validation banner blocks the form until dismissed
	if m.banner != "" {
		switch msg.String() {
		case "enter", "esc", " ":
			m.banner = ""
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "down":
		return m.setFocus(m.focus + 1), nil
	case "shift+tab", "up":
		return m.setFocus(m.focus - 1), nil
	case "enter":
		if m.focus < len(m.inputs) {
			return m.setFocus(m.focus + 1), nil
		}
		return m.submit()
	}

	return m.updateInputs(msg)
}

func (m formModel) setFocus(i int) formModel {
	n := len(m.inputs) + 1
	m.focus = ((i % n) + n) % n
	for j := range m.inputs {
		if j == m.focus {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return m
}

func (m formModel) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus >= len(m.inputs) {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m formModel) loading() bool {
	return m.snapshot.Loading()
}

// reading copies the current input values into a draft
func (m formModel) reading() *models.SensorReading {
	r := models.NewSensorReading(m.schema)
	for i, f := range m.schema.Fields {
		r.Values[f.Name] = m.inputs[i].Value()
	}
	return r
}

func (m formModel) submit() (tea.Model, tea.Cmd) {
	if m.loading() {
		return m, nil
	}

	reading := m.reading()
	if err := reading.Validate(); err != nil {
		m.banner = "Please fill all the fields."
		var missing *models.MissingFieldsError
		if errors.As(err, &missing) {
			labels := make([]string, len(missing.Fields))
			for i, name := range missing.Fields {
				labels[i] = models.SensorFieldRegistry[name].Label
			}
			m.banner += "\nMissing: " + strings.Join(labels, ", ")
		}
		return m, nil
	}

	m.report = nil
	m.err = nil
	m.snapshot = orchestrator.Snapshot{State: orchestrator.StateSubmitting}

	orch, ctx := m.orch, m.ctx
	run := func() tea.Msg {
		report, err := orch.Submit(ctx, reading)
		return submitResultMsg{report: report, err: err}
	}
	return m, tea.Batch(run, m.spinner.Tick)
}

func (m formModel) View() string {
	var b strings.Builder

	b.WriteString(sloganStyle.Render(m.slogan))
	b.WriteString("\n\n")

	for i, f := range m.schema.Fields {
		label := f.Label
		if f.Unit != "" {
			label += " (" + f.Unit + ")"
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.loading() {
		b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), phaseText(m.snapshot.Phase)))
	} else {
		style := buttonStyle
		if m.focus == len(m.inputs) {
			style = focusStyle
		}
		b.WriteString(style.Render("Analyze Soil"))
		b.WriteString("\n")
	}

	if m.banner != "" {
		b.WriteString("\n")
		b.WriteString(bannerStyle.Render(m.banner + "\n\n[enter] OK"))
		b.WriteString("\n")
	}

	if label := m.resultLabel(); label != "" {
		b.WriteString("\n")
		b.WriteString(resultStyle.Render("Soil Health: " + label))
		b.WriteString("\n")
	}
	if m.report.HasNarrative() {
		b.WriteString("\n")
		b.WriteString(m.report.Narrative)
		b.WriteString("\n")
	}
	if m.err != nil && !m.loading() {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(errorText(m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("tab/shift+tab move • enter next/submit • esc quit"))
	b.WriteString("\n")
	return b.String()
}

// resultLabel prefers the finished report and falls back to the label
// published while the narrative is pending
func (m formModel) resultLabel() string {
	if m.report != nil {
		return m.report.Label
	}
	return m.snapshot.Label
}

func phaseText(p orchestrator.Phase) string {
	switch p {
	case orchestrator.PhaseClassifying:
		return "Classifying soil health..."
	case orchestrator.PhaseNarrating:
		return "Writing improvement plan..."
	default:
		return "Submitting..."
	}
}

func errorText(err error) string {
	switch {
	case orchestrator.IsClassification(err):
		return "Error fetching prediction. Please try again."
	case orchestrator.IsNarrative(err):
		return "Error fetching improvement plan. Please try again."
	default:
		return err.Error()
	}
}
