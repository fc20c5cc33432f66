package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kevinmaes/generation-art-sub002/pkg/errors"
	"github.com/kevinmaes/generation-art-sub002/pkg/gen"
	"github.com/kevinmaes/generation-art-sub002/pkg/pipeline"
)

// Stage display states for the progress UI.
type stageState int

const (
	statePending stageState = iota
	stateRunning
	stateDone
	stateFailed
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type stageRow struct {
	name  string
	state stageState
}

// eventMsg wraps a pipeline event for the bubbletea update loop.
type eventMsg pipeline.Event

// tickMsg advances the spinner animation.
type tickMsg time.Time

// pipelineModel renders pipeline progress as a stage checklist with a
// spinner on the running stage.
type pipelineModel struct {
	events  <-chan pipeline.Event
	rows    []stageRow
	frame   int
	start   time.Time
	result  *pipeline.Result
	err     error
	aborted bool
}

func newPipelineModel(stages []pipeline.StageInstance, events <-chan pipeline.Event) pipelineModel {
	rows := make([]stageRow, len(stages))
	for i, si := range stages {
		rows[i] = stageRow{name: si.Name()}
	}
	return pipelineModel{events: events, rows: rows, start: time.Now()}
}

func (m pipelineModel) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), tick())
}

func (m pipelineModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m pipelineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		return m, tick()

	case eventMsg:
		switch msg.Type {
		case pipeline.EventProgress:
			idx := msg.Current - 1
			for i := range m.rows {
				if i < idx && m.rows[i].state == stateRunning {
					m.rows[i].state = stateDone
				}
			}
			if idx >= 0 && idx < len(m.rows) {
				m.rows[idx].state = stateRunning
			}

		case pipeline.EventComplete:
			m.result = msg.Result
			m.err = msg.Err
			if m.result != nil {
				for _, s := range m.result.Report.Stages {
					for j := range m.rows {
						if m.rows[j].name == s.Name && m.rows[j].state != stateFailed {
							if s.Success {
								m.rows[j].state = stateDone
							} else {
								m.rows[j].state = stateFailed
							}
						}
					}
				}
			}
			return m, tea.Quit
		}
		return m, m.waitForEvent()
	}
	return m, nil
}

func (m pipelineModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Computing layout"))
	b.WriteString(" ")
	b.WriteString(StyleDim.Render(time.Since(m.start).Round(100 * time.Millisecond).String()))
	b.WriteString("\n\n")

	for _, row := range m.rows {
		switch row.state {
		case stateRunning:
			frame := spinnerFrames[m.frame%len(spinnerFrames)]
			b.WriteString("  " + styleIconSpinner.Render(frame) + " " + StyleHighlight.Render(row.name))
		case stateDone:
			b.WriteString("  " + styleIconSuccess.Render(iconSuccess) + " " + StyleValue.Render(row.name))
		case stateFailed:
			b.WriteString("  " + styleIconError.Render(iconError) + " " + StyleWarning.Render(row.name))
		default:
			b.WriteString("    " + StyleDim.Render(row.name))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q to abort"))
	b.WriteString("\n")
	return b.String()
}

// runPipelineTUI streams a pipeline run through the progress UI and
// returns the final result once the run completes.
func runPipelineTUI(ctx context.Context, orch *pipeline.Orchestrator, g *gen.Graph, stages []pipeline.StageInstance, opts pipeline.Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := orch.Stream(ctx, g, stages, opts)
	model := newPipelineModel(stages, events)
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(os.Stderr))

	out, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("progress ui: %w", err)
	}

	final, ok := out.(pipelineModel)
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "unexpected progress ui model %T", out)
	}
	if final.aborted {
		return nil, context.Canceled
	}
	if final.err != nil {
		return nil, final.err
	}
	if final.result == nil {
		return nil, errors.New(errors.ErrCodeInternal, "pipeline ended without a result")
	}
	return final.result, nil
}
