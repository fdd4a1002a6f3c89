// Package ask provides the document question-answering view for the TUI.
package ask

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Field identifies which part of the view has focus.
type Field int

const (
	// FieldURL is the document URL input.
	FieldURL Field = iota
	// FieldQuestion is the question input.
	FieldQuestion
	// FieldResults is the answer list.
	FieldResults
)

// View represents the ask view: a document URL, a queue of questions,
// the answer list and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	urlInput  *input.TextInput
	question  *input.TextInput
	list      *list.AnswerList
	statusbar *status.Bar

	answering driving.AnsweringService
	ctx       context.Context

	questions []string
	focus     Field
	running   bool

	width  int
	height int
	ready  bool
	err    error
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, answering driving.AnsweringService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:    s,
		keymap:    km,
		urlInput:  input.NewURLInput(s),
		question:  input.NewQuestionInput(s),
		list:      list.NewAnswerList(s, km),
		statusbar: status.NewBar(s, km),
		answering: answering,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
	v.setFocus(FieldURL)
	return v
}

// WithContext sets the context passed to the answering service.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.urlInput.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswersCompleted:
		v.handleAnswersCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.running = false
		v.setError(msg.Err)
		return v, nil
	}

	return v, nil
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	// Esc always signals to go back to menu
	if key.Matches(msg, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	// Keys are swallowed while a run is in flight.
	if v.running {
		return v, nil
	}

	if key.Matches(msg, v.keymap.Run) {
		return v.startRun()
	}

	if v.focus == FieldResults {
		return v.handleResultsKey(msg)
	}

	switch {
	case key.Matches(msg, v.keymap.NextField):
		if v.focus == FieldURL {
			return v, v.setFocus(FieldQuestion)
		}
		return v, v.setFocus(FieldURL)

	case key.Matches(msg, v.keymap.Submit):
		if v.focus == FieldURL {
			return v, v.setFocus(FieldQuestion)
		}
		v.queueQuestion()
		return v, nil
	}

	var cmd tea.Cmd
	if v.focus == FieldURL {
		v.urlInput, cmd = v.urlInput.Update(msg)
	} else {
		v.question, cmd = v.question.Update(msg)
	}
	return v, cmd
}

// handleResultsKey processes keys while the answer list has focus.
func (v *View) handleResultsKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	if key.Matches(msg, v.keymap.NewRun) {
		// Keep the document so follow-up questions reuse its index.
		v.questions = nil
		v.list.SetResults(nil)
		v.err = nil
		v.statusbar.Clear()
		v.statusbar.SetState(status.StateInput)
		return v, v.setFocus(FieldQuestion)
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

// queueQuestion moves the question input's text onto the queue.
func (v *View) queueQuestion() {
	q := strings.TrimSpace(v.question.Value())
	if q == "" {
		return
	}
	v.questions = append(v.questions, q)
	v.question.Reset()
	v.statusbar.SetResultCount(len(v.questions))
}

// startRun validates the inputs and dispatches the pipeline.
func (v *View) startRun() (*View, tea.Cmd) {
	v.queueQuestion()

	ref := domain.NewDocumentReference(strings.TrimSpace(v.urlInput.Value()))
	if err := ref.Validate(); err != nil {
		v.setError(ErrInvalidDocumentURL)
		return v, v.setFocus(FieldURL)
	}
	if len(v.questions) == 0 {
		v.setError(fmt.Errorf("%w: add at least one question", domain.ErrInvalidInput))
		return v, v.setFocus(FieldQuestion)
	}

	v.err = nil
	v.running = true
	v.statusbar.SetState(status.StateAnswering)
	v.statusbar.SetMessage(fmt.Sprintf("Answering %d questions...", len(v.questions)))
	v.urlInput.Blur()
	v.question.Blur()

	questions := make([]string, len(v.questions))
	copy(questions, v.questions)
	return v, v.run(ref, questions)
}

// run returns a command that answers questions against ref.
func (v *View) run(ref domain.DocumentReference, questions []string) tea.Cmd {
	return func() tea.Msg {
		if v.answering == nil {
			return messages.ErrorOccurred{Err: ErrNoAnsweringService}
		}
		results, err := v.answering.Run(v.ctx, ref, questions)
		return messages.AnswersCompleted{Results: results, Err: err}
	}
}

// handleAnswersCompleted shows the answers or the document error.
func (v *View) handleAnswersCompleted(msg messages.AnswersCompleted) {
	v.running = false
	if msg.Err != nil {
		if domain.IsIndexingError(msg.Err) {
			v.setError(fmt.Errorf("failed to process document: %w", msg.Err))
		} else {
			v.setError(msg.Err)
		}
		v.setFocus(FieldURL)
		return
	}

	v.err = nil
	v.list.SetResults(msg.Results)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetMessage("")
	v.statusbar.SetResultCount(len(msg.Results))
	v.setFocus(FieldResults)
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// setFocus moves focus to f and returns the input's blink command.
func (v *View) setFocus(f Field) tea.Cmd {
	v.focus = f
	v.urlInput.Blur()
	v.question.Blur()
	switch f {
	case FieldURL:
		return v.urlInput.Focus()
	case FieldQuestion:
		return v.question.Focus()
	case FieldResults:
	}
	return nil
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)

	sections = append(sections, v.styles.Title.Render("Ask questions"))
	if v.answering != nil {
		models := v.answering.Models()
		sections = append(sections, v.styles.Muted.Render(
			fmt.Sprintf("LLM: %s  Embeddings: %s", models.LLM, models.Embedding)))
	}
	sections = append(sections, "", v.urlInput.View(), v.question.View())

	if len(v.questions) > 0 && v.focus != FieldResults {
		sections = append(sections, "", v.renderQueue())
	}

	if v.err != nil {
		sections = append(sections, "", v.styles.Error.Render("Error: "+v.err.Error()))
	}

	if v.focus == FieldResults || !v.list.IsEmpty() {
		sections = append(sections, "", v.list.View())
	}

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderQueue lists the questions waiting to be sent.
func (v *View) renderQueue() string {
	lines := make([]string, 0, len(v.questions)+1)
	lines = append(lines, v.styles.Subtitle.Render(fmt.Sprintf("Questions (%d)", len(v.questions))))
	for i, q := range v.questions {
		lines = append(lines, v.styles.Normal.Render(fmt.Sprintf("  %d. %s", i+1, q)))
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.urlInput.SetWidth(width)
	v.question.SetWidth(width)
	v.list.SetDimensions(width, height-12) // header, inputs, status
	v.statusbar.SetWidth(width)
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// DocumentURL returns the current document URL.
func (v *View) DocumentURL() string {
	return v.urlInput.Value()
}

// SetDocumentURL sets the document URL.
func (v *View) SetDocumentURL(url string) {
	v.urlInput.SetValue(url)
}

// Questions returns the queued questions.
func (v *View) Questions() []string {
	return v.questions
}

// Results returns the answers from the last run.
func (v *View) Results() []domain.QuestionResult {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected answer.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Focus returns the focused field.
func (v *View) Focus() Field {
	return v.focus
}

// Running reports whether a run is in flight.
func (v *View) Running() bool {
	return v.running
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// ClearError clears the current error.
func (v *View) ClearError() {
	v.err = nil
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
}

// Reset clears the document, questions and answers.
func (v *View) Reset() {
	v.urlInput.Reset()
	v.question.Reset()
	v.questions = nil
	v.list.SetResults(nil)
	v.err = nil
	v.running = false
	v.statusbar.Clear()
	v.statusbar.SetState(status.StateInput)
	v.setFocus(FieldURL)
}
