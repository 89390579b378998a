package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moodify/internal/models"
	"github.com/desertthunder/moodify/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MoodListView ViewState = iota
	RecordingView
	SubmittingView
	ResultView
)

// Pipeline records a clip and submits it for classification. *tasks.SpeechPipeline implements it.
type Pipeline interface {
	RecordAndSubmit(ctx context.Context, stop <-chan struct{}, progress chan<- tasks.ProgressUpdate) (*models.ClassificationResult, error)
}

// Profiles loads and edits the user's profile. *tasks.ProfileManager implements it.
type Profiles interface {
	Load(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.ProfileSnapshot, error)
	DeleteMood(ctx context.Context, index int, progress chan<- tasks.ProgressUpdate) (models.Profile, error)
	RecommendForMood(ctx context.Context, mood string, progress chan<- tasks.ProgressUpdate) (*models.ClassificationResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	pipeline     Pipeline
	profiles     Profiles
	width        int
	height       int
	moodList     list.Model
	recList      list.Model
	profile      models.Profile
	stale        bool
	spinner      spinner.Model
	started      time.Time
	stop         chan struct{}
	cancel       context.CancelFunc
	progressChan chan tasks.ProgressUpdate
	done         chan Msg
	progress     tasks.ProgressUpdate
	result       *models.ClassificationResult
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, pipeline Pipeline, profiles Profiles) *Model {
	return &Model{
		ctx:      ctx,
		view:     MoodListView,
		pipeline: pipeline,
		profiles: profiles,
		moodList: newList("Recent Moods"),
		recList:  newList("Recommendations"),
		profile:  models.Profile{}.Normalize(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.ok)),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}

// Init loads the profile.
func (m *Model) Init() tea.Cmd {
	return m.loadProfile()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.moodList.SetSize(msg.Width-4, msg.Height-8)
		m.recList.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.forceQuit) {
			m.abort()
			return m, tea.Quit
		}
		switch m.view {
		case MoodListView:
			return m.handleMoodListKeys(msg)
		case RecordingView:
			return m.handleRecordingKeys(msg)
		case SubmittingView:
			return m.handleSubmittingKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProfileLoaded:
		data := msg.data.(profileLoadedData)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.setProfile(data.snapshot.Profile)
		m.stale = data.snapshot.Stale
		return m, nil

	case MsgProfilePublished:
		m.setProfile(msg.data.(models.Profile))
		return m, nil

	case MsgProfileUpdated:
		data := msg.data.(profileUpdatedData)
		m.setProfile(data.profile)
		if data.err != nil {
			m.err = fmt.Errorf("delete reverted: %w", data.err)
			return m, nil
		}
		m.err = nil
		m.status = "Mood deleted"
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		if m.view == RecordingView && m.progress.Phase != tasks.Recording {
			m.view = SubmittingView
		}
		return m, m.waitForProgress()

	case MsgClassified:
		data := msg.data.(classifiedData)
		m.finish()
		if data.err != nil {
			m.view = MoodListView
			if errors.Is(data.err, context.Canceled) {
				m.status = "Cancelled"
				return m, nil
			}
			m.err = data.err
			return m, nil
		}
		m.result = data.result
		m.recList.SetItems(recommendationItems(data.result.Recommendations))
		m.recList.Title = fmt.Sprintf("Music for %s", data.result.Emotion)
		m.view = ResultView
		return m, m.loadProfile()
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case MoodListView:
		return m.renderMoodList()
	case RecordingView:
		return m.renderRecording()
	case SubmittingView:
		return m.renderSubmitting()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleMoodListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.record):
		return m, m.startRecording()
	case key.Matches(msg, m.keys.reload):
		m.status = "Reloading profile..."
		return m, m.loadProfile()
	case key.Matches(msg, m.keys.delete):
		if len(m.moodList.Items()) == 0 {
			return m, nil
		}
		return m, m.deleteMood(m.moodList.Index())
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.moodList.SelectedItem().(moodItem); ok {
			return m, m.recommend(item.mood.Emotion)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.moodList, cmd = m.moodList.Update(msg)
	return m, cmd
}

func (m *Model) handleRecordingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.stop):
		if m.stop != nil {
			close(m.stop)
			m.stop = nil
		}
		m.view = SubmittingView
		m.progress = tasks.ProgressUpdate{Message: "Finishing recording..."}
	case key.Matches(msg, m.keys.back):
		m.abort()
	}
	return m, nil
}

func (m *Model) handleSubmittingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.back) {
		m.abort()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = MoodListView
		m.result = nil
		return m, nil
	case key.Matches(msg, m.keys.record):
		return m, m.startRecording()
	}

	var cmd tea.Cmd
	m.recList, cmd = m.recList.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case MoodListView:
		m.moodList, cmd = m.moodList.Update(msg)
	case ResultView:
		m.recList, cmd = m.recList.Update(msg)
	}
	return m, cmd
}

func (m *Model) setProfile(p models.Profile) {
	m.profile = p
	m.moodList.SetItems(moodItems(p.RecentMoods))
}

func (m *Model) busy() bool {
	return m.view == RecordingView || m.view == SubmittingView
}

// begin prepares the channels for one background operation and returns its context.
func (m *Model) begin(view ViewState) context.Context {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.progressChan = make(chan tasks.ProgressUpdate, 16)
	m.done = make(chan Msg, 1)
	m.progress = tasks.ProgressUpdate{}
	m.err = nil
	m.status = ""
	m.view = view
	return ctx
}

func (m *Model) finish() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.stop = nil
	m.progressChan = nil
	m.done = nil
}

// abort cancels the running operation; the pipeline releases the microphone.
func (m *Model) abort() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Model) loadProfile() tea.Cmd {
	return func() tea.Msg {
		snapshot, err := m.profiles.Load(m.ctx, nil)
		return profileLoadedMsg(snapshot, err)
	}
}

func (m *Model) deleteMood(index int) tea.Cmd {
	return func() tea.Msg {
		p, err := m.profiles.DeleteMood(m.ctx, index, nil)
		return profileUpdatedMsg(p, err)
	}
}

func (m *Model) startRecording() tea.Cmd {
	ctx := m.begin(RecordingView)
	m.started = time.Now()
	m.stop = make(chan struct{})

	stop, progress, done := m.stop, m.progressChan, m.done
	go func() {
		result, err := m.pipeline.RecordAndSubmit(ctx, stop, progress)
		done <- classifiedMsg(result, err)
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

func (m *Model) recommend(mood string) tea.Cmd {
	ctx := m.begin(SubmittingView)

	progress, done := m.progressChan, m.done
	go func() {
		result, err := m.profiles.RecommendForMood(ctx, mood, progress)
		done <- classifiedMsg(result, err)
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		if done == nil {
			return nil
		}
		select {
		case update := <-progress:
			return progressUpdateMsg(update)
		case msg := <-done:
			return msg
		}
	}
}

func (m *Model) header() string {
	name := m.profile.Username
	if name == "" {
		name = "guest"
	}
	return styles.title.Render(fmt.Sprintf("moodify · %s", name))
}

func (m *Model) renderMoodList() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")

	if m.stale {
		b.WriteString(styles.warn.Render("Offline: showing cached profile"))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(styles.ok.Render(m.status))
		b.WriteString("\n")
	}

	if len(m.profile.RecentMoods) == 0 {
		b.WriteString(styles.help.Render("No moods yet. Press s to record one."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.moodList.View())
		b.WriteString("\n")
	}

	helpKeys := []key.Binding{m.keys.record, m.keys.enter, m.keys.delete, m.keys.reload, m.keys.quit}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderRecording() string {
	title := styles.title.Render("Listening")
	elapsed := time.Since(m.started).Truncate(time.Second)
	indicator := fmt.Sprintf("%s %s %s", m.spinner.View(), styles.live.Render("● REC"), elapsed)

	helpKeys := []key.Binding{m.keys.stop, m.keys.back}
	return fmt.Sprintf("%s\n%s\n\nSay how you feel.\n\n%s", title, indicator, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSubmitting() string {
	title := styles.title.Render("Analyzing")
	message := m.progress.Message
	if message == "" {
		message = "Working..."
	}

	helpKeys := []key.Binding{m.keys.back}
	return fmt.Sprintf("%s\n%s %s\n\n%s", title, m.spinner.View(), message, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderResult() string {
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress esc to go back, q to quit")
	}

	summary := fmt.Sprintf("Detected emotion: %s", paintEmotion(m.result.Emotion))
	if m.result.Message != "" {
		summary += "\n" + m.result.Message
	}

	body := styles.help.Render("No recommendations for this mood.")
	if len(m.result.Recommendations) > 0 {
		body = m.recList.View()
	}

	helpKeys := []key.Binding{m.keys.record, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", m.header(), styles.box.Render(summary), body, m.help.ShortHelpView(helpKeys))
}
