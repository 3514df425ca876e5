package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	StatusListView ViewState = iota
	DraftListView
)

const toastDuration = 4 * time.Second

// StatusSource lists cached statuses.
type StatusSource interface {
	List(view string, account models.AccountKey, limit int) ([]models.Status, error)
}

// Favoriter runs favorite tasks and answers in-flight queries.
type Favoriter interface {
	CreateFavorite(ctx context.Context, account models.Account, status models.Status) (*models.FavoriteResult, error)
	IsCreatingFavorite(account models.AccountKey, statusID string) bool
}

// DraftRecovery lists, retries and discards leftover drafts.
type DraftRecovery interface {
	Pending(account *models.AccountKey) ([]*models.Draft, error)
	Retry(ctx context.Context, id string) (*models.FavoriteResult, error)
	Discard(id string) error
}

// EventSource hands out event subscriptions.
type EventSource interface {
	Subscribe(buffer int) (<-chan tasks.Event, func())
}

// Toaster is a [tasks.Notifier] that shows messages in the TUI status bar.
//
// Messages are dropped when the buffer is full.
type Toaster struct {
	ch chan string
}

var _ tasks.Notifier = (*Toaster)(nil)

func NewToaster(buffer int) *Toaster {
	return &Toaster{ch: make(chan string, buffer)}
}

func (t *Toaster) Notify(message string) {
	select {
	case t.ch <- message:
	default:
	}
}

// ModelOpts holds the dependencies of a [Model].
type ModelOpts struct {
	Account   models.Account
	View      string // cache view listed in [StatusListView]
	Limit     int
	Statuses  StatusSource
	Favorites Favoriter
	Drafts    DraftRecovery
	Events    EventSource // optional
	Toaster   *Toaster    // optional; failures are toasted from results when nil
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	opts        ModelOpts
	view        ViewState
	width       int
	height      int
	statusList  list.Model
	draftList   list.Model
	events      <-chan tasks.Event
	unsubscribe func()
	toast       string
	toastSeq    int
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model with the provided dependencies and subscribes to task events.
//
// Call [Model.Close] when the program exits.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	if opts.Limit <= 0 {
		opts.Limit = 200
	}

	m := &Model{
		ctx:        ctx,
		opts:       opts,
		view:       StatusListView,
		statusList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		draftList:  list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:       help.New(),
		keys:       newKeyMap(),
	}
	m.statusList.Title = fmt.Sprintf("Statuses • %s", opts.Account.Key)
	m.draftList.Title = "Leftover drafts"
	styles.styleList(&m.statusList)
	styles.styleList(&m.draftList)

	if opts.Events != nil {
		m.events, m.unsubscribe = opts.Events.Subscribe(64)
	}
	return m
}

// Close releases the event subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init loads both lists and starts listening for events and toasts.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadStatuses(), m.loadDrafts(), m.waitForEvent(), m.waitForToast())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusList.SetSize(msg.Width-4, msg.Height-8)
		m.draftList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if m.current().FilterState() == list.Filtering {
			return m.updateLists(msg)
		}
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var body string
	var helpKeys []key.Binding
	switch m.view {
	case DraftListView:
		body = m.draftList.View()
		helpKeys = []key.Binding{m.keys.retry, m.keys.discard, m.keys.switchTo, m.keys.quit}
	default:
		body = m.statusList.View()
		helpKeys = []key.Binding{m.keys.favorite, m.keys.switchTo, m.keys.refresh, m.keys.quit}
	}

	status := ""
	if m.toast != "" {
		status = styles.toast.Render(m.toast)
	}

	return fmt.Sprintf("%s\n%s\n%s", body, status, styles.help.Render(m.help.ShortHelpView(helpKeys)))
}

func (m *Model) current() *list.Model {
	if m.view == DraftListView {
		return &m.draftList
	}
	return &m.statusList
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.switchTo):
		if m.view == StatusListView {
			m.view = DraftListView
		} else {
			m.view = StatusListView
		}
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		return m, tea.Batch(m.loadStatuses(), m.loadDrafts())
	}

	switch m.view {
	case StatusListView:
		if key.Matches(msg, m.keys.favorite) {
			if item, ok := m.statusList.SelectedItem().(statusItem); ok {
				return m, m.favorite(item.status)
			}
			return m, nil
		}
	case DraftListView:
		item, ok := m.draftList.SelectedItem().(draftItem)
		switch {
		case key.Matches(msg, m.keys.retry):
			if ok {
				return m, m.retry(item.draft.ID())
			}
			return m, nil
		case key.Matches(msg, m.keys.discard):
			if ok {
				return m, m.discard(item.draft.ID())
			}
			return m, nil
		}
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgStatusesLoaded:
		data := msg.data.(statusesLoaded)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := make([]list.Item, len(data.statuses))
		for i, s := range data.statuses {
			items[i] = statusItem{status: s, inFlight: m.opts.Favorites.IsCreatingFavorite(m.opts.Account.Key, s.ID)}
		}
		return m, m.statusList.SetItems(items)

	case MsgDraftsLoaded:
		data := msg.data.(draftsLoaded)
		if data.err != nil {
			return m, m.showToast(fmt.Sprintf("failed to load drafts: %v", data.err))
		}
		items := make([]list.Item, len(data.drafts))
		for i, d := range data.drafts {
			items[i] = newDraftItem(d)
		}
		return m, m.draftList.SetItems(items)

	case MsgTaskEvent:
		e := msg.data.(tasks.Event)
		cmds := []tea.Cmd{m.waitForEvent()}
		switch e.Kind {
		case tasks.EventStatusListChanged:
			if e.AccountKey == m.opts.Account.Key {
				cmds = append(cmds, m.loadStatuses())
			}
		case tasks.EventFavoriteTask:
			cmds = append(cmds, m.loadDrafts())
		}
		return m, tea.Batch(cmds...)

	case MsgFavoriteDone:
		data := msg.data.(favoriteDone)
		if data.err != nil && m.opts.Toaster == nil {
			return m, m.showToast(data.err.Error())
		}
		return m, nil

	case MsgDraftActionDone:
		data := msg.data.(draftActionDone)
		cmds := []tea.Cmd{m.loadDrafts(), m.loadStatuses()}
		if data.err != nil {
			cmds = append(cmds, m.showToast(fmt.Sprintf("%s %s failed: %v", data.verb, shortID(data.draftID), data.err)))
		}
		return m, tea.Batch(cmds...)

	case MsgToast:
		return m, tea.Batch(m.showToast(msg.data.(string)), m.waitForToast())

	case MsgToastExpired:
		if msg.data.(int) == m.toastSeq {
			m.toast = ""
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case StatusListView:
		m.statusList, cmd = m.statusList.Update(msg)
	case DraftListView:
		m.draftList, cmd = m.draftList.Update(msg)
	}
	return m, cmd
}

func (m *Model) showToast(message string) tea.Cmd {
	m.toastSeq++
	m.toast = message
	seq := m.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpiredMsg(seq) })
}

func (m *Model) loadStatuses() tea.Cmd {
	return func() tea.Msg {
		statuses, err := m.opts.Statuses.List(m.opts.View, m.opts.Account.Key, m.opts.Limit)
		return statusesLoadedMsg(statuses, err)
	}
}

func (m *Model) loadDrafts() tea.Cmd {
	return func() tea.Msg {
		drafts, err := m.opts.Drafts.Pending(&m.opts.Account.Key)
		return draftsLoadedMsg(drafts, err)
	}
}

func (m *Model) favorite(status models.Status) tea.Cmd {
	return func() tea.Msg {
		result, err := m.opts.Favorites.CreateFavorite(m.ctx, m.opts.Account, status)
		return favoriteDoneMsg(status.ID, result, err)
	}
}

func (m *Model) retry(id string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.opts.Drafts.Retry(m.ctx, id)
		return draftActionDoneMsg("retry", id, err)
	}
}

func (m *Model) discard(id string) tea.Cmd {
	return func() tea.Msg {
		return draftActionDoneMsg("discard", id, m.opts.Drafts.Discard(id))
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-m.events
		if !ok {
			return eventsClosedMsg()
		}
		return taskEventMsg(e)
	}
}

func (m *Model) waitForToast() tea.Cmd {
	if m.opts.Toaster == nil {
		return nil
	}
	return func() tea.Msg {
		return toastMsg(<-m.opts.Toaster.ch)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
