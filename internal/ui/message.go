package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStatusesLoaded MsgKind = iota
	MsgDraftsLoaded
	MsgTaskEvent
	MsgFavoriteDone
	MsgDraftActionDone
	MsgToast
	MsgToastExpired
	MsgEventsClosed
)

type statusesLoaded struct {
	statuses []models.Status
	err      error
}

type draftsLoaded struct {
	drafts []*models.Draft
	err    error
}

type favoriteDone struct {
	statusID string
	result   *models.FavoriteResult
	err      error
}

type draftActionDone struct {
	verb    string
	draftID string
	err     error
}

// statusesLoadedMsg is the constructor for [MsgStatusesLoaded]
func statusesLoadedMsg(statuses []models.Status, err error) Msg {
	return Msg{kind: MsgStatusesLoaded, data: statusesLoaded{statuses, err}}
}

// draftsLoadedMsg is the constructor for [MsgDraftsLoaded]
func draftsLoadedMsg(drafts []*models.Draft, err error) Msg {
	return Msg{kind: MsgDraftsLoaded, data: draftsLoaded{drafts, err}}
}

// taskEventMsg is the constructor for [MsgTaskEvent]
func taskEventMsg(e tasks.Event) Msg {
	return Msg{kind: MsgTaskEvent, data: e}
}

// favoriteDoneMsg is the constructor for [MsgFavoriteDone]
func favoriteDoneMsg(statusID string, result *models.FavoriteResult, err error) Msg {
	return Msg{kind: MsgFavoriteDone, data: favoriteDone{statusID, result, err}}
}

// draftActionDoneMsg is the constructor for [MsgDraftActionDone]
func draftActionDoneMsg(verb, draftID string, err error) Msg {
	return Msg{kind: MsgDraftActionDone, data: draftActionDone{verb, draftID, err}}
}

// toastMsg is the constructor for [MsgToast]
func toastMsg(message string) Msg {
	return Msg{kind: MsgToast, data: message}
}

// toastExpiredMsg is the constructor for [MsgToastExpired]; seq identifies the toast it clears.
func toastExpiredMsg(seq int) Msg {
	return Msg{kind: MsgToastExpired, data: seq}
}

func eventsClosedMsg() Msg {
	return Msg{kind: MsgEventsClosed}
}
