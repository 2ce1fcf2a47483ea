package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/tasks"
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
	MsgSearchDone MsgKind = iota
	MsgCollectionsLoaded
	MsgProgressUpdate
	MsgActionDone
	MsgAuthDone
	MsgSessionChanged
)

type searchResult struct {
	seq   int
	query string
	books []models.Book
	err   error
}

type collectionsResult struct {
	seq    int
	result *tasks.AssemblyResult
	err    error
}

type progressResult struct {
	seq      int
	update   tasks.ProgressUpdate
	progress <-chan tasks.ProgressUpdate
}

// actionResult is the outcome of an add (from empty) or a move.
type actionResult struct {
	bookID string
	from   models.ListName
	to     models.ListName
	err    error
}

type authResult struct {
	signUp bool
	err    error
}

// searchDoneMsg is the constructor for [MsgSearchDone]
func searchDoneMsg(seq int, query string, books []models.Book, err error) Msg {
	return Msg{kind: MsgSearchDone, data: searchResult{seq, query, books, err}}
}

// collectionsLoadedMsg is the constructor for [MsgCollectionsLoaded]
func collectionsLoadedMsg(seq int, result *tasks.AssemblyResult, err error) Msg {
	return Msg{kind: MsgCollectionsLoaded, data: collectionsResult{seq, result, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(seq int, update tasks.ProgressUpdate, progress <-chan tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: progressResult{seq, update, progress}}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(bookID string, from, to models.ListName, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{bookID, from, to, err}}
}

// authDoneMsg is the constructor for [MsgAuthDone]
func authDoneMsg(signUp bool, err error) Msg {
	return Msg{kind: MsgAuthDone, data: authResult{signUp, err}}
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg(s *models.Session) Msg {
	return Msg{kind: MsgSessionChanged, data: s}
}
