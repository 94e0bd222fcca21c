package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/session"
	"github.com/desertthunder/hitnote/internal/tasks"
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
	MsgCatalogSnapshot MsgKind = iota
	MsgSessionChanged
	MsgDetailLoaded
	MsgReviewsChanged
	MsgLikeChanged
	MsgNotice
	MsgActionDone
)

// detailMsg is carried by every detail-view message so results for a track that is no longer open are dropped.
type detailMsg[T any] struct {
	trackID int
	value   T
}

type detailLoaded struct {
	track   models.Track
	reviews tasks.ReviewState
	err     error
}

// noticeFrom remembers which controller's notice channel a notice came from.
type noticeFrom struct {
	ch     <-chan tasks.Notice
	notice tasks.Notice
}

type actionDone struct {
	status string
	err    error
}

// catalogSnapshotMsg is the constructor for [MsgCatalogSnapshot]
func catalogSnapshotMsg(feed catalogFeed) Msg {
	return Msg{kind: MsgCatalogSnapshot, data: feed}
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg(snap session.Snapshot) Msg {
	return Msg{kind: MsgSessionChanged, data: snap}
}

// detailLoadedMsg is the constructor for [MsgDetailLoaded]
func detailLoadedMsg(trackID int, track models.Track, reviews tasks.ReviewState, err error) Msg {
	return Msg{kind: MsgDetailLoaded, data: detailMsg[detailLoaded]{trackID, detailLoaded{track, reviews, err}}}
}

// reviewsChangedMsg is the constructor for [MsgReviewsChanged]
func reviewsChangedMsg(trackID int, state tasks.ReviewState) Msg {
	return Msg{kind: MsgReviewsChanged, data: detailMsg[tasks.ReviewState]{trackID, state}}
}

// likeChangedMsg is the constructor for [MsgLikeChanged]
func likeChangedMsg(trackID int, liked bool) Msg {
	return Msg{kind: MsgLikeChanged, data: detailMsg[bool]{trackID, liked}}
}

// noticeMsg is the constructor for [MsgNotice]
func noticeMsg(trackID int, ch <-chan tasks.Notice, n tasks.Notice) Msg {
	return Msg{kind: MsgNotice, data: detailMsg[noticeFrom]{trackID, noticeFrom{ch, n}}}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(status string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionDone{status, err}}
}

// listen waits for the next value on ch. A closed channel yields no message.
func listen[T any](ch <-chan T, wrap func(T) Msg) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(v)
	}
}
