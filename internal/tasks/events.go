package tasks

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hitnote/internal/shared"
)

// TokenSource supplies the current bearer token, or "" when anonymous. [session.Store] implements it.
type TokenSource interface {
	Token() string
}

// Deps are the collaborators shared by loaders and controllers.
type Deps struct {
	Tokens TokenSource // nil means always anonymous
	Logger *log.Logger // nil discards
}

func (d Deps) token() string {
	if d.Tokens == nil {
		return ""
	}
	return d.Tokens.Token()
}

func (d Deps) logger(name string) *log.Logger {
	l := d.Logger
	if l == nil {
		l = shared.DiscardLogger()
	}
	return shared.WithLogger(l, "component", name)
}

// Op identifies a user-initiated mutation.
type Op int

const (
	ToggleLike Op = iota
	ToggleFollow
	SubmitReview
	CreateList
	UpdateList
	DeleteList
	AddListTrack
	RemoveListTrack
	SaveProfile
)

func (o Op) String() string {
	switch o {
	case ToggleLike:
		return "toggle_like"
	case ToggleFollow:
		return "toggle_follow"
	case SubmitReview:
		return "submit_review"
	case CreateList:
		return "create_list"
	case UpdateList:
		return "update_list"
	case DeleteList:
		return "delete_list"
	case AddListTrack:
		return "add_list_track"
	case RemoveListTrack:
		return "remove_list_track"
	case SaveProfile:
		return "save_profile"
	default:
		return ""
	}
}

// Notice is a one-off message for the user about a mutation that failed and was rolled back.
type Notice struct {
	Op      Op
	Message string
	Err     error
}

func (n Notice) String() string {
	return fmt.Sprintf("%s: %s", n.Op, n.Message)
}

func failureNotice(op Op, err error) Notice {
	return Notice{Op: op, Message: shared.UserMessage(err), Err: err}
}

// broadcaster fans values out to subscribers without blocking the sender.
type broadcaster[T any] struct {
	subs []chan T
}

func (b *broadcaster[T]) subscribe() chan T {
	ch := make(chan T, 1)
	b.subs = append(b.subs, ch)
	return ch
}

func (b *broadcaster[T]) unsubscribe(ch chan T) {
	for i, c := range b.subs {
		if c == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

func (b *broadcaster[T]) send(v T) {
	for _, ch := range b.subs {
		shared.SendLatest(ch, v)
	}
}
