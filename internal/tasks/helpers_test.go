package tasks

import (
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/services"
	"github.com/desertthunder/hitnote/internal/session"
	tu "github.com/desertthunder/hitnote/internal/testing"
)

const eventually = 2 * time.Second
const tick = 5 * time.Millisecond

// tokenBox is a [TokenSource] tests can swap.
type tokenBox struct {
	mu    sync.Mutex
	token string
}

func (b *tokenBox) Token() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

func (b *tokenBox) set(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = token
}

type fixture struct {
	backend *tu.Backend
	service *services.HitnoteService
	tokens  *tokenBox
	deps    Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := tu.NewBackend(t)
	tokens := &tokenBox{}
	return &fixture{
		backend: b,
		service: services.NewHitnoteService(services.NewAPIService(b.URL(), b.Client())),
		tokens:  tokens,
		deps:    Deps{Tokens: tokens},
	}
}

// signIn adds a user to the backend and makes their token current.
func (f *fixture) signIn(name string) models.UserProfile {
	user, token := f.backend.AddUser(name, name, name+"@example.com", "pw")
	f.tokens.set(token)
	return user
}

func newSessionDeps(t *testing.T) (*session.Store, Deps) {
	t.Helper()
	store := session.NewStore(session.NewMemoryStorage(), nil)
	return store, Deps{Tokens: store}
}
