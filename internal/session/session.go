package session

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/shared"
)

// Persisted keys. No other package reads them.
const (
	TokenKey   string = "hitnote_token"
	ProfileKey string = "hitnote_user"
)

// State is the session's authentication state.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Snapshot is an immutable copy of the session.
type Snapshot struct {
	State   State
	Token   string
	Profile *models.ProfileSummary
}

func (s Snapshot) Authenticated() bool {
	return s.State == Authenticated
}

// Store is the single source of truth for the bearer token and the signed-in profile.
//
// Restore, Login and Logout are the only transitions. Each one writes storage first and updates memory only when
// the write succeeded, so the two never diverge.
type Store struct {
	mu       sync.RWMutex
	storage  Storage
	logger   *log.Logger
	current  Snapshot
	subs     []chan Snapshot
	redirect func()
}

// NewStore creates an anonymous store backed by storage. Call [Store.Restore] to load persisted state.
func NewStore(storage Storage, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Store{storage: storage, logger: logger}
}

// OnLogout sets the hook run after every successful logout. Views use it to reset to the login screen.
func (s *Store) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redirect = fn
}

// Restore loads persisted state.
//
// Both keys present with a profile that parses to a user id yields Authenticated. A corrupt or null profile, or
// a lone key, yields Anonymous and the persisted entries are cleared.
func (s *Store) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, hasToken, err := s.storage.Get(TokenKey)
	if err != nil {
		return fmt.Errorf("failed to read session token: %w", err)
	}
	raw, hasProfile, err := s.storage.Get(ProfileKey)
	if err != nil {
		return fmt.Errorf("failed to read session profile: %w", err)
	}

	if !hasToken && !hasProfile {
		s.set(Snapshot{State: Anonymous})
		return nil
	}

	var profile *models.ProfileSummary
	if hasToken && hasProfile && strings.TrimSpace(token) != "" {
		if err := json.Unmarshal([]byte(raw), &profile); err == nil && profile != nil && profile.ID != 0 {
			s.set(Snapshot{State: Authenticated, Token: token, Profile: profile})
			s.logger.Debug("session restored", "user", profile.Username)
			return nil
		}
	}

	s.logger.Warn("discarding unusable persisted session", "token", hasToken, "profile", hasProfile)
	if err := s.storage.DeleteMany(TokenKey, ProfileKey); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.set(Snapshot{State: Anonymous})
	return nil
}

// Login persists token and profile together, then transitions to Authenticated.
//
// Credentials must already have been confirmed by the backend.
func (s *Store) Login(token string, profile models.ProfileSummary) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: token is required", shared.ErrInvalidArgument)
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.SetMany(map[string]string{TokenKey: token, ProfileKey: string(data)}); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.set(Snapshot{State: Authenticated, Token: token, Profile: &profile})
	s.logger.Info("logged in", "user", profile.Username)
	return nil
}

// Logout clears persisted state, transitions to Anonymous and runs the [Store.OnLogout] hook.
func (s *Store) Logout() error {
	s.mu.Lock()
	if err := s.storage.DeleteMany(TokenKey, ProfileKey); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.set(Snapshot{State: Anonymous})
	redirect := s.redirect
	s.mu.Unlock()

	s.logger.Info("logged out")
	if redirect != nil {
		redirect()
	}
	return nil
}

// set replaces the current snapshot and notifies subscribers. Callers hold mu.
func (s *Store) set(snap Snapshot) {
	s.current = snap
	for _, ch := range s.subs {
		shared.SendLatest(ch, snap)
	}
}

// Subscribe returns a channel that receives every transition, and a function that cancels the subscription.
//
// The channel holds at most one pending snapshot; a slow reader sees the latest one.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.subs = slices.DeleteFunc(s.subs, func(c chan Snapshot) bool { return c == ch })
			close(ch)
		})
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.current
	if snap.Profile != nil {
		p := *snap.Profile
		snap.Profile = &p
	}
	return snap
}

// Token returns the bearer token, or "" when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// Profile returns the signed-in profile.
func (s *Store) Profile() (models.ProfileSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current.Profile == nil {
		return models.ProfileSummary{}, false
	}
	return *s.current.Profile, true
}

// Authenticated reports whether a session is active.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Authenticated()
}
