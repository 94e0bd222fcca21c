package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/shared"
)

func userPath(id int, rest ...string) string {
	p := "/usuarios/" + strconv.Itoa(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// Login exchanges credentials for a token and profile summary.
func (s *HitnoteService) Login(ctx context.Context, creds models.Credentials) (models.AuthResponse, error) {
	if err := creds.Validate(); err != nil {
		return models.AuthResponse{}, err
	}

	var resp models.AuthResponse
	err := s.api.Do(ctx, Request{Method: http.MethodPost, Path: "/login", Body: creds}, &resp)
	return resp, err
}

func (s *HitnoteService) Register(ctx context.Context, reg models.Registration) (models.ProfileSummary, error) {
	if err := reg.Validate(); err != nil {
		return models.ProfileSummary{}, err
	}

	var u models.ProfileSummary
	err := s.api.Do(ctx, Request{Method: http.MethodPost, Path: "/usuarios", Body: reg}, &u)
	return u, err
}

func (s *HitnoteService) MyProfile(ctx context.Context, token string) (models.UserProfile, error) {
	if token == "" {
		return models.UserProfile{}, shared.ErrLoginRequired
	}

	var p models.UserProfile
	err := s.api.Do(ctx, Request{Method: http.MethodGet, Path: "/usuarios/me", Token: token}, &p)
	return p, err
}

// UpdateMyProfile submits the full editable field set and returns the canonical record.
func (s *HitnoteService) UpdateMyProfile(ctx context.Context, token string, update models.ProfileUpdate) (models.UserProfile, error) {
	if token == "" {
		return models.UserProfile{}, shared.ErrLoginRequired
	}

	var p models.UserProfile
	err := s.api.Do(ctx, Request{Method: http.MethodPut, Path: "/usuarios/me", Token: token, Body: update}, &p)
	return p, err
}

// PublicProfile fetches any user's profile. IsFollowing is only populated when a token is sent.
func (s *HitnoteService) PublicProfile(ctx context.Context, token string, userID int) (models.PublicProfile, error) {
	var p models.PublicProfile
	err := s.api.Do(ctx, Request{Method: http.MethodGet, Path: userPath(userID), Token: token}, &p)
	return p, err
}

// ToggleFollow flips the follow edge and returns the backend's new state.
func (s *HitnoteService) ToggleFollow(ctx context.Context, token string, userID int) (bool, error) {
	if token == "" {
		return false, shared.ErrLoginRequired
	}

	var st followState
	err := s.api.Do(ctx, Request{Method: http.MethodPost, Path: userPath(userID, "seguir"), Token: token}, &st)
	return st.IsFollowing, err
}

func (s *HitnoteService) SearchUsers(ctx context.Context, query string) ([]models.PublicProfile, error) {
	users := []models.PublicProfile{}
	err := s.api.Do(ctx, Request{Method: http.MethodGet, Path: "/usuarios/busca", Query: url.Values{"q": {query}}}, &users)
	return users, err
}

func (s *HitnoteService) MyLikes(ctx context.Context, token string) ([]models.Track, error) {
	if token == "" {
		return nil, shared.ErrLoginRequired
	}

	tracks := []models.Track{}
	err := s.api.Do(ctx, Request{Method: http.MethodGet, Path: "/usuarios/me/curtidas", Token: token}, &tracks)
	return tracks, err
}

func (s *HitnoteService) UserLikes(ctx context.Context, userID int) ([]models.Track, error) {
	tracks := []models.Track{}
	err := s.api.Do(ctx, Request{Method: http.MethodGet, Path: userPath(userID, "curtidas")}, &tracks)
	return tracks, err
}

// UserLists fetches a user's lists. Private lists are only included for their owner's token.
func (s *HitnoteService) UserLists(ctx context.Context, token string, userID int) ([]models.Playlist, error) {
	lists := []models.Playlist{}
	err := s.api.Do(ctx, Request{Method: http.MethodGet, Path: userPath(userID, "listas"), Token: token}, &lists)
	return lists, err
}

func (s *HitnoteService) UserFeed(ctx context.Context, userID int) ([]models.ActivityItem, error) {
	items := []models.ActivityItem{}
	err := s.api.Do(ctx, Request{Method: http.MethodGet, Path: userPath(userID, "feed")}, &items)
	return items, err
}
