package services

import (
	"context"
	"net/http"
	"strconv"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/shared"
)

func listPath(id int, rest ...string) string {
	p := "/listas/" + strconv.Itoa(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func (s *HitnoteService) CreateList(ctx context.Context, token string, in models.PlaylistInput) (models.Playlist, error) {
	if token == "" {
		return models.Playlist{}, shared.ErrLoginRequired
	}
	if err := in.Validate(); err != nil {
		return models.Playlist{}, err
	}

	var p models.Playlist
	err := s.api.Do(ctx, Request{Method: http.MethodPost, Path: "/listas", Token: token, Body: in}, &p)
	return p, err
}

// GetList fetches a list with its members. SongCount is aligned with the returned items.
func (s *HitnoteService) GetList(ctx context.Context, listID int) (models.PlaylistDetail, error) {
	var d models.PlaylistDetail
	if err := s.api.Do(ctx, Request{Method: http.MethodGet, Path: listPath(listID)}, &d); err != nil {
		return d, err
	}

	if d.Items == nil {
		d.Items = []models.PlaylistItem{}
	}
	d.Normalize()
	return d, nil
}

// UpdateList replaces name, description and visibility. Non-owners get a 403 [HTTPError].
func (s *HitnoteService) UpdateList(ctx context.Context, token string, listID int, in models.PlaylistInput) (models.Playlist, error) {
	if token == "" {
		return models.Playlist{}, shared.ErrLoginRequired
	}
	if err := in.Validate(); err != nil {
		return models.Playlist{}, err
	}

	var p models.Playlist
	err := s.api.Do(ctx, Request{Method: http.MethodPut, Path: listPath(listID), Token: token, Body: in}, &p)
	return p, err
}

func (s *HitnoteService) DeleteList(ctx context.Context, token string, listID int) error {
	if token == "" {
		return shared.ErrLoginRequired
	}
	return s.api.Do(ctx, Request{Method: http.MethodDelete, Path: listPath(listID), Token: token}, nil)
}

// AddTrackToList adds a member. The backend rejects duplicates.
func (s *HitnoteService) AddTrackToList(ctx context.Context, token string, listID, trackID int) error {
	if token == "" {
		return shared.ErrLoginRequired
	}
	return s.api.Do(ctx, Request{Method: http.MethodPost, Path: listPath(listID, "musicas", strconv.Itoa(trackID)), Token: token}, nil)
}

func (s *HitnoteService) RemoveTrackFromList(ctx context.Context, token string, listID, trackID int) error {
	if token == "" {
		return shared.ErrLoginRequired
	}
	return s.api.Do(ctx, Request{Method: http.MethodDelete, Path: listPath(listID, "musicas", strconv.Itoa(trackID)), Token: token}, nil)
}
