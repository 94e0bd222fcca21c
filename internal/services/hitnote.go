package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/shared"
)

// ExternalSearchPath is the third-party catalog lookup route.
const ExternalSearchPath string = "/api/v1/search-genius"

// HitnoteService binds every backend endpoint onto an [APIService].
type HitnoteService struct {
	api *APIService
}

// NewHitnoteService creates a service that sends requests through api.
func NewHitnoteService(api *APIService) *HitnoteService {
	return &HitnoteService{api: api}
}

// API returns the underlying facade.
func (s *HitnoteService) API() *APIService { return s.api }

// TrackQuery is the key of one catalog page.
type TrackQuery struct {
	Query    string
	Page     int
	PageSize int
	Order    models.Order
}

// Values encodes the query, omitting zero fields.
func (q TrackQuery) Values() url.Values {
	v := url.Values{}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.Order != "" {
		v.Set("order", string(q.Order))
	}
	return v
}

type likeState struct {
	IsLiked bool `json:"is_liked"`
}

type followState struct {
	IsFollowing bool `json:"is_following"`
}

func trackPath(id int, rest ...string) string {
	p := "/musicas/" + strconv.Itoa(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// ListTracks fetches one catalog page. The token is optional.
func (s *HitnoteService) ListTracks(ctx context.Context, token string, q TrackQuery) (models.TrackPage, error) {
	var page models.TrackPage
	err := s.api.Do(ctx, Request{Method: http.MethodGet, Path: "/musicas", Query: q.Values(), Token: token}, &page)
	if page.Items == nil {
		page.Items = []models.Track{}
	}
	return page, err
}

func (s *HitnoteService) GetTrack(ctx context.Context, id int) (models.Track, error) {
	var t models.Track
	err := s.api.Do(ctx, Request{Method: http.MethodGet, Path: trackPath(id)}, &t)
	return t, err
}

// CreateTrack adds a catalog entry. The backend accepts this without a token.
func (s *HitnoteService) CreateTrack(ctx context.Context, in models.TrackInput) (models.Track, error) {
	if err := in.Validate(); err != nil {
		return models.Track{}, err
	}

	var t models.Track
	err := s.api.Do(ctx, Request{Method: http.MethodPost, Path: "/musicas", Body: in}, &t)
	return t, err
}

func (s *HitnoteService) ListReviews(ctx context.Context, trackID int) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.api.Do(ctx, Request{Method: http.MethodGet, Path: trackPath(trackID, "reviews")}, &reviews)
	return reviews, err
}

func (s *HitnoteService) CreateReview(ctx context.Context, token string, trackID int, in models.ReviewInput) (models.Review, error) {
	if token == "" {
		return models.Review{}, shared.ErrLoginRequired
	}

	var r models.Review
	err := s.api.Do(ctx, Request{Method: http.MethodPost, Path: trackPath(trackID, "reviews"), Token: token, Body: in}, &r)
	return r, err
}

// GetRating fetches the aggregate for one track. Mean is nil when the track has no reviews.
func (s *HitnoteService) GetRating(ctx context.Context, trackID int) (models.RatingAggregate, error) {
	agg := models.Unrated(trackID)
	err := s.api.Do(ctx, Request{Method: http.MethodGet, Path: trackPath(trackID, "rating")}, &agg)
	return agg, err
}

// LikeStatus reports whether the viewer likes the track. Anonymous viewers never do.
func (s *HitnoteService) LikeStatus(ctx context.Context, token string, trackID int) (bool, error) {
	if token == "" {
		return false, nil
	}

	var st likeState
	err := s.api.Do(ctx, Request{Method: http.MethodGet, Path: trackPath(trackID, "like"), Token: token}, &st)
	return st.IsLiked, err
}

// ToggleLike flips the like and returns the backend's new state.
func (s *HitnoteService) ToggleLike(ctx context.Context, token string, trackID int) (bool, error) {
	if token == "" {
		return false, shared.ErrLoginRequired
	}

	var st likeState
	err := s.api.Do(ctx, Request{Method: http.MethodPost, Path: trackPath(trackID, "like"), Token: token}, &st)
	return st.IsLiked, err
}

// SearchExternal queries the third-party catalog.
func (s *HitnoteService) SearchExternal(ctx context.Context, query string) ([]models.ExternalTrack, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", shared.ErrValidation)
	}

	hits := []models.ExternalTrack{}
	err := s.api.Do(ctx, Request{Method: http.MethodGet, Path: ExternalSearchPath, Query: url.Values{"query": {query}}}, &hits)
	return hits, err
}
