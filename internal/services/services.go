package services

import (
	"context"

	"github.com/desertthunder/hitnote/internal/models"
)

// Catalog covers tracks, reviews, ratings and likes.
type Catalog interface {
	ListTracks(ctx context.Context, token string, q TrackQuery) (models.TrackPage, error)
	GetTrack(ctx context.Context, id int) (models.Track, error)
	CreateTrack(ctx context.Context, in models.TrackInput) (models.Track, error)
	ListReviews(ctx context.Context, trackID int) ([]models.Review, error)
	CreateReview(ctx context.Context, token string, trackID int, in models.ReviewInput) (models.Review, error)
	GetRating(ctx context.Context, trackID int) (models.RatingAggregate, error)
	LikeStatus(ctx context.Context, token string, trackID int) (bool, error)
	ToggleLike(ctx context.Context, token string, trackID int) (bool, error)
	SearchExternal(ctx context.Context, query string) ([]models.ExternalTrack, error)
}

// Accounts covers authentication, profiles, follows and per-user collections.
type Accounts interface {
	Login(ctx context.Context, creds models.Credentials) (models.AuthResponse, error)
	Register(ctx context.Context, reg models.Registration) (models.ProfileSummary, error)
	MyProfile(ctx context.Context, token string) (models.UserProfile, error)
	UpdateMyProfile(ctx context.Context, token string, update models.ProfileUpdate) (models.UserProfile, error)
	PublicProfile(ctx context.Context, token string, userID int) (models.PublicProfile, error)
	ToggleFollow(ctx context.Context, token string, userID int) (bool, error)
	SearchUsers(ctx context.Context, query string) ([]models.PublicProfile, error)
	MyLikes(ctx context.Context, token string) ([]models.Track, error)
	UserLikes(ctx context.Context, userID int) ([]models.Track, error)
	UserLists(ctx context.Context, token string, userID int) ([]models.Playlist, error)
	UserFeed(ctx context.Context, userID int) ([]models.ActivityItem, error)
}

// Lists covers list CRUD and membership.
type Lists interface {
	CreateList(ctx context.Context, token string, in models.PlaylistInput) (models.Playlist, error)
	GetList(ctx context.Context, listID int) (models.PlaylistDetail, error)
	UpdateList(ctx context.Context, token string, listID int, in models.PlaylistInput) (models.Playlist, error)
	DeleteList(ctx context.Context, token string, listID int) error
	AddTrackToList(ctx context.Context, token string, listID, trackID int) error
	RemoveTrackFromList(ctx context.Context, token string, listID, trackID int) error
}

// Backend is the complete HitNote REST surface.
type Backend interface {
	Catalog
	Accounts
	Lists
}

var _ Backend = (*HitnoteService)(nil)
