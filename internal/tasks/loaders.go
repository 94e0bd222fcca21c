package tasks

import (
	"context"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/services"
)

func emptySlice[E any](s []E) bool { return len(s) == 0 }

// NewTrackPageLoader loads catalog pages. The viewer's token is sent when present.
func NewTrackPageLoader(c services.Catalog, deps Deps) *Loader[services.TrackQuery, models.TrackPage] {
	return NewLoader("track_page",
		func(ctx context.Context, token string, q services.TrackQuery) (models.TrackPage, error) {
			return c.ListTracks(ctx, token, q)
		},
		func(p models.TrackPage) bool { return len(p.Items) == 0 },
		deps,
	)
}

func NewTrackLoader(c services.Catalog, deps Deps) *Loader[int, models.Track] {
	return NewLoader("track",
		func(ctx context.Context, _ string, id int) (models.Track, error) {
			return c.GetTrack(ctx, id)
		},
		nil,
		deps,
	)
}

func NewReviewsLoader(c services.Catalog, deps Deps) *Loader[int, []models.Review] {
	return NewLoader("reviews",
		func(ctx context.Context, _ string, trackID int) ([]models.Review, error) {
			return c.ListReviews(ctx, trackID)
		},
		emptySlice[models.Review],
		deps,
	)
}

// NewRatingLoader loads a track's aggregate. A track without reviews renders as empty.
func NewRatingLoader(c services.Catalog, deps Deps) *Loader[int, models.RatingAggregate] {
	return NewLoader("rating",
		func(ctx context.Context, _ string, trackID int) (models.RatingAggregate, error) {
			return c.GetRating(ctx, trackID)
		},
		func(a models.RatingAggregate) bool { return !a.HasRating() },
		deps,
	)
}

// NewLikeStatusLoader loads whether the viewer likes a track. Anonymous viewers and failed lookups read as false.
func NewLikeStatusLoader(c services.Catalog, deps Deps) *Loader[int, bool] {
	logger := deps.logger("like_status")
	return NewLoader("like_status",
		func(ctx context.Context, token string, trackID int) (bool, error) {
			liked, err := c.LikeStatus(ctx, token, trackID)
			if err != nil {
				logger.Debug("like status unavailable", "track", trackID, "err", err)
				return false, nil
			}
			return liked, nil
		},
		nil,
		deps,
	)
}

// NewOwnProfileLoader loads the signed-in user's profile, keyed by their id.
func NewOwnProfileLoader(a services.Accounts, deps Deps) *Loader[int, models.UserProfile] {
	return NewLoader("own_profile",
		func(ctx context.Context, token string, _ int) (models.UserProfile, error) {
			return a.MyProfile(ctx, token)
		},
		nil,
		deps,
	)
}

func NewPublicProfileLoader(a services.Accounts, deps Deps) *Loader[int, models.PublicProfile] {
	return NewLoader("public_profile",
		func(ctx context.Context, token string, userID int) (models.PublicProfile, error) {
			return a.PublicProfile(ctx, token, userID)
		},
		nil,
		deps,
	)
}

func NewUserListsLoader(a services.Accounts, deps Deps) *Loader[int, []models.Playlist] {
	return NewLoader("user_lists",
		func(ctx context.Context, token string, userID int) ([]models.Playlist, error) {
			return a.UserLists(ctx, token, userID)
		},
		emptySlice[models.Playlist],
		deps,
	)
}

func NewListDetailLoader(l services.Lists, deps Deps) *Loader[int, models.PlaylistDetail] {
	return NewLoader("list_detail",
		func(ctx context.Context, _ string, listID int) (models.PlaylistDetail, error) {
			return l.GetList(ctx, listID)
		},
		func(d models.PlaylistDetail) bool { return len(d.Items) == 0 },
		deps,
	)
}

func NewFeedLoader(a services.Accounts, deps Deps) *Loader[int, []models.ActivityItem] {
	return NewLoader("feed",
		func(ctx context.Context, _ string, userID int) ([]models.ActivityItem, error) {
			return a.UserFeed(ctx, userID)
		},
		emptySlice[models.ActivityItem],
		deps,
	)
}

// NewOwnLikesLoader loads the signed-in user's liked tracks, keyed by their id.
func NewOwnLikesLoader(a services.Accounts, deps Deps) *Loader[int, []models.Track] {
	return NewLoader("own_likes",
		func(ctx context.Context, token string, _ int) ([]models.Track, error) {
			return a.MyLikes(ctx, token)
		},
		emptySlice[models.Track],
		deps,
	)
}

func NewUserLikesLoader(a services.Accounts, deps Deps) *Loader[int, []models.Track] {
	return NewLoader("user_likes",
		func(ctx context.Context, _ string, userID int) ([]models.Track, error) {
			return a.UserLikes(ctx, userID)
		},
		emptySlice[models.Track],
		deps,
	)
}

func NewUserSearchLoader(a services.Accounts, deps Deps) *Loader[string, []models.PublicProfile] {
	return NewLoader("user_search",
		func(ctx context.Context, _ string, q string) ([]models.PublicProfile, error) {
			return a.SearchUsers(ctx, q)
		},
		emptySlice[models.PublicProfile],
		deps,
	)
}

func NewExternalSearchLoader(c services.Catalog, deps Deps) *Loader[string, []models.ExternalTrack] {
	return NewLoader("external_search",
		func(ctx context.Context, _ string, q string) ([]models.ExternalTrack, error) {
			return c.SearchExternal(ctx, q)
		},
		emptySlice[models.ExternalTrack],
		deps,
	)
}
