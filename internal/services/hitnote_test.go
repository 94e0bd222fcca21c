package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/shared"
	tu "github.com/desertthunder/hitnote/internal/testing"
)

func newTestService(t *testing.T) (*HitnoteService, *tu.Backend) {
	t.Helper()
	b := tu.NewBackend(t)
	return NewHitnoteService(NewAPIService(b.URL(), b.Client())), b
}

func TestHitnoteServiceCatalog(t *testing.T) {
	ctx := context.Background()
	srv, b := newTestService(t)
	user, token := b.AddUser("Ana", "ana", "ana@example.com", "secret")
	queen := b.AddTrack(models.TrackInput{Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera"})
	for i := range 9 {
		b.AddTrack(models.TrackInput{Title: "Filler " + string(rune('A'+i)), Artist: "Various"})
	}

	t.Run("ListTracks", func(t *testing.T) {
		t.Run("Query Pagination And Order", func(t *testing.T) {
			page, err := srv.ListTracks(ctx, "", TrackQuery{Page: 2, PageSize: 8, Order: models.OrderIDAsc})
			require.NoError(t, err)
			assert.Equal(t, 10, page.Total)
			assert.Len(t, page.Items, 2)
			assert.Equal(t, 2, page.MaxPage(8))

			page, err = srv.ListTracks(ctx, "", TrackQuery{Query: "queen", Page: 1, PageSize: 8})
			require.NoError(t, err)
			require.Len(t, page.Items, 1)
			assert.Equal(t, queen.ID, page.Items[0].ID)
			assert.Nil(t, page.Items[0].UserRating)
		})

		t.Run("Values Omit Zero Fields", func(t *testing.T) {
			assert.Empty(t, TrackQuery{}.Values().Encode())
			assert.Equal(t, "order=nome_desc&page=3&page_size=8&q=a+b", TrackQuery{Query: "a b", Page: 3, PageSize: 8, Order: models.OrderNameDesc}.Values().Encode())
		})

		t.Run("Sends Optional Token", func(t *testing.T) {
			b.AddReview(queen.ID, user.ID, 4, "")
			page, err := srv.ListTracks(ctx, token, TrackQuery{Query: "queen"})
			require.NoError(t, err)
			require.NotNil(t, page.Items[0].UserRating)
			assert.Equal(t, 4, *page.Items[0].UserRating)
		})
	})

	t.Run("GetTrack", func(t *testing.T) {
		track, err := srv.GetTrack(ctx, queen.ID)
		require.NoError(t, err)
		assert.Equal(t, "Queen", track.Artist)

		_, err = srv.GetTrack(ctx, 999999)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Equal(t, "track not found", err.Error())
	})

	t.Run("CreateTrack", func(t *testing.T) {
		track, err := srv.CreateTrack(ctx, models.TrackInput{Title: "Under Pressure", Artist: "Queen"})
		require.NoError(t, err)
		assert.NotZero(t, track.ID)

		b.Reset()
		_, err = srv.CreateTrack(ctx, models.TrackInput{Artist: "Queen"})
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Zero(t, b.Count("", "/musicas"))
	})

	t.Run("Reviews And Rating", func(t *testing.T) {
		agg, err := srv.GetRating(ctx, queen.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, agg.Count)

		review, err := srv.CreateReview(ctx, token, queen.ID, models.ReviewInput{Rating: 5, Comment: "Great"})
		require.NoError(t, err)
		assert.Equal(t, "Ana", review.Author)
		assert.Equal(t, "Bohemian Rhapsody", review.TrackName)

		reviews, err := srv.ListReviews(ctx, queen.ID)
		require.NoError(t, err)
		require.Len(t, reviews, 2)
		assert.Equal(t, review.ID, reviews[0].ID)

		agg, err = srv.GetRating(ctx, queen.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, agg.Count)
		assert.InDelta(t, 4.5, *agg.Mean, 1e-9)
	})

	t.Run("Rating Without Reviews Has Nil Mean", func(t *testing.T) {
		lonely := b.AddTrack(models.TrackInput{Title: "B-side", Artist: "Nobody"})
		agg, err := srv.GetRating(ctx, lonely.ID)
		require.NoError(t, err)
		assert.False(t, agg.HasRating())
		assert.Nil(t, agg.Mean)
	})

	t.Run("Likes", func(t *testing.T) {
		b.Reset()
		liked, err := srv.LikeStatus(ctx, "", queen.ID)
		require.NoError(t, err)
		assert.False(t, liked)

		_, err = srv.ToggleLike(ctx, "", queen.ID)
		assert.ErrorIs(t, err, shared.ErrLoginRequired)
		assert.Empty(t, b.Requests(), "anonymous like calls must not reach the network")

		liked, err = srv.ToggleLike(ctx, token, queen.ID)
		require.NoError(t, err)
		assert.True(t, liked)

		liked, err = srv.LikeStatus(ctx, token, queen.ID)
		require.NoError(t, err)
		assert.True(t, liked)
	})

	t.Run("SearchExternal", func(t *testing.T) {
		b.SetExternal(models.ExternalTrack{ExternalID: 42, Title: "Killer Queen", Artist: "Queen"})

		hits, err := srv.SearchExternal(ctx, "killer")
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, 42, hits[0].ExternalID)

		_, err = srv.SearchExternal(ctx, "")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestHitnoteServiceAccounts(t *testing.T) {
	ctx := context.Background()
	srv, b := newTestService(t)
	other, _ := b.AddUser("Bruno", "bruno", "bruno@example.com", "pw")

	t.Run("Register And Login", func(t *testing.T) {
		u, err := srv.Register(ctx, models.Registration{Name: "Carla", Username: "carla", Email: "carla@example.com", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "carla", u.Username)

		_, err = srv.Register(ctx, models.Registration{Name: "Carla", Email: "carla@example.com", Password: "pw"})
		assert.Equal(t, "Email already registered", err.Error())

		resp, err := srv.Login(ctx, models.Credentials{Email: "carla@example.com", Password: "pw"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, u.ID, resp.User.ID)

		_, err = srv.Login(ctx, models.Credentials{Email: "carla@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
		assert.Equal(t, "Incorrect email or password", err.Error())
	})

	resp, err := srv.Login(ctx, models.Credentials{Email: "carla@example.com", Password: "pw"})
	require.NoError(t, err)
	token := resp.AccessToken

	t.Run("Own Profile", func(t *testing.T) {
		_, err := srv.MyProfile(ctx, "")
		assert.ErrorIs(t, err, shared.ErrLoginRequired)

		updated, err := srv.UpdateMyProfile(ctx, token, models.ProfileUpdate{Name: "Carla S.", Bio: "hi", Location: "Recife"})
		require.NoError(t, err)
		assert.Equal(t, "Carla S.", updated.Name)
		assert.Equal(t, "carla@example.com", updated.Email)

		p, err := srv.MyProfile(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, updated, p)
	})

	t.Run("Follow", func(t *testing.T) {
		pub, err := srv.PublicProfile(ctx, "", other.ID)
		require.NoError(t, err)
		assert.Nil(t, pub.IsFollowing)

		following, err := srv.ToggleFollow(ctx, token, other.ID)
		require.NoError(t, err)
		assert.True(t, following)

		pub, err = srv.PublicProfile(ctx, token, other.ID)
		require.NoError(t, err)
		assert.True(t, pub.Following())
		assert.Equal(t, 1, pub.Stats.Followers)
	})

	t.Run("Search Likes Lists Feed", func(t *testing.T) {
		users, err := srv.SearchUsers(ctx, "bru")
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, other.ID, users[0].ID)

		track := b.AddTrack(models.TrackInput{Title: "Song", Artist: "Band"})
		_, err = srv.ToggleLike(ctx, token, track.ID)
		require.NoError(t, err)

		mine, err := srv.MyLikes(ctx, token)
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		theirs, err := srv.UserLikes(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, theirs)
		assert.NotNil(t, theirs)

		b.AddList(other.ID, models.PlaylistInput{Name: "Public", Public: true})
		b.AddList(other.ID, models.PlaylistInput{Name: "Private"})
		lists, err := srv.UserLists(ctx, token, other.ID)
		require.NoError(t, err)
		require.Len(t, lists, 1)
		assert.Equal(t, "Public", lists[0].Name)

		feed, err := srv.UserFeed(ctx, other.ID)
		require.NoError(t, err)
		require.Len(t, feed, 1)
		assert.Equal(t, models.ActivityListCreate, feed[0].Kind)
	})
}

func TestHitnoteServiceLists(t *testing.T) {
	ctx := context.Background()
	srv, b := newTestService(t)
	owner, token := b.AddUser("Ana", "ana", "ana@example.com", "pw")
	_, strangerToken := b.AddUser("Eve", "eve", "eve@example.com", "pw")
	track := b.AddTrack(models.TrackInput{Title: "Song", Artist: "Band"})

	created, err := srv.CreateList(ctx, token, models.PlaylistInput{Name: "Road trip", Public: true})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, created.OwnerID)

	t.Run("Create Requires Name", func(t *testing.T) {
		b.Reset()
		_, err := srv.CreateList(ctx, token, models.PlaylistInput{Name: " "})
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Zero(t, b.Count(http.MethodPost, "/listas"))
	})

	t.Run("Membership", func(t *testing.T) {
		require.NoError(t, srv.AddTrackToList(ctx, token, created.ID, track.ID))

		err := srv.AddTrackToList(ctx, token, created.ID, track.ID)
		assert.Equal(t, "Track already in list", err.Error())

		d, err := srv.GetList(ctx, created.ID)
		require.NoError(t, err)
		assert.Len(t, d.Items, 1)
		assert.Equal(t, 1, d.SongCount)

		require.NoError(t, srv.RemoveTrackFromList(ctx, token, created.ID, track.ID))
		d, err = srv.GetList(ctx, created.ID)
		require.NoError(t, err)
		assert.Empty(t, d.Items)
		assert.Zero(t, d.SongCount)
	})

	t.Run("Update Non Owner Is Forbidden", func(t *testing.T) {
		_, err := srv.UpdateList(ctx, strangerToken, created.ID, models.PlaylistInput{Name: "Hijacked"})
		assert.ErrorIs(t, err, shared.ErrNotAuthorized)
		assert.Equal(t, "not authorized", shared.UserMessage(err))

		updated, err := srv.UpdateList(ctx, token, created.ID, models.PlaylistInput{Name: "Road trip 2"})
		require.NoError(t, err)
		assert.Equal(t, "Road trip 2", updated.Name)
		assert.False(t, updated.Public)
	})

	t.Run("Delete", func(t *testing.T) {
		assert.ErrorIs(t, srv.DeleteList(ctx, strangerToken, created.ID), shared.ErrNotAuthorized)
		require.NoError(t, srv.DeleteList(ctx, token, created.ID))

		_, err := srv.GetList(ctx, created.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
