package tasks

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/services"
	"github.com/desertthunder/hitnote/internal/shared"
)

func TestListsController(t *testing.T) {
	ctx := context.Background()

	t.Run("Create Update Delete", func(t *testing.T) {
		f := newFixture(t)
		owner := f.signIn("ana")
		f.backend.AddList(owner.ID, models.PlaylistInput{Name: "Old", Public: true})

		c := NewListsController(f.service, owner.ID, f.deps)
		lists, err := c.Load(ctx)
		require.NoError(t, err)
		require.Len(t, lists, 1)

		created, err := c.Create(ctx, models.PlaylistInput{Name: "New", Description: "fresh"})
		require.NoError(t, err)
		require.Len(t, c.State(), 2)
		assert.Equal(t, created.ID, c.State()[0].ID)

		updated, err := c.Update(ctx, created.ID, models.PlaylistInput{Name: "Renamed", Public: true})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
		got, ok := c.Find(created.ID)
		require.True(t, ok)
		assert.Equal(t, "Renamed", got.Name)
		assert.Len(t, c.State(), 2)

		var navigated int
		c.NavigateAway = func(id int) { navigated = id }
		require.NoError(t, c.Delete(ctx, created.ID, func(p models.Playlist) bool { return p.Name == "Renamed" }))
		assert.Equal(t, created.ID, navigated)
		assert.Len(t, c.State(), 1)
		_, exists := f.backend.List(created.ID)
		assert.False(t, exists)
	})

	t.Run("Declined Delete Sends Nothing", func(t *testing.T) {
		f := newFixture(t)
		owner := f.signIn("ana")
		d := f.backend.AddList(owner.ID, models.PlaylistInput{Name: "Keep", Public: true})
		c := NewListsController(f.service, owner.ID, f.deps)
		_, err := c.Load(ctx)
		require.NoError(t, err)
		f.backend.Reset()

		c.NavigateAway = func(int) { t.Fatal("must not navigate") }
		err = c.Delete(ctx, d.ID, func(models.Playlist) bool { return false })
		assert.ErrorIs(t, err, shared.ErrCancelled)
		assert.Equal(t, "cancelled", shared.UserMessage(err))
		assert.Empty(t, f.backend.Requests())
		assert.Len(t, c.State(), 1)
	})

	t.Run("Blank Name Sends Nothing", func(t *testing.T) {
		f := newFixture(t)
		owner := f.signIn("ana")
		c := NewListsController(f.service, owner.ID, f.deps)
		f.backend.Reset()

		_, err := c.Create(ctx, models.PlaylistInput{Name: "   "})
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Empty(t, f.backend.Requests())
	})

	t.Run("Non Owner Update Is Not Authorized", func(t *testing.T) {
		f := newFixture(t)
		owner, _ := f.backend.AddUser("Ana", "ana", "ana@example.com", "pw")
		d := f.backend.AddList(owner.ID, models.PlaylistInput{Name: "Mine", Public: true})
		f.signIn("eve")

		c := NewListsController(f.service, owner.ID, f.deps)
		_, err := c.Load(ctx)
		require.NoError(t, err)
		notices, stop := c.Notices()
		defer stop()

		_, err = c.Update(ctx, d.ID, models.PlaylistInput{Name: "Hijacked"})
		assert.ErrorIs(t, err, shared.ErrNotAuthorized)
		assert.Equal(t, "not authorized", (<-notices).Message)
		got, _ := c.Find(d.ID)
		assert.Equal(t, "Mine", got.Name)
	})
}

func TestListDetailController(t *testing.T) {
	ctx := context.Background()
	const addRoute = "POST /listas/{id}/musicas/{trackId}"

	setup := func(t *testing.T) (*fixture, models.Track, *ListDetailController) {
		f := newFixture(t)
		owner := f.signIn("ana")
		track := f.backend.AddTrack(models.TrackInput{Title: "Song", Artist: "Band"})
		d := f.backend.AddList(owner.ID, models.PlaylistInput{Name: "Mix", Public: true})
		c := NewListDetailController(f.service, d.ID, f.deps)
		c.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
		_, err := c.Load(ctx)
		require.NoError(t, err)
		return f, track, c
	}

	assertCount := func(t *testing.T, d models.PlaylistDetail) {
		t.Helper()
		assert.Equal(t, len(d.Items), d.SongCount)
	}

	t.Run("Add And Remove Keep Count", func(t *testing.T) {
		_, track, c := setup(t)
		assertCount(t, c.State())

		d, err := c.AddTrack(ctx, track)
		require.NoError(t, err)
		assertCount(t, d)
		require.Len(t, d.Items, 1)
		assert.Equal(t, "2024-05-01T12:00:00Z", d.Items[0].AddedAt)

		d, err = c.RemoveTrack(ctx, track.ID)
		require.NoError(t, err)
		assertCount(t, d)
		assert.Empty(t, d.Items)
	})

	t.Run("Duplicate Add Surfaces Backend Message", func(t *testing.T) {
		_, track, c := setup(t)
		_, err := c.AddTrack(ctx, track)
		require.NoError(t, err)

		d, err := c.AddTrack(ctx, track)
		assert.Equal(t, "Track already in list", err.Error())
		assert.Len(t, d.Items, 1)
		assertCount(t, c.State())
	})

	t.Run("Rejected Add Without Detail", func(t *testing.T) {
		f, track, c := setup(t)
		f.backend.Fail(addRoute, http.StatusConflict, "")

		_, err := c.AddTrack(ctx, track)
		assert.Equal(t, "already in list or not permitted", err.Error())
		assert.Equal(t, http.StatusConflict, services.StatusCode(err))
		assert.Empty(t, c.State().Items)
	})

	t.Run("Anonymous Sends Nothing", func(t *testing.T) {
		f, track, c := setup(t)
		f.tokens.set("")
		f.backend.Reset()

		_, err := c.AddTrack(ctx, track)
		assert.ErrorIs(t, err, shared.ErrLoginRequired)
		_, err = c.RemoveTrack(ctx, track.ID)
		assert.ErrorIs(t, err, shared.ErrLoginRequired)
		assert.Empty(t, f.backend.Requests())
	})
}
