package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/shared"
)

func TestProfileEditor(t *testing.T) {
	ctx := context.Background()

	t.Run("Save Replaces Record", func(t *testing.T) {
		f := newFixture(t)
		f.signIn("ana")
		e := NewProfileEditor(f.service, f.deps)

		p, err := e.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ana", p.Username)

		update := p.Editable()
		update.Bio = "listening"
		update.Location = "Recife"
		saved, err := e.Save(ctx, update)
		require.NoError(t, err)
		assert.Equal(t, "listening", saved.Bio)
		assert.Equal(t, p.Email, saved.Email)
		assert.Equal(t, saved, e.State())
	})

	t.Run("Blank Name Sends Nothing", func(t *testing.T) {
		f := newFixture(t)
		f.signIn("ana")
		e := NewProfileEditor(f.service, f.deps)
		f.backend.Reset()

		_, err := e.Save(ctx, models.ProfileUpdate{Bio: "x"})
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Empty(t, f.backend.Requests())
	})

	t.Run("Anonymous", func(t *testing.T) {
		f := newFixture(t)
		e := NewProfileEditor(f.service, f.deps)

		_, err := e.Load(ctx)
		assert.ErrorIs(t, err, shared.ErrLoginRequired)
		_, err = e.Save(ctx, models.ProfileUpdate{Name: "x"})
		assert.ErrorIs(t, err, shared.ErrLoginRequired)
		assert.Empty(t, f.backend.Requests())
	})
}

func TestAuthController(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	store, deps := newSessionDeps(t)
	c := NewAuthController(f.service, store, deps)

	t.Run("Register Does Not Sign In", func(t *testing.T) {
		u, err := c.Register(ctx, models.Registration{Name: "Ana", Username: "ana", Email: "ana@example.com", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "ana", u.Username)
		assert.False(t, store.Authenticated())

		_, err = c.Register(ctx, models.Registration{Name: "Ana", Email: "", Password: "pw"})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("Login Stores Session", func(t *testing.T) {
		_, err := c.Login(ctx, models.Credentials{Email: "ana@example.com", Password: "nope"})
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
		assert.False(t, store.Authenticated())

		who, err := c.Login(ctx, models.Credentials{Email: "ana@example.com", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "ana", who.Username)
		assert.True(t, store.Authenticated())
		assert.NotEmpty(t, store.Token())

		p, err := NewProfileEditor(f.service, deps).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, who.ID, p.ID)
	})

	t.Run("Blank Credentials Send Nothing", func(t *testing.T) {
		f.backend.Reset()
		_, err := c.Login(ctx, models.Credentials{Email: " ", Password: "pw"})
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Empty(t, f.backend.Requests())
	})

	t.Run("Logout", func(t *testing.T) {
		redirected := false
		store.OnLogout(func() { redirected = true })
		require.NoError(t, c.Logout())
		assert.True(t, redirected)
		assert.Empty(t, store.Token())
	})
}

func TestImportController(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.backend.SetExternal(
		models.ExternalTrack{ExternalID: 1, Title: "Killer Queen", Artist: "Queen", Album: "Sheer Heart Attack"},
		models.ExternalTrack{ExternalID: 2, Title: "Yellow", Artist: "Coldplay"},
	)
	c := NewImportController(f.service, f.deps)
	t.Cleanup(c.Close)

	t.Run("Blank Query Sends Nothing", func(t *testing.T) {
		_, err := c.Search(ctx, "  ")
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Empty(t, f.backend.Requests())
	})

	t.Run("Search And Import", func(t *testing.T) {
		hits, err := c.Search(ctx, "queen")
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, ViewReady, c.Results().State().View())

		track, err := c.Import(ctx, hits[0])
		require.NoError(t, err)
		assert.Equal(t, "Killer Queen", track.Title)
		assert.Equal(t, "Sheer Heart Attack", track.Album)

		got, err := f.service.GetTrack(ctx, track.ID)
		require.NoError(t, err)
		assert.Equal(t, track, got)
	})

	t.Run("No Hits Is Empty", func(t *testing.T) {
		hits, err := c.Search(ctx, "nothing matches")
		require.NoError(t, err)
		assert.Empty(t, hits)
		assert.Equal(t, ViewEmpty, c.Results().State().View())
	})
}
