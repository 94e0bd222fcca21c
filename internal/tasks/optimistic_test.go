package tasks

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/shared"
)

func TestMutate(t *testing.T) {
	ctx := context.Background()

	t.Run("Guess Then Reconcile", func(t *testing.T) {
		o := NewOptimistic(1, nil)
		var during int
		got, err := Mutate(ctx, o, Mutation[int, int]{
			Guess: func(prior int) int { return prior + 10 },
			Commit: func(context.Context) (int, error) {
				during = o.State()
				return 5, nil
			},
			Reconcile: func(prior, result int) int { return prior + result },
		})
		require.NoError(t, err)
		assert.Equal(t, 11, during)
		assert.Equal(t, 6, got)
		assert.Equal(t, 6, o.State())
		assert.False(t, o.Busy())
	})

	t.Run("Rollback Restores Prior And Notifies", func(t *testing.T) {
		o := NewOptimistic("before", nil)
		notices, stop := o.Notices()
		defer stop()

		boom := errors.New("boom")
		got, err := Mutate(ctx, o, Mutation[string, struct{}]{
			Op:        DeleteList,
			Guess:     func(string) string { return "guess" },
			Commit:    func(context.Context) (struct{}, error) { return struct{}{}, boom },
			Reconcile: func(string, struct{}) string { return "after" },
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, "before", got)
		assert.Equal(t, "before", o.State())

		n := <-notices
		assert.Equal(t, DeleteList, n.Op)
		assert.Equal(t, "boom", n.Message)
		assert.Equal(t, "delete_list: boom", n.String())
	})

	t.Run("Second Mutation Is Busy", func(t *testing.T) {
		o := NewOptimistic(0, nil)
		entered, release := make(chan struct{}), make(chan struct{})

		go func() {
			_, _ = Mutate(ctx, o, Mutation[int, int]{
				Guess: func(p int) int { return p + 1 },
				Commit: func(context.Context) (int, error) {
					close(entered)
					<-release
					return 1, nil
				},
				Reconcile: func(_ int, r int) int { return r },
			})
		}()
		<-entered

		assert.True(t, o.Busy())
		calls := 0
		got, err := Mutate(ctx, o, Mutation[int, int]{
			Commit:    func(context.Context) (int, error) { calls++; return 0, nil },
			Reconcile: func(p int, _ int) int { return p },
		})
		assert.ErrorIs(t, err, shared.ErrBusy)
		assert.Equal(t, 1, got)
		assert.Zero(t, calls)

		close(release)
		require.Eventually(t, func() bool { return !o.Busy() }, eventually, tick)
	})
}

func TestLikeController(t *testing.T) {
	ctx := context.Background()
	const likeRoute = "POST /musicas/{id}/like"

	t.Run("Anonymous Toggle Sends Nothing", func(t *testing.T) {
		f := newFixture(t)
		track := f.backend.AddTrack(models.TrackInput{Title: "Song", Artist: "Band"})
		c := NewLikeController(f.service, track.ID, f.deps)

		assert.False(t, c.Refresh(ctx))
		f.backend.Reset()

		liked, err := c.Toggle(ctx)
		assert.ErrorIs(t, err, shared.ErrLoginRequired)
		assert.False(t, liked)
		assert.Empty(t, f.backend.Requests())
	})

	t.Run("Toggle Shows Guess Before Commit", func(t *testing.T) {
		f := newFixture(t)
		user := f.signIn("ana")
		track := f.backend.AddTrack(models.TrackInput{Title: "Song", Artist: "Band"})
		c := NewLikeController(f.service, track.ID, f.deps)

		var during atomic.Bool
		f.backend.OnRequest(likeRoute, func(*http.Request) { during.Store(c.State()) })

		liked, err := c.Toggle(ctx)
		require.NoError(t, err)
		assert.True(t, during.Load())
		assert.True(t, liked)
		assert.True(t, f.backend.Likes(user.ID, track.ID))

		liked, err = c.Toggle(ctx)
		require.NoError(t, err)
		assert.False(t, liked)
		assert.False(t, c.Refresh(ctx))
	})

	t.Run("Failure Rolls Back", func(t *testing.T) {
		f := newFixture(t)
		f.signIn("ana")
		track := f.backend.AddTrack(models.TrackInput{Title: "Song", Artist: "Band"})
		c := NewLikeController(f.service, track.ID, f.deps)
		notices, stop := c.Notices()
		defer stop()

		var during atomic.Bool
		f.backend.OnRequest(likeRoute, func(*http.Request) { during.Store(c.State()) })
		f.backend.Fail(likeRoute, http.StatusInternalServerError, "like service unavailable")

		liked, err := c.Toggle(ctx)
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
		assert.True(t, during.Load())
		assert.False(t, liked)
		assert.False(t, c.State())
		assert.Equal(t, "like service unavailable", (<-notices).Message)
	})

	t.Run("Server Answer Wins", func(t *testing.T) {
		f := newFixture(t)
		user := f.signIn("ana")
		track := f.backend.AddTrack(models.TrackInput{Title: "Song", Artist: "Band"})
		c := NewLikeController(f.service, track.ID, f.deps)

		// Liked elsewhere, so the local false is stale and the toggle unlikes.
		_, err := f.service.ToggleLike(ctx, f.tokens.Token(), track.ID)
		require.NoError(t, err)

		liked, err := c.Toggle(ctx)
		require.NoError(t, err)
		assert.False(t, liked)
		assert.False(t, f.backend.Likes(user.ID, track.ID))
	})
}

func TestFollowController(t *testing.T) {
	ctx := context.Background()
	const followRoute = "POST /usuarios/{id}/seguir"

	t.Run("Counter Follows Toggle", func(t *testing.T) {
		f := newFixture(t)
		target, _ := f.backend.AddUser("Bruno", "bruno", "bruno@example.com", "pw")
		viewer := f.signIn("ana")

		c := NewFollowController(f.service, target.ID, f.deps)
		p, err := c.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "bruno", p.Username)
		assert.Equal(t, FollowState{}, c.State())

		var during atomic.Int64
		f.backend.OnRequest(followRoute, func(*http.Request) { during.Store(int64(c.State().Followers)) })

		st, err := c.Toggle(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), during.Load())
		assert.Equal(t, FollowState{Following: true, Followers: 1}, st)
		assert.True(t, f.backend.Follows(viewer.ID, target.ID))

		st, err = c.Toggle(ctx)
		require.NoError(t, err)
		assert.Equal(t, FollowState{Following: false, Followers: 0}, st)
	})

	t.Run("Failure Restores Both Fields", func(t *testing.T) {
		f := newFixture(t)
		target, _ := f.backend.AddUser("Bruno", "bruno", "bruno@example.com", "pw")
		f.signIn("ana")
		c := NewFollowController(f.service, target.ID, f.deps)
		c.Set(FollowState{Following: true, Followers: 12})

		f.backend.Fail(followRoute, http.StatusForbidden, "")
		st, err := c.Toggle(ctx)
		assert.ErrorIs(t, err, shared.ErrNotAuthorized)
		assert.Equal(t, FollowState{Following: true, Followers: 12}, st)
		assert.Equal(t, st, c.State())
	})

	t.Run("Anonymous Toggle Sends Nothing", func(t *testing.T) {
		f := newFixture(t)
		target, _ := f.backend.AddUser("Bruno", "bruno", "bruno@example.com", "pw")
		c := NewFollowController(f.service, target.ID, f.deps)
		f.backend.Reset()

		_, err := c.Toggle(ctx)
		assert.ErrorIs(t, err, shared.ErrLoginRequired)
		assert.Zero(t, f.backend.Count(http.MethodPost, "/usuarios"))
	})

	t.Run("Delta", func(t *testing.T) {
		assert.Equal(t, 1, followDelta(false, true))
		assert.Equal(t, -1, followDelta(true, false))
		assert.Zero(t, followDelta(true, true))
		assert.Zero(t, followDelta(false, false))
	})
}
