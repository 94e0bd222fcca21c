package tasks

import (
	"context"

	"github.com/desertthunder/hitnote/internal/services"
	"github.com/desertthunder/hitnote/internal/shared"
)

// LikeController holds whether the viewer likes one track.
type LikeController struct {
	*Optimistic[bool]
	backend services.Catalog
	deps    Deps
	trackID int
}

func NewLikeController(backend services.Catalog, trackID int, deps Deps) *LikeController {
	return &LikeController{
		Optimistic: NewOptimistic(false, deps.logger("like")),
		backend:    backend,
		deps:       deps,
		trackID:    trackID,
	}
}

// Refresh loads the authoritative state. Anonymous viewers and failed lookups read as not liked.
func (c *LikeController) Refresh(ctx context.Context) bool {
	liked, err := c.backend.LikeStatus(ctx, c.deps.token(), c.trackID)
	if err != nil {
		liked = false
	}
	c.Set(liked)
	return liked
}

// Toggle flips the like optimistically and returns the settled state.
//
// Anonymous viewers get [shared.ErrLoginRequired] and no request is sent.
func (c *LikeController) Toggle(ctx context.Context) (bool, error) {
	token := c.deps.token()
	if token == "" {
		return c.State(), shared.ErrLoginRequired
	}

	return Mutate(ctx, c.Optimistic, Mutation[bool, bool]{
		Op:    ToggleLike,
		Guess: func(prior bool) bool { return !prior },
		Commit: func(ctx context.Context) (bool, error) {
			return c.backend.ToggleLike(ctx, token, c.trackID)
		},
		Reconcile: func(_ bool, liked bool) bool { return liked },
	})
}
