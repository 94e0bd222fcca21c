package tasks

import (
	"context"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/services"
	"github.com/desertthunder/hitnote/internal/shared"
)

// FollowState is the viewer's follow edge to a user together with that user's follower count.
type FollowState struct {
	Following bool
	Followers int
}

// FollowController holds the follow state for one profile.
type FollowController struct {
	*Optimistic[FollowState]
	backend services.Accounts
	deps    Deps
	userID  int
}

func NewFollowController(backend services.Accounts, userID int, deps Deps) *FollowController {
	return &FollowController{
		Optimistic: NewOptimistic(FollowState{}, deps.logger("follow")),
		backend:    backend,
		deps:       deps,
		userID:     userID,
	}
}

// Load fetches the profile and adopts its follow state.
func (c *FollowController) Load(ctx context.Context) (models.PublicProfile, error) {
	p, err := c.backend.PublicProfile(ctx, c.deps.token(), c.userID)
	if err != nil {
		return p, err
	}
	c.Seed(p)
	return p, nil
}

// Seed adopts the follow state of an already fetched profile.
func (c *FollowController) Seed(p models.PublicProfile) {
	c.Set(FollowState{Following: p.Following(), Followers: p.Stats.Followers})
}

// Toggle flips the follow optimistically, moving the follower count by one, and returns the settled state.
//
// On success the backend's answer wins and the count is the prior count adjusted by the real change. Anonymous
// viewers get [shared.ErrLoginRequired] and no request is sent.
func (c *FollowController) Toggle(ctx context.Context) (FollowState, error) {
	token := c.deps.token()
	if token == "" {
		return c.State(), shared.ErrLoginRequired
	}

	return Mutate(ctx, c.Optimistic, Mutation[FollowState, bool]{
		Op: ToggleFollow,
		Guess: func(prior FollowState) FollowState {
			return FollowState{Following: !prior.Following, Followers: prior.Followers + followDelta(prior.Following, !prior.Following)}
		},
		Commit: func(ctx context.Context) (bool, error) {
			return c.backend.ToggleFollow(ctx, token, c.userID)
		},
		Reconcile: func(prior FollowState, following bool) FollowState {
			return FollowState{Following: following, Followers: prior.Followers + followDelta(prior.Following, following)}
		},
	})
}

func followDelta(before, after bool) int {
	switch {
	case !before && after:
		return 1
	case before && !after:
		return -1
	default:
		return 0
	}
}
