package tasks

import (
	"context"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/services"
	"github.com/desertthunder/hitnote/internal/shared"
)

// ProfileEditor edits the signed-in user's own profile.
type ProfileEditor struct {
	*Optimistic[models.UserProfile]
	backend services.Accounts
	deps    Deps
}

func NewProfileEditor(backend services.Accounts, deps Deps) *ProfileEditor {
	return &ProfileEditor{
		Optimistic: NewOptimistic(models.UserProfile{}, deps.logger("profile")),
		backend:    backend,
		deps:       deps,
	}
}

func (e *ProfileEditor) Load(ctx context.Context) (models.UserProfile, error) {
	token := e.deps.token()
	if token == "" {
		return e.State(), shared.ErrLoginRequired
	}

	p, err := e.backend.MyProfile(ctx, token)
	if err != nil {
		return e.State(), err
	}
	e.Set(p)
	return p, nil
}

// Save submits the complete editable set and replaces the local record with the backend's copy.
func (e *ProfileEditor) Save(ctx context.Context, update models.ProfileUpdate) (models.UserProfile, error) {
	if err := update.Validate(); err != nil {
		return e.State(), err
	}
	token := e.deps.token()
	if token == "" {
		return e.State(), shared.ErrLoginRequired
	}

	return Mutate(ctx, e.Optimistic, Mutation[models.UserProfile, models.UserProfile]{
		Op: SaveProfile,
		Commit: func(ctx context.Context) (models.UserProfile, error) {
			return e.backend.UpdateMyProfile(ctx, token, update)
		},
		Reconcile: func(_ models.UserProfile, saved models.UserProfile) models.UserProfile {
			return saved
		},
	})
}
