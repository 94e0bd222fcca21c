package tasks

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/services"
	"github.com/desertthunder/hitnote/internal/shared"
)

// Confirmer asks the owner to confirm an irreversible action on a list.
type Confirmer func(models.Playlist) bool

// ListsController holds one user's collection of lists, newest first.
type ListsController struct {
	*Optimistic[[]models.Playlist]
	backend services.Backend
	deps    Deps
	ownerID int

	// NavigateAway runs after a list is deleted so views showing it can leave.
	NavigateAway func(listID int)
}

func NewListsController(backend services.Backend, ownerID int, deps Deps) *ListsController {
	return &ListsController{
		Optimistic: NewOptimistic([]models.Playlist{}, deps.logger("lists")),
		backend:    backend,
		deps:       deps,
		ownerID:    ownerID,
	}
}

func (c *ListsController) Load(ctx context.Context) ([]models.Playlist, error) {
	lists, err := c.backend.UserLists(ctx, c.deps.token(), c.ownerID)
	if err != nil {
		return c.State(), err
	}
	c.Set(lists)
	return lists, nil
}

// Find returns the list with id from the collection.
func (c *ListsController) Find(id int) (models.Playlist, bool) {
	return lo.Find(c.State(), func(p models.Playlist) bool { return p.ID == id })
}

// Create adds a list and prepends it to the collection. The name must not be blank.
func (c *ListsController) Create(ctx context.Context, in models.PlaylistInput) (models.Playlist, error) {
	if err := in.Validate(); err != nil {
		return models.Playlist{}, err
	}
	token := c.deps.token()
	if token == "" {
		return models.Playlist{}, shared.ErrLoginRequired
	}

	var created models.Playlist
	_, err := Mutate(ctx, c.Optimistic, Mutation[[]models.Playlist, models.Playlist]{
		Op: CreateList,
		Commit: func(ctx context.Context) (models.Playlist, error) {
			return c.backend.CreateList(ctx, token, in)
		},
		Reconcile: func(prior []models.Playlist, p models.Playlist) []models.Playlist {
			created = p
			return append([]models.Playlist{p}, prior...)
		},
	})
	return created, err
}

// Update replaces a list's name, description and visibility. Non-owners get [shared.ErrNotAuthorized].
func (c *ListsController) Update(ctx context.Context, id int, in models.PlaylistInput) (models.Playlist, error) {
	if err := in.Validate(); err != nil {
		return models.Playlist{}, err
	}
	token := c.deps.token()
	if token == "" {
		return models.Playlist{}, shared.ErrLoginRequired
	}

	var updated models.Playlist
	_, err := Mutate(ctx, c.Optimistic, Mutation[[]models.Playlist, models.Playlist]{
		Op: UpdateList,
		Commit: func(ctx context.Context) (models.Playlist, error) {
			return c.backend.UpdateList(ctx, token, id, in)
		},
		Reconcile: func(prior []models.Playlist, p models.Playlist) []models.Playlist {
			updated = p
			return lo.Map(prior, func(old models.Playlist, _ int) models.Playlist {
				if old.ID == p.ID {
					return p
				}
				return old
			})
		},
	})
	return updated, err
}

// Delete removes a list after confirm approves it, then runs NavigateAway.
//
// When confirm declines, nothing is sent and [shared.ErrCancelled] is returned.
func (c *ListsController) Delete(ctx context.Context, id int, confirm Confirmer) error {
	token := c.deps.token()
	if token == "" {
		return shared.ErrLoginRequired
	}

	target, ok := c.Find(id)
	if !ok {
		target = models.Playlist{ID: id}
	}
	if confirm == nil || !confirm(target) {
		return shared.ErrCancelled
	}

	_, err := Mutate(ctx, c.Optimistic, Mutation[[]models.Playlist, struct{}]{
		Op: DeleteList,
		Commit: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.backend.DeleteList(ctx, token, id)
		},
		Reconcile: func(prior []models.Playlist, _ struct{}) []models.Playlist {
			return lo.Reject(prior, func(p models.Playlist, _ int) bool { return p.ID == id })
		},
	})
	if err != nil {
		return err
	}

	if c.NavigateAway != nil {
		c.NavigateAway(id)
	}
	return nil
}

// ListDetailController holds one list with its members.
//
// Membership changes go through [models.PlaylistDetail.AddItem] and [models.PlaylistDetail.RemoveItem], so the
// song count always equals the number of items.
type ListDetailController struct {
	*Optimistic[models.PlaylistDetail]
	backend services.Lists
	deps    Deps
	listID  int
	now     func() time.Time
}

func NewListDetailController(backend services.Lists, listID int, deps Deps) *ListDetailController {
	return &ListDetailController{
		Optimistic: NewOptimistic(models.PlaylistDetail{Items: []models.PlaylistItem{}}, deps.logger("list_detail")),
		backend:    backend,
		deps:       deps,
		listID:     listID,
		now:        time.Now,
	}
}

func (c *ListDetailController) Load(ctx context.Context) (models.PlaylistDetail, error) {
	d, err := c.backend.GetList(ctx, c.listID)
	if err != nil {
		return c.State(), err
	}
	c.Set(d)
	return d, nil
}

func cloneDetail(d models.PlaylistDetail) models.PlaylistDetail {
	d.Items = slices.Clone(d.Items)
	return d
}

// duplicateMessage is shown when the backend rejects an add without explaining why.
const duplicateMessage = "already in list or not permitted"

func rejectedAdd(status int) bool {
	return status == http.StatusBadRequest || status == http.StatusForbidden || status == http.StatusConflict
}

// AddTrack adds track to the list. The backend rejects tracks that are already members; its message is returned.
func (c *ListDetailController) AddTrack(ctx context.Context, track models.Track) (models.PlaylistDetail, error) {
	token := c.deps.token()
	if token == "" {
		return c.State(), shared.ErrLoginRequired
	}

	return Mutate(ctx, c.Optimistic, Mutation[models.PlaylistDetail, struct{}]{
		Op: AddListTrack,
		Commit: func(ctx context.Context) (struct{}, error) {
			err := c.backend.AddTrackToList(ctx, token, c.listID, track.ID)
			var httpErr *services.HTTPError
			if errors.As(err, &httpErr) && !httpErr.HasDetail() && rejectedAdd(httpErr.Status) {
				err = &services.HTTPError{Status: httpErr.Status, Message: duplicateMessage}
			}
			return struct{}{}, err
		},
		Reconcile: func(prior models.PlaylistDetail, _ struct{}) models.PlaylistDetail {
			next := cloneDetail(prior)
			next.AddItem(track, c.now())
			return next
		},
	})
}

// RemoveTrack removes the member with trackID.
func (c *ListDetailController) RemoveTrack(ctx context.Context, trackID int) (models.PlaylistDetail, error) {
	token := c.deps.token()
	if token == "" {
		return c.State(), shared.ErrLoginRequired
	}

	return Mutate(ctx, c.Optimistic, Mutation[models.PlaylistDetail, struct{}]{
		Op: RemoveListTrack,
		Commit: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.backend.RemoveTrackFromList(ctx, token, c.listID, trackID)
		},
		Reconcile: func(prior models.PlaylistDetail, _ struct{}) models.PlaylistDetail {
			next := cloneDetail(prior)
			next.RemoveItem(trackID)
			return next
		},
	})
}
