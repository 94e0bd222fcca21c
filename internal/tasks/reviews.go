package tasks

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/services"
	"github.com/desertthunder/hitnote/internal/shared"
)

// ReviewState is a track's reviews, newest first, and its rating aggregate.
type ReviewState struct {
	Reviews []models.Review
	Rating  models.RatingAggregate
}

// ReviewController holds the reviews of one track and accepts new ones.
type ReviewController struct {
	*Optimistic[ReviewState]
	backend services.Catalog
	deps    Deps
	trackID int
}

func NewReviewController(backend services.Catalog, trackID int, deps Deps) *ReviewController {
	return &ReviewController{
		Optimistic: NewOptimistic(ReviewState{Reviews: []models.Review{}, Rating: models.Unrated(trackID)}, deps.logger("reviews")),
		backend:    backend,
		deps:       deps,
		trackID:    trackID,
	}
}

// Load fetches reviews and the aggregate together and replaces any local estimate.
func (c *ReviewController) Load(ctx context.Context) (ReviewState, error) {
	var st ReviewState

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reviews, err := c.backend.ListReviews(gctx, c.trackID)
		st.Reviews = reviews
		return err
	})
	g.Go(func() error {
		agg, err := c.backend.GetRating(gctx, c.trackID)
		st.Rating = agg
		return err
	})
	if err := g.Wait(); err != nil {
		return c.State(), err
	}

	c.Set(st)
	return st, nil
}

// Submit posts a review. On success the review is prepended and the aggregate updated with the running mean;
// on failure the state is left as it was.
//
// The rating must be 1 to 5 and a session is required. Both are checked before any request.
func (c *ReviewController) Submit(ctx context.Context, in models.ReviewInput) (models.Review, error) {
	if err := in.Validate(); err != nil {
		return models.Review{}, err
	}
	token := c.deps.token()
	if token == "" {
		return models.Review{}, shared.ErrLoginRequired
	}

	var created models.Review
	_, err := Mutate(ctx, c.Optimistic, Mutation[ReviewState, models.Review]{
		Op: SubmitReview,
		Commit: func(ctx context.Context) (models.Review, error) {
			return c.backend.CreateReview(ctx, token, c.trackID, in)
		},
		Reconcile: func(prior ReviewState, r models.Review) ReviewState {
			created = r
			return ReviewState{
				Reviews: append([]models.Review{r}, slices.Clone(prior.Reviews)...),
				Rating:  prior.Rating.WithRating(r.Rating),
			}
		},
	})
	return created, err
}
