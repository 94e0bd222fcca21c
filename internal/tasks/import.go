package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/services"
	"github.com/desertthunder/hitnote/internal/shared"
)

// ImportController searches the third-party catalog and copies hits into the local one.
type ImportController struct {
	backend services.Catalog
	results *Loader[string, []models.ExternalTrack]
	deps    Deps
}

func NewImportController(backend services.Catalog, deps Deps) *ImportController {
	return &ImportController{
		backend: backend,
		results: NewExternalSearchLoader(backend, deps),
		deps:    deps,
	}
}

// Search looks up query and waits for the result. A blank query is rejected before any request.
func (c *ImportController) Search(ctx context.Context, query string) ([]models.ExternalTrack, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", shared.ErrValidation)
	}

	c.results.Load(ctx, query)
	st, err := c.results.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if st.Status == Failure {
		return nil, st.Err
	}
	return st.Data, nil
}

// Results exposes the search loader for views.
func (c *ImportController) Results() *Loader[string, []models.ExternalTrack] { return c.results }

// Import creates a catalog track from hit.
func (c *ImportController) Import(ctx context.Context, hit models.ExternalTrack) (models.Track, error) {
	return c.backend.CreateTrack(ctx, hit.ToInput())
}

func (c *ImportController) Close() { c.results.Close() }
