package tasks

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/services"
	"github.com/desertthunder/hitnote/internal/shared"
)

const (
	DefaultPageSize          = 8
	DefaultRatingConcurrency = 8
)

// CatalogOptions tunes a [CatalogController].
type CatalogOptions struct {
	Query             string // initial search text
	Page              int    // initial page
	PageSize          int
	Order             models.Order
	Debounce          time.Duration
	RatingConcurrency int     // simultaneous rating requests
	RatingRate        float64 // rating requests per second, 0 for unlimited
}

// CatalogOptionsFromConfig converts the [catalog] config section.
func CatalogOptionsFromConfig(c shared.CatalogConfig) CatalogOptions {
	return CatalogOptions{
		PageSize:          c.PageSize,
		Debounce:          c.Debounce(),
		RatingConcurrency: c.RatingConcurrency,
		RatingRate:        c.RatingRate,
	}
}

func (o CatalogOptions) withDefaults() CatalogOptions {
	if o.Page <= 0 {
		o.Page = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Order == "" {
		o.Order = models.OrderIDAsc
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.RatingConcurrency <= 0 {
		o.RatingConcurrency = DefaultRatingConcurrency
	}
	return o
}

// CatalogSnapshot is a copy of the controller's state.
type CatalogSnapshot struct {
	QueryText string // raw text as typed
	Query     string // debounced text used for fetching
	Page      int
	PageSize  int
	Order     models.Order
	Result    State[models.TrackPage]
	Ratings   map[int]models.RatingAggregate
	Idle      bool // no debounce armed, page fetch settled and every rating resolved
}

// MaxPage is the last valid page for the current result, at least 1.
func (s CatalogSnapshot) MaxPage() int {
	return s.Result.Data.MaxPage(s.PageSize)
}

// Rating returns the aggregate shown for trackID. Tracks whose aggregate is not loaded read as unrated.
func (s CatalogSnapshot) Rating(trackID int) models.RatingAggregate {
	if agg, ok := s.Ratings[trackID]; ok {
		return agg
	}
	return models.Unrated(trackID)
}

// CatalogController reconciles search text, page, page size and order into one catalog fetch, then loads a rating
// aggregate for every track on the page.
//
// Typed text only reaches the fetch key after the debounce window. Changing the text resets the page to 1.
// A successful fetch whose page lies past the last page is corrected once, to the last page.
type CatalogController struct {
	mu      sync.Mutex
	backend services.Catalog
	deps    Deps
	logger  *log.Logger
	opts    CatalogOptions

	ctx    context.Context
	cancel context.CancelFunc

	queryText string
	query     string
	page      int
	pageSize  int
	order     models.Order

	loader   *Loader[services.TrackQuery, models.TrackPage]
	debounce *Debouncer
	typing   bool
	awaiting bool
	settled  uint64

	limiter       *rate.Limiter
	ratings       map[int]models.RatingAggregate
	ratingGen     uint64
	ratingCancel  context.CancelFunc
	ratingPending bool

	subs broadcaster[CatalogSnapshot]
}

// NewCatalogController creates an idle controller. [CatalogController.Start] issues the first fetch.
func NewCatalogController(backend services.Catalog, opts CatalogOptions, deps Deps) *CatalogController {
	opts = opts.withDefaults()

	limit := rate.Inf
	if opts.RatingRate > 0 {
		limit = rate.Limit(opts.RatingRate)
	}

	return &CatalogController{
		backend:   backend,
		deps:      deps,
		logger:    deps.logger("catalog"),
		opts:      opts,
		ctx:       context.Background(),
		cancel:    func() {},
		queryText: opts.Query,
		query:     opts.Query,
		page:      opts.Page,
		pageSize:  opts.PageSize,
		order:     opts.Order,
		loader:    NewTrackPageLoader(backend, deps),
		debounce:  NewDebouncer(opts.Debounce),
		limiter:   rate.NewLimiter(limit, opts.RatingConcurrency),
		ratings:   map[int]models.RatingAggregate{},
	}
}

// Start binds the controller to ctx and fetches the first page.
func (c *CatalogController) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel()
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.fetchLocked(false)
}

// Close stops the debounce timer and discards in-flight work. The controller reports idle afterwards.
func (c *CatalogController) Close() {
	c.debounce.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel()
	c.loader.Close()
	c.ratingGen++
	if c.ratingCancel != nil {
		c.ratingCancel()
	}
	c.typing = false
	c.awaiting = false
	c.ratingPending = false
	c.publishLocked()
}

// SetQueryText records typed text and resets the page to 1. The fetch waits for the debounce window; a burst of
// calls inside it produces one fetch with the last text.
func (c *CatalogController) SetQueryText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queryText = text
	c.page = 1
	c.typing = true
	c.debounce.Trigger(func() { c.applyQuery(text) })
	c.publishLocked()
}

// Search applies text at once, dropping any pending debounce, and fetches page 1.
func (c *CatalogController) Search(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.debounce.Stop()
	c.queryText = text
	c.applyQueryLocked(text)
}

// applyQuery runs when the debounce fires. A timer that lost the race with a newer call is ignored.
func (c *CatalogController) applyQuery(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.typing || text != c.queryText {
		return
	}
	c.applyQueryLocked(text)
}

func (c *CatalogController) applyQueryLocked(text string) {
	c.query = text
	c.page = 1
	c.typing = false
	c.fetchLocked(false)
}

// SetPage fetches page p immediately. Pages below 1 become 1.
func (c *CatalogController) SetPage(p int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.page = max(1, p)
	c.fetchLocked(false)
}

// NextPage advances one page unless already on the last known page.
func (c *CatalogController) NextPage() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st := c.loader.State(); st.Status == Success && c.page >= st.Data.MaxPage(c.pageSize) {
		return
	}
	c.page++
	c.fetchLocked(false)
}

// PrevPage goes back one page, stopping at 1.
func (c *CatalogController) PrevPage() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.page <= 1 {
		return
	}
	c.page--
	c.fetchLocked(false)
}

// SetPageSize changes the page size and returns to page 1.
func (c *CatalogController) SetPageSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: page size must be positive", shared.ErrInvalidArgument)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pageSize = n
	c.page = 1
	c.fetchLocked(false)
	return nil
}

func (c *CatalogController) SetOrder(o models.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = o
	c.fetchLocked(false)
}

// Refresh refetches the current key.
func (c *CatalogController) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchLocked(true)
}

func (c *CatalogController) keyLocked() services.TrackQuery {
	return services.TrackQuery{Query: c.query, Page: c.page, PageSize: c.pageSize, Order: c.order}
}

// fetchLocked loads the current key unless it is already loaded. Callers hold mu.
func (c *CatalogController) fetchLocked(force bool) {
	key := c.keyLocked()
	if !force && !c.loader.NeedsLoad(key) {
		c.publishLocked()
		return
	}

	var done <-chan struct{}
	if force {
		done = c.loader.Reload(c.ctx)
	} else {
		done = c.loader.Load(c.ctx, key)
	}
	c.awaiting = true
	c.stopRatingsLocked()
	c.publishLocked()

	go func() {
		<-done
		c.afterFetch()
	}()
}

// afterFetch runs once the latest page fetch has settled: it clamps the page or starts the rating fan-out.
func (c *CatalogController) afterFetch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, _, st := c.loader.Current()
	if st.Status == Pending || st.Generation == c.settled {
		return
	}
	c.settled = st.Generation
	c.awaiting = false

	if st.Status == Failure {
		c.logger.Warn("catalog fetch failed", "query", key.Query, "page", key.Page, "err", st.Err)
		c.publishLocked()
		return
	}

	if maxPage := st.Data.MaxPage(c.pageSize); c.page > maxPage {
		c.logger.Debug("clamping page", "page", c.page, "max", maxPage)
		c.page = maxPage
		c.fetchLocked(false)
		return
	}

	c.loadRatingsLocked(st.Data.Items)
	c.publishLocked()
}

func (c *CatalogController) stopRatingsLocked() {
	c.ratingGen++
	if c.ratingCancel != nil {
		c.ratingCancel()
		c.ratingCancel = nil
	}
	c.ratings = map[int]models.RatingAggregate{}
	c.ratingPending = false
}

// loadRatingsLocked fetches every track's aggregate concurrently. A failed fetch degrades that track to unrated
// without affecting the others. Results from a superseded page are dropped.
func (c *CatalogController) loadRatingsLocked(items []models.Track) {
	c.stopRatingsLocked()
	if len(items) == 0 {
		return
	}

	gen := c.ratingGen
	ctx, cancel := context.WithCancel(c.ctx)
	c.ratingCancel = cancel
	c.ratingPending = true

	go func() {
		defer cancel()

		var g errgroup.Group
		g.SetLimit(c.opts.RatingConcurrency)
		for _, t := range items {
			g.Go(func() error {
				c.setRating(gen, c.fetchRating(ctx, t.ID))
				return nil
			})
		}
		_ = g.Wait()

		c.mu.Lock()
		defer c.mu.Unlock()
		if gen == c.ratingGen {
			c.ratingPending = false
			c.ratingCancel = nil
			c.publishLocked()
		}
	}()
}

func (c *CatalogController) fetchRating(ctx context.Context, trackID int) models.RatingAggregate {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.Unrated(trackID)
	}

	agg, err := c.backend.GetRating(ctx, trackID)
	if err != nil {
		c.logger.Debug("rating unavailable", "track", trackID, "err", err)
		return models.Unrated(trackID)
	}
	agg.TrackID = trackID
	return agg
}

func (c *CatalogController) setRating(gen uint64, agg models.RatingAggregate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.ratingGen {
		return
	}
	c.ratings[agg.TrackID] = agg
	c.publishLocked()
}

func (c *CatalogController) snapshotLocked() CatalogSnapshot {
	return CatalogSnapshot{
		QueryText: c.queryText,
		Query:     c.query,
		Page:      c.page,
		PageSize:  c.pageSize,
		Order:     c.order,
		Result:    c.loader.State(),
		Ratings:   maps.Clone(c.ratings),
		Idle:      !c.typing && !c.awaiting && !c.ratingPending,
	}
}

func (c *CatalogController) publishLocked() {
	c.subs.send(c.snapshotLocked())
}

// Snapshot returns a copy of the current state.
func (c *CatalogController) Snapshot() CatalogSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Ratings returns a copy of the loaded aggregates by track id.
func (c *CatalogController) Ratings() map[int]models.RatingAggregate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.ratings)
}

// Subscribe returns a channel of snapshots and a function that cancels the subscription.
func (c *CatalogController) Subscribe() (<-chan CatalogSnapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := c.subs.subscribe()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.subs.unsubscribe(ch)
		})
	}
}

// Wait blocks until the controller is idle or ctx ends.
func (c *CatalogController) Wait(ctx context.Context) (CatalogSnapshot, error) {
	ch, unsubscribe := c.Subscribe()
	defer unsubscribe()

	if snap := c.Snapshot(); snap.Idle {
		return snap, nil
	}
	for {
		select {
		case <-ctx.Done():
			return c.Snapshot(), ctx.Err()
		case snap := <-ch:
			if snap.Idle {
				return snap, nil
			}
		}
	}
}
