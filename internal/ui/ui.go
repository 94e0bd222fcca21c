package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/services"
	"github.com/desertthunder/hitnote/internal/session"
	"github.com/desertthunder/hitnote/internal/shared"
	"github.com/desertthunder/hitnote/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CatalogView ViewState = iota
	DetailView
)

// Options are the TUI's collaborators.
type Options struct {
	Backend services.Backend
	Session *session.Store
	Catalog tasks.CatalogOptions
	Logger  *log.Logger // nil discards
}

// catalogFeed tags snapshots with the channel they came from, so snapshots of a replaced controller are dropped.
type catalogFeed struct {
	ch   <-chan tasks.CatalogSnapshot
	snap tasks.CatalogSnapshot
}

// detail is the state of the open track.
type detail struct {
	track      models.Track
	loaded     bool
	err        error
	reviews    *tasks.ReviewController
	like       *tasks.LikeController
	reviewsCh  <-chan tasks.ReviewState
	likeCh     <-chan bool
	notices    []<-chan tasks.Notice
	state      tasks.ReviewState
	liked      bool
	reviewList list.Model
	stop       []func()
}

func (d *detail) close() {
	for _, fn := range d.stop {
		fn()
	}
	d.stop = nil
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	opts   Options
	deps   tasks.Deps
	logger *log.Logger

	catalog     *tasks.CatalogController
	catalogCh   <-chan tasks.CatalogSnapshot
	stopCatalog func()
	snap        tasks.CatalogSnapshot

	sessionCh   <-chan session.Snapshot
	stopSession func()
	account     session.Snapshot

	search    textinput.Model
	trackList list.Model
	detail    *detail

	status    string
	statusErr bool
	width     int
	height    int
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Search title or artist"
	search.CharLimit = 120

	trackList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	trackList.SetFilteringEnabled(false)
	trackList.SetShowHelp(false)
	trackList.SetShowStatusBar(false)

	m := &Model{
		ctx:       ctx,
		view:      CatalogView,
		opts:      opts,
		deps:      tasks.Deps{Tokens: opts.Session, Logger: logger},
		logger:    logger,
		search:    search,
		trackList: trackList,
		help:      help.New(),
		keys:      newKeyMap(),
	}
	m.sessionCh, m.stopSession = opts.Session.Subscribe()
	m.account = opts.Session.Snapshot()
	m.newCatalog()
	return m
}

func (m *Model) newCatalog() {
	if m.catalog != nil {
		m.stopCatalog()
		m.catalog.Close()
	}
	m.catalog = tasks.NewCatalogController(m.opts.Backend, m.opts.Catalog, m.deps)
	m.catalogCh, m.stopCatalog = m.catalog.Subscribe()
	m.snap = m.catalog.Snapshot()
}

// Init starts the first catalog fetch and listens for catalog and session changes.
func (m *Model) Init() tea.Cmd {
	m.catalog.Start(m.ctx)
	return tea.Batch(m.listenCatalog(), m.listenSession())
}

func (m *Model) listenCatalog() tea.Cmd {
	ch := m.catalogCh
	return listen(ch, func(s tasks.CatalogSnapshot) Msg { return catalogSnapshotMsg(catalogFeed{ch, s}) })
}

func (m *Model) listenSession() tea.Cmd {
	return listen(m.sessionCh, sessionChangedMsg)
}

func (m *Model) listenDetail(d *detail) tea.Cmd {
	id := d.track.ID
	cmds := []tea.Cmd{
		listen(d.reviewsCh, func(s tasks.ReviewState) Msg { return reviewsChangedMsg(id, s) }),
		listen(d.likeCh, func(liked bool) Msg { return likeChangedMsg(id, liked) }),
	}
	for _, ch := range d.notices {
		cmds = append(cmds, listenNotices(id, ch))
	}
	return tea.Batch(cmds...)
}

func listenNotices(trackID int, ch <-chan tasks.Notice) tea.Cmd {
	return listen(ch, func(n tasks.Notice) Msg { return noticeMsg(trackID, ch, n) })
}

// Close releases every subscription and cancels in-flight fetches.
func (m *Model) Close() {
	m.closeDetail()
	if m.catalog != nil {
		m.stopCatalog()
		m.catalog.Close()
	}
	m.stopSession()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-4, max(msg.Height-10, 4))
		if m.detail != nil {
			m.detail.reviewList.SetSize(msg.Width-4, max(msg.Height-14, 4))
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CatalogView:
			return m.handleCatalogKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCatalogSnapshot:
		feed := msg.data.(catalogFeed)
		if feed.ch != m.catalogCh {
			return m, nil
		}
		m.snap = feed.snap
		m.trackList.SetItems(trackItems(feed.snap))
		m.trackList.Title = fmt.Sprintf("Catalog · page %d/%d", feed.snap.Page, feed.snap.MaxPage())
		return m, m.listenCatalog()

	case MsgSessionChanged:
		snap := msg.data.(session.Snapshot)
		wasAuthenticated := m.account.Authenticated()
		m.account = snap
		if wasAuthenticated && !snap.Authenticated() {
			return m, tea.Batch(m.reset(), m.listenSession())
		}
		return m, m.listenSession()

	case MsgDetailLoaded:
		loaded := msg.data.(detailMsg[detailLoaded])
		if m.detail == nil || m.detail.track.ID != loaded.trackID {
			return m, nil
		}
		m.detail.loaded = true
		m.detail.err = loaded.value.err
		if loaded.value.err == nil {
			m.detail.track = loaded.value.track
			m.setReviews(loaded.value.reviews)
		}
		return m, nil

	case MsgReviewsChanged:
		changed := msg.data.(detailMsg[tasks.ReviewState])
		if m.detail == nil || m.detail.track.ID != changed.trackID {
			return m, nil
		}
		m.setReviews(changed.value)
		return m, listen(m.detail.reviewsCh, func(s tasks.ReviewState) Msg { return reviewsChangedMsg(changed.trackID, s) })

	case MsgLikeChanged:
		changed := msg.data.(detailMsg[bool])
		if m.detail == nil || m.detail.track.ID != changed.trackID {
			return m, nil
		}
		m.detail.liked = changed.value
		return m, listen(m.detail.likeCh, func(liked bool) Msg { return likeChangedMsg(changed.trackID, liked) })

	case MsgNotice:
		n := msg.data.(detailMsg[noticeFrom])
		if m.detail == nil || m.detail.track.ID != n.trackID {
			return m, nil
		}
		m.status, m.statusErr = n.value.notice.Message+" (change undone)", true
		return m, listenNotices(n.trackID, n.value.ch)

	case MsgActionDone:
		done := msg.data.(actionDone)
		m.setStatus(done.status, done.err)
		return m, nil
	}
	return m, nil
}

func (m *Model) setReviews(state tasks.ReviewState) {
	m.detail.state = state
	m.detail.reviewList.SetItems(reviewItems(state.Reviews))
}

func (m *Model) setStatus(status string, err error) {
	switch {
	case err == nil:
		m.status, m.statusErr = status, false
	case errors.Is(err, shared.ErrBusy):
		m.status, m.statusErr = "still working on the last change", false
	default:
		m.status, m.statusErr = shared.UserMessage(err), true
	}
}

// reset returns the TUI to a fresh catalog.
func (m *Model) reset() tea.Cmd {
	m.logger.Info("session ended, resetting views")
	m.closeDetail()
	m.view = CatalogView
	m.search.SetValue("")
	m.search.Blur()
	m.status, m.statusErr = "signed out", false
	m.newCatalog()
	m.catalog.Start(m.ctx)
	return m.listenCatalog()
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case CatalogView:
		return m.renderCatalog()
	case DetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.Close()
	return m, tea.Quit
}

func (m *Model) handleCatalogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.search.Focused() {
		return m.handleSearchKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.search):
		m.status = ""
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.prev):
		m.catalog.PrevPage()
		return m, nil
	case key.Matches(msg, m.keys.next):
		m.catalog.NextPage()
		return m, nil
	case key.Matches(msg, m.keys.order):
		m.catalog.SetOrder(nextOrder(m.snap.Order))
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.catalog.Refresh()
		return m, nil
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.enter):
		if it, ok := m.trackList.SelectedItem().(trackItem); ok {
			return m, m.openDetail(it.track)
		}
		return m, nil
	case key.Matches(msg, m.keys.up), key.Matches(msg, m.keys.down):
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m.quit()
	case tea.KeyEnter:
		m.search.Blur()
		m.catalog.Search(m.search.Value())
		return m, nil
	case tea.KeyEsc:
		m.search.Blur()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if text := m.search.Value(); text != before {
		m.catalog.SetQueryText(text)
	}
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m.quit()
	case key.Matches(msg, m.keys.back):
		m.closeDetail()
		m.view = CatalogView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.like):
		return m, m.toggleLike()
	case key.Matches(msg, m.keys.rate):
		return m, m.rate(int(msg.Runes[0] - '0'))
	case key.Matches(msg, m.keys.refresh):
		return m, m.loadDetail(m.detail)
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.up), key.Matches(msg, m.keys.down):
		var cmd tea.Cmd
		m.detail.reviewList, cmd = m.detail.reviewList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func nextOrder(o models.Order) models.Order {
	i := slices.Index(models.Orders, o)
	return models.Orders[(i+1)%len(models.Orders)]
}

func (m *Model) openDetail(t models.Track) tea.Cmd {
	m.closeDetail()

	reviewList := list.New(nil, list.NewDefaultDelegate(), max(m.width-4, 0), max(m.height-14, 4))
	reviewList.Title = "Reviews"
	reviewList.SetFilteringEnabled(false)
	reviewList.SetShowHelp(false)
	reviewList.SetShowStatusBar(false)

	d := &detail{
		track:      t,
		reviews:    tasks.NewReviewController(m.opts.Backend, t.ID, m.deps),
		like:       tasks.NewLikeController(m.opts.Backend, t.ID, m.deps),
		reviewList: reviewList,
	}
	var stopReviews, stopLike, stopReviewNotices, stopLikeNotices func()
	var reviewNotices, likeNotices <-chan tasks.Notice
	d.reviewsCh, stopReviews = d.reviews.Subscribe()
	d.likeCh, stopLike = d.like.Subscribe()
	reviewNotices, stopReviewNotices = d.reviews.Notices()
	likeNotices, stopLikeNotices = d.like.Notices()
	d.notices = []<-chan tasks.Notice{reviewNotices, likeNotices}
	d.stop = []func(){stopReviews, stopLike, stopReviewNotices, stopLikeNotices}

	m.detail = d
	m.view = DetailView
	m.status = ""
	return tea.Batch(m.listenDetail(d), m.loadDetail(d))
}

func (m *Model) closeDetail() {
	if m.detail != nil {
		m.detail.close()
		m.detail = nil
	}
}

func (m *Model) loadDetail(d *detail) tea.Cmd {
	if d == nil {
		return nil
	}
	id := d.track.ID
	authenticated := m.account.Authenticated()
	return func() tea.Msg {
		track, err := m.opts.Backend.GetTrack(m.ctx, id)
		if err != nil {
			return detailLoadedMsg(id, d.track, tasks.ReviewState{}, err)
		}
		state, err := d.reviews.Load(m.ctx)
		if authenticated {
			d.like.Refresh(m.ctx)
		}
		return detailLoadedMsg(id, track, state, err)
	}
}

func (m *Model) toggleLike() tea.Cmd {
	d := m.detail
	return func() tea.Msg {
		liked, err := d.like.Toggle(m.ctx)
		if err != nil {
			return failedAction(err)
		}
		if liked {
			return actionDoneMsg("liked "+d.track.Title, nil)
		}
		return actionDoneMsg("unliked "+d.track.Title, nil)
	}
}

func (m *Model) rate(rating int) tea.Cmd {
	d := m.detail
	return func() tea.Msg {
		_, err := d.reviews.Submit(m.ctx, models.ReviewInput{Rating: rating})
		if err != nil {
			return failedAction(err)
		}
		return actionDoneMsg(fmt.Sprintf("rated %s %s", d.track.Title, stars(rating)), nil)
	}
}

// failedAction reports errors raised before a request was sent. Failed commits arrive as notices instead.
func failedAction(err error) tea.Msg {
	for _, early := range []error{shared.ErrLoginRequired, shared.ErrValidation, shared.ErrBusy} {
		if errors.Is(err, early) {
			return actionDoneMsg("", err)
		}
	}
	return nil
}

func (m *Model) logout() tea.Cmd {
	if !m.account.Authenticated() {
		m.setStatus("not signed in", nil)
		return nil
	}
	s := m.opts.Session
	return func() tea.Msg {
		if err := s.Logout(); err != nil {
			return actionDoneMsg("", err)
		}
		return nil
	}
}

func (m *Model) renderHeader() string {
	who := styles.muted.Render("anonymous · sign in with 'hitnote auth login'")
	if m.account.Authenticated() && m.account.Profile != nil {
		who = styles.ok.Render("@" + m.account.Profile.Username)
	}
	return fmt.Sprintf("%s  %s", styles.title.Render("HitNote"), who)
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return "\n" + styles.err.Render(m.status)
	}
	return "\n" + styles.ok.Render(m.status)
}

func (m *Model) renderCatalog() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	switch m.snap.Result.View() {
	case tasks.ViewLoading:
		b.WriteString(styles.muted.Render("Loading tracks..."))
	case tasks.ViewError:
		b.WriteString(styles.err.Render("Error: " + m.snap.Result.Message))
		b.WriteString(styles.help.Render("\nPress r to retry"))
	case tasks.ViewEmpty:
		b.WriteString(styles.warn.Render("No tracks found"))
	case tasks.ViewReady:
		b.WriteString(m.trackList.View())
	}

	footer := fmt.Sprintf("page %d/%d · %d tracks · %s", m.snap.Page, m.snap.MaxPage(), m.snap.Result.Data.Total, m.snap.Order)
	if !m.snap.Idle {
		footer += " · updating"
	}
	b.WriteString("\n" + styles.muted.Render(footer))
	b.WriteString(m.renderStatus())

	helpKeys := []key.Binding{m.keys.search, m.keys.prev, m.keys.next, m.keys.enter, m.keys.order, m.keys.quit}
	if m.search.Focused() {
		helpKeys = []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search now")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "done")),
		}
	}
	b.WriteString("\n\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

const signInPrompt = "Sign in with 'hitnote auth login' to like or review this track"

func (m *Model) renderDetail() string {
	d := m.detail
	if d == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(styles.title.Render(fmt.Sprintf("%s · %s", d.track.Title, d.track.Artist)))
	b.WriteString("\n")

	switch {
	case !d.loaded:
		b.WriteString(styles.muted.Render("Loading..."))
	case d.err != nil:
		b.WriteString(styles.err.Render("Error: " + shared.UserMessage(d.err)))
	default:
		if d.track.Album != "" {
			fmt.Fprintf(&b, "Album:  %s\n", d.track.Album)
		}
		fmt.Fprintf(&b, "Rating: ★ %s (%d reviews)\n", d.state.Rating.MeanString(), d.state.Rating.Count)
		if m.account.Authenticated() {
			heart := styles.muted.Render("♡ not liked")
			if d.liked {
				heart = styles.like.Render("♥ liked")
			}
			b.WriteString(heart + "\n")
		} else {
			b.WriteString(styles.muted.Render(signInPrompt) + "\n")
		}
		b.WriteString("\n")
		if len(d.state.Reviews) == 0 {
			b.WriteString(styles.muted.Render("No reviews yet"))
		} else {
			b.WriteString(d.reviewList.View())
		}
	}

	b.WriteString(m.renderStatus())

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	if m.account.Authenticated() {
		helpKeys = append([]key.Binding{m.keys.like, m.keys.rate}, helpKeys...)
	}
	b.WriteString("\n\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}
