package testing

import (
	"cmp"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/desertthunder/hitnote/internal/models"
)

// Backend is an in-memory HitNote server for tests.
//
// Every request is recorded. Routes can be made to fail with [Backend.Fail] or held with [Backend.OnRequest],
// keyed by chi route pattern such as "POST /musicas/{id}/like". Failures may also be keyed by a concrete path
// such as "GET /musicas/105/rating".
type Backend struct {
	mu sync.Mutex

	tracks   []models.Track
	reviews  map[int][]storedReview // by track, newest first
	users    map[int]*fakeUser
	tokens   map[string]int
	likes    map[int]map[int]bool // user -> track
	follows  map[int]map[int]bool // follower -> followed
	lists    map[int]*models.PlaylistDetail
	external []models.ExternalTrack

	failures map[string]failure
	hooks    map[string]func(*http.Request)
	requests []RecordedRequest

	nextID int
	server *httptest.Server
}

// RecordedRequest is one request the backend received.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
}

type storedReview struct {
	review    models.Review
	createdAt time.Time
}

type fakeUser struct {
	profile   models.UserProfile
	password  string
	createdAt time.Time
}

type failure struct {
	status int
	detail string
}

// NewBackend starts a backend that is closed when tb finishes.
func NewBackend(tb testing.TB) *Backend {
	tb.Helper()

	b := &Backend{
		reviews:  map[int][]storedReview{},
		users:    map[int]*fakeUser{},
		tokens:   map[string]int{},
		likes:    map[int]map[int]bool{},
		follows:  map[int]map[int]bool{},
		lists:    map[int]*models.PlaylistDetail{},
		failures: map[string]failure{},
		hooks:    map[string]func(*http.Request){},
		nextID:   100,
	}

	b.server = httptest.NewServer(b.router())
	tb.Cleanup(b.server.Close)
	return b
}

// URL returns the backend's base URL.
func (b *Backend) URL() string { return b.server.URL }

// Client returns an HTTP client wired to the backend.
func (b *Backend) Client() *http.Client { return b.server.Client() }

func (b *Backend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.record)

	r.Get("/musicas", b.route("GET /musicas", b.listTracks))
	r.Post("/musicas", b.route("POST /musicas", b.createTrack))
	r.Get("/musicas/{id}", b.route("GET /musicas/{id}", b.getTrack))
	r.Get("/musicas/{id}/reviews", b.route("GET /musicas/{id}/reviews", b.listReviews))
	r.Post("/musicas/{id}/reviews", b.route("POST /musicas/{id}/reviews", b.createReview))
	r.Get("/musicas/{id}/rating", b.route("GET /musicas/{id}/rating", b.getRating))
	r.Get("/musicas/{id}/like", b.route("GET /musicas/{id}/like", b.likeStatus))
	r.Post("/musicas/{id}/like", b.route("POST /musicas/{id}/like", b.toggleLike))
	r.Get("/api/v1/search-genius", b.route("GET /api/v1/search-genius", b.searchExternal))

	r.Post("/login", b.route("POST /login", b.login))
	r.Post("/usuarios", b.route("POST /usuarios", b.register))
	r.Get("/usuarios/me", b.route("GET /usuarios/me", b.myProfile))
	r.Put("/usuarios/me", b.route("PUT /usuarios/me", b.updateMyProfile))
	r.Get("/usuarios/me/curtidas", b.route("GET /usuarios/me/curtidas", b.myLikes))
	r.Get("/usuarios/busca", b.route("GET /usuarios/busca", b.searchUsers))
	r.Get("/usuarios/{id}", b.route("GET /usuarios/{id}", b.publicProfile))
	r.Post("/usuarios/{id}/seguir", b.route("POST /usuarios/{id}/seguir", b.toggleFollow))
	r.Get("/usuarios/{id}/curtidas", b.route("GET /usuarios/{id}/curtidas", b.userLikes))
	r.Get("/usuarios/{id}/listas", b.route("GET /usuarios/{id}/listas", b.userLists))
	r.Get("/usuarios/{id}/feed", b.route("GET /usuarios/{id}/feed", b.userFeed))

	r.Post("/listas", b.route("POST /listas", b.createList))
	r.Get("/listas/{id}", b.route("GET /listas/{id}", b.getList))
	r.Put("/listas/{id}", b.route("PUT /listas/{id}", b.updateList))
	r.Delete("/listas/{id}", b.route("DELETE /listas/{id}", b.deleteList))
	r.Post("/listas/{id}/musicas/{trackId}", b.route("POST /listas/{id}/musicas/{trackId}", b.addListTrack))
	r.Delete("/listas/{id}/musicas/{trackId}", b.route("DELETE /listas/{id}/musicas/{trackId}", b.removeListTrack))
	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		})
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// route applies hooks and injected failures for key, then serves h under the lock.
func (b *Backend) route(key string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		hook := b.hooks[key]
		f, failing := b.failures[key]
		if !failing {
			f, failing = b.failures[r.Method+" "+r.URL.Path]
		}
		b.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		if failing {
			if f.detail == "" {
				w.WriteHeader(f.status)
				return
			}
			writeDetail(w, f.status, f.detail)
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		h(w, r)
	}
}

// Fail makes every request to the route return status with detail. An empty detail sends no body.
func (b *Backend) Fail(key string, status int, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[key] = failure{status: status, detail: detail}
}

// Recover removes an injected failure.
func (b *Backend) Recover(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, key)
}

// OnRequest runs fn before the route is served, outside the backend lock. fn may block.
func (b *Backend) OnRequest(key string, fn func(*http.Request)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks[key] = fn
}

// Requests returns a copy of every request received so far.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.requests)
}

// Count returns how many requests matched method with a path starting with prefix. An empty method matches any.
func (b *Backend) Count(method, prefix string) int {
	n := 0
	for _, r := range b.Requests() {
		if (method == "" || r.Method == method) && strings.HasPrefix(r.Path, prefix) {
			n++
		}
	}
	return n
}

// Reset forgets recorded requests.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = nil
}

func (b *Backend) id() int {
	b.nextID++
	return b.nextID
}

// AddTrack seeds a catalog entry and returns it with its id.
func (b *Backend) AddTrack(in models.TrackInput) models.Track {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addTrack(in)
}

func (b *Backend) addTrack(in models.TrackInput) models.Track {
	t := models.Track{
		ID:          b.id(),
		Title:       in.Title,
		Artist:      in.Artist,
		Album:       in.Album,
		ReleaseDate: in.ReleaseDate,
		CoverURL:    in.CoverURL,
	}
	b.tracks = append(b.tracks, t)
	return t
}

// AddUser seeds an account and returns its profile and a bearer token for it.
func (b *Backend) AddUser(name, username, email, password string) (models.UserProfile, string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.addUser(models.Registration{Name: name, Username: username, Email: email, Password: password})
	return u.profile, b.issueToken(u.profile.ID)
}

func (b *Backend) addUser(reg models.Registration) *fakeUser {
	now := time.Now().UTC()
	u := &fakeUser{
		profile: models.UserProfile{
			ID:           b.id(),
			Name:         reg.Name,
			Username:     reg.Username,
			Email:        reg.Email,
			RegisteredAt: now.Format(time.RFC3339),
		},
		password:  reg.Password,
		createdAt: now,
	}
	b.users[u.profile.ID] = u
	return u
}

func (b *Backend) issueToken(userID int) string {
	tok := fmt.Sprintf("token-%d-%d", userID, len(b.tokens)+1)
	b.tokens[tok] = userID
	return tok
}

// AddReview seeds a review by userID.
func (b *Backend) AddReview(trackID, userID, rating int, comment string) models.Review {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addReview(trackID, userID, models.ReviewInput{Rating: rating, Comment: comment})
}

func (b *Backend) addReview(trackID, userID int, in models.ReviewInput) models.Review {
	var title, author string
	if t, ok := b.track(trackID); ok {
		title = t.Title
	}
	if u, ok := b.users[userID]; ok {
		author = u.profile.Name
	}

	r := models.Review{
		ID:        b.id(),
		TrackName: title,
		Rating:    in.Rating,
		Comment:   in.Comment,
		Author:    author,
		AuthorID:  userID,
	}
	b.reviews[trackID] = append([]storedReview{{review: r, createdAt: time.Now().UTC()}}, b.reviews[trackID]...)
	return r
}

// AddList seeds a list owned by ownerID with the given member tracks.
func (b *Backend) AddList(ownerID int, in models.PlaylistInput, trackIDs ...int) models.PlaylistDetail {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := b.addList(ownerID, in)
	for _, id := range trackIDs {
		if t, ok := b.track(id); ok {
			d.AddItem(t, time.Now())
		}
	}
	return *d
}

func (b *Backend) addList(ownerID int, in models.PlaylistInput) *models.PlaylistDetail {
	d := &models.PlaylistDetail{
		Playlist: models.Playlist{
			ID:          b.id(),
			OwnerID:     ownerID,
			Name:        in.Name,
			Description: in.Description,
			Public:      in.Public,
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		},
		Items: []models.PlaylistItem{},
	}
	b.lists[d.ID] = d
	return d
}

// SetExternal sets the third-party search results.
func (b *Backend) SetExternal(hits ...models.ExternalTrack) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.external = hits
}

// Follows reports whether follower follows followed.
func (b *Backend) Follows(follower, followed int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.follows[follower][followed]
}

// Likes reports whether userID likes trackID.
func (b *Backend) Likes(userID, trackID int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.likes[userID][trackID]
}

// List returns the stored copy of a list.
func (b *Backend) List(id int) (models.PlaylistDetail, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.lists[id]
	if !ok {
		return models.PlaylistDetail{}, false
	}
	out := *d
	out.Items = slices.Clone(d.Items)
	return out, true
}

func (b *Backend) track(id int) (models.Track, bool) {
	i := slices.IndexFunc(b.tracks, func(t models.Track) bool { return t.ID == id })
	if i < 0 {
		return models.Track{}, false
	}
	return b.tracks[i], true
}

// viewer resolves the bearer token. Unknown tokens resolve to no one.
func (b *Backend) viewer(r *http.Request) (int, bool) {
	tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return 0, false
	}
	id, ok := b.tokens[tok]
	return id, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func pathInt(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	return n, err == nil
}

func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (b *Backend) listTracks(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	page := queryInt(r, "page", 1)
	size := queryInt(r, "page_size", 8)

	matches := []models.Track{}
	for _, t := range b.tracks {
		if q == "" || strings.Contains(strings.ToLower(t.Title), q) || strings.Contains(strings.ToLower(t.Artist), q) {
			matches = append(matches, t)
		}
	}

	switch models.Order(r.URL.Query().Get("order")) {
	case models.OrderIDDesc:
		slices.SortStableFunc(matches, func(a, c models.Track) int { return cmp.Compare(c.ID, a.ID) })
	case models.OrderNameAsc:
		slices.SortStableFunc(matches, func(a, c models.Track) int { return cmp.Compare(a.Title, c.Title) })
	case models.OrderNameDesc:
		slices.SortStableFunc(matches, func(a, c models.Track) int { return cmp.Compare(c.Title, a.Title) })
	default:
		slices.SortStableFunc(matches, func(a, c models.Track) int { return cmp.Compare(a.ID, c.ID) })
	}

	if uid, ok := b.viewer(r); ok {
		for i := range matches {
			for _, sr := range b.reviews[matches[i].ID] {
				if sr.review.AuthorID == uid {
					rating := sr.review.Rating
					matches[i].UserRating = &rating
					break
				}
			}
		}
	}

	start := min((page-1)*size, len(matches))
	end := min(start+size, len(matches))
	writeJSON(w, http.StatusOK, models.TrackPage{Items: matches[start:end], Total: len(matches), Page: page, PageSize: size})
}

func (b *Backend) createTrack(w http.ResponseWriter, r *http.Request) {
	var in models.TrackInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Validate() != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid track")
		return
	}
	writeJSON(w, http.StatusCreated, b.addTrack(in))
}

func (b *Backend) getTrack(w http.ResponseWriter, r *http.Request) {
	id, _ := pathInt(r, "id")
	t, ok := b.track(id)
	if !ok {
		writeDetail(w, http.StatusNotFound, "track not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (b *Backend) listReviews(w http.ResponseWriter, r *http.Request) {
	id, _ := pathInt(r, "id")
	if _, ok := b.track(id); !ok {
		writeDetail(w, http.StatusNotFound, "track not found")
		return
	}

	out := make([]models.Review, 0, len(b.reviews[id]))
	for _, sr := range b.reviews[id] {
		out = append(out, sr.review)
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createReview(w http.ResponseWriter, r *http.Request) {
	uid, ok := b.viewer(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, _ := pathInt(r, "id")
	if _, ok := b.track(id); !ok {
		writeDetail(w, http.StatusNotFound, "track not found")
		return
	}

	var in models.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Validate() != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "rating must be between 1 and 5")
		return
	}
	writeJSON(w, http.StatusCreated, b.addReview(id, uid, in))
}

func (b *Backend) getRating(w http.ResponseWriter, r *http.Request) {
	id, _ := pathInt(r, "id")
	agg := models.Unrated(id)
	if n := len(b.reviews[id]); n > 0 {
		sum := 0
		for _, sr := range b.reviews[id] {
			sum += sr.review.Rating
		}
		mean := float64(sum) / float64(n)
		agg.Mean, agg.Count = &mean, n
	}
	writeJSON(w, http.StatusOK, agg)
}

func (b *Backend) likeStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := b.viewer(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	id, _ := pathInt(r, "id")
	writeJSON(w, http.StatusOK, map[string]bool{"is_liked": b.likes[uid][id]})
}

func (b *Backend) toggleLike(w http.ResponseWriter, r *http.Request) {
	uid, ok := b.viewer(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	id, _ := pathInt(r, "id")
	if _, ok := b.track(id); !ok {
		writeDetail(w, http.StatusNotFound, "track not found")
		return
	}

	if b.likes[uid] == nil {
		b.likes[uid] = map[int]bool{}
	}
	b.likes[uid][id] = !b.likes[uid][id]
	writeJSON(w, http.StatusOK, map[string]bool{"is_liked": b.likes[uid][id]})
}

func (b *Backend) searchExternal(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("query"))
	out := []models.ExternalTrack{}
	for _, hit := range b.external {
		if strings.Contains(strings.ToLower(hit.Title+" "+hit.Artist), q) {
			out = append(out, hit)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	for _, u := range b.users {
		if strings.EqualFold(u.profile.Email, creds.Email) && u.password == creds.Password {
			writeJSON(w, http.StatusOK, models.AuthResponse{
				AccessToken: b.issueToken(u.profile.ID),
				TokenType:   "bearer",
				User:        summary(u.profile),
			})
			return
		}
	}
	writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil || reg.Validate() != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid registration")
		return
	}
	for _, u := range b.users {
		if strings.EqualFold(u.profile.Email, reg.Email) {
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
	}
	writeJSON(w, http.StatusCreated, summary(b.addUser(reg).profile))
}

func summary(p models.UserProfile) models.ProfileSummary {
	return models.ProfileSummary{ID: p.ID, Name: p.Name, Username: p.Username, Email: p.Email}
}

func (b *Backend) stats(uid int) models.Stats {
	var st models.Stats
	sum := 0
	for _, rs := range b.reviews {
		for _, sr := range rs {
			if sr.review.AuthorID == uid {
				st.Reviews++
				sum += sr.review.Rating
			}
		}
	}
	if st.Reviews > 0 {
		st.MeanRating = float64(sum) / float64(st.Reviews)
	}
	for follower, edges := range b.follows {
		if edges[uid] {
			st.Followers++
		}
		if follower == uid {
			for _, on := range edges {
				if on {
					st.Following++
				}
			}
		}
	}
	for _, on := range b.likes[uid] {
		if on {
			st.Likes++
		}
	}
	return st
}

func (b *Backend) fullProfile(uid int) models.UserProfile {
	p := b.users[uid].profile
	p.Stats = b.stats(uid)
	return p
}

func (b *Backend) myProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := b.viewer(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, b.fullProfile(uid))
}

func (b *Backend) updateMyProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := b.viewer(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var up models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&up); err != nil || up.Validate() != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid profile")
		return
	}

	p := &b.users[uid].profile
	p.Name, p.Bio, p.AvatarURL, p.CoverURL, p.Location = up.Name, up.Bio, up.AvatarURL, up.CoverURL, up.Location
	writeJSON(w, http.StatusOK, b.fullProfile(uid))
}

func (b *Backend) likedTracks(uid int) []models.Track {
	out := []models.Track{}
	for _, t := range b.tracks {
		if b.likes[uid][t.ID] {
			out = append(out, t)
		}
	}
	return out
}

func (b *Backend) myLikes(w http.ResponseWriter, r *http.Request) {
	uid, ok := b.viewer(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, b.likedTracks(uid))
}

func (b *Backend) publicView(uid, viewer int, authenticated bool) models.PublicProfile {
	p := b.fullProfile(uid)
	pub := models.PublicProfile{
		ID:        p.ID,
		Name:      p.Name,
		Username:  p.Username,
		AvatarURL: p.AvatarURL,
		Bio:       p.Bio,
		CoverURL:  p.CoverURL,
		Location:  p.Location,
		Stats:     p.Stats,
	}
	if authenticated {
		following := b.follows[viewer][uid]
		pub.IsFollowing = &following
	}
	return pub
}

func (b *Backend) searchUsers(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	out := []models.PublicProfile{}
	for _, u := range b.users {
		if strings.Contains(strings.ToLower(u.profile.Name), q) || strings.Contains(strings.ToLower(u.profile.Username), q) {
			out = append(out, b.publicView(u.profile.ID, 0, false))
		}
	}
	slices.SortFunc(out, func(a, c models.PublicProfile) int { return cmp.Compare(a.ID, c.ID) })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) publicProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := pathInt(r, "id")
	if _, ok := b.users[id]; !ok {
		writeDetail(w, http.StatusNotFound, "user not found")
		return
	}
	viewer, ok := b.viewer(r)
	writeJSON(w, http.StatusOK, b.publicView(id, viewer, ok))
}

func (b *Backend) toggleFollow(w http.ResponseWriter, r *http.Request) {
	uid, ok := b.viewer(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	id, _ := pathInt(r, "id")
	if _, ok := b.users[id]; !ok {
		writeDetail(w, http.StatusNotFound, "user not found")
		return
	}
	if id == uid {
		writeDetail(w, http.StatusBadRequest, "cannot follow yourself")
		return
	}

	if b.follows[uid] == nil {
		b.follows[uid] = map[int]bool{}
	}
	b.follows[uid][id] = !b.follows[uid][id]
	writeJSON(w, http.StatusOK, map[string]bool{"is_following": b.follows[uid][id]})
}

func (b *Backend) userLikes(w http.ResponseWriter, r *http.Request) {
	id, _ := pathInt(r, "id")
	writeJSON(w, http.StatusOK, b.likedTracks(id))
}

func (b *Backend) userLists(w http.ResponseWriter, r *http.Request) {
	id, _ := pathInt(r, "id")
	viewer, _ := b.viewer(r)

	out := []models.Playlist{}
	for _, d := range b.lists {
		if d.OwnerID == id && (d.Public || viewer == id) {
			out = append(out, d.Playlist)
		}
	}
	slices.SortFunc(out, func(a, c models.Playlist) int { return cmp.Compare(c.ID, a.ID) })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) userFeed(w http.ResponseWriter, r *http.Request) {
	id, _ := pathInt(r, "id")

	type entry struct {
		item models.ActivityItem
		at   time.Time
	}
	var entries []entry
	for trackID, rs := range b.reviews {
		for _, sr := range rs {
			if sr.review.AuthorID != id {
				continue
			}
			rating, comment, at := sr.review.Rating, sr.review.Comment, sr.createdAt.Format(time.RFC3339)
			entries = append(entries, entry{at: sr.createdAt, item: models.ActivityItem{
				ID:        fmt.Sprintf("review-%d", sr.review.ID),
				Kind:      models.ActivityReview,
				Action:    "reviewed " + sr.review.TrackName,
				TargetID:  trackID,
				Rating:    &rating,
				Comment:   &comment,
				CreatedAt: &at,
			}})
		}
	}
	for _, d := range b.lists {
		if d.OwnerID != id || !d.Public {
			continue
		}
		created, _ := time.Parse(time.RFC3339, d.CreatedAt)
		at := d.CreatedAt
		entries = append(entries, entry{at: created, item: models.ActivityItem{
			ID:        fmt.Sprintf("list-%d", d.ID),
			Kind:      models.ActivityListCreate,
			Action:    "created list " + d.Name,
			TargetID:  d.ID,
			CreatedAt: &at,
		}})
	}
	slices.SortStableFunc(entries, func(a, c entry) int { return c.at.Compare(a.at) })

	out := make([]models.ActivityItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.item)
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createList(w http.ResponseWriter, r *http.Request) {
	uid, ok := b.viewer(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var in models.PlaylistInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Validate() != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "list name is required")
		return
	}
	writeJSON(w, http.StatusCreated, b.addList(uid, in).Playlist)
}

func (b *Backend) getList(w http.ResponseWriter, r *http.Request) {
	id, _ := pathInt(r, "id")
	d, ok := b.lists[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "list not found")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ownedList resolves the list in the path and checks the viewer owns it, writing the failure response otherwise.
func (b *Backend) ownedList(w http.ResponseWriter, r *http.Request) (*models.PlaylistDetail, bool) {
	uid, ok := b.viewer(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "not authenticated")
		return nil, false
	}
	id, _ := pathInt(r, "id")
	d, ok := b.lists[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "list not found")
		return nil, false
	}
	if d.OwnerID != uid {
		writeDetail(w, http.StatusForbidden, "You do not have permission to modify this list")
		return nil, false
	}
	return d, true
}

func (b *Backend) updateList(w http.ResponseWriter, r *http.Request) {
	d, ok := b.ownedList(w, r)
	if !ok {
		return
	}

	var in models.PlaylistInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Validate() != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "list name is required")
		return
	}
	d.Name, d.Description, d.Public = in.Name, in.Description, in.Public
	writeJSON(w, http.StatusOK, d.Playlist)
}

func (b *Backend) deleteList(w http.ResponseWriter, r *http.Request) {
	d, ok := b.ownedList(w, r)
	if !ok {
		return
	}
	delete(b.lists, d.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) addListTrack(w http.ResponseWriter, r *http.Request) {
	d, ok := b.ownedList(w, r)
	if !ok {
		return
	}
	trackID, _ := pathInt(r, "trackId")
	t, ok := b.track(trackID)
	if !ok {
		writeDetail(w, http.StatusNotFound, "track not found")
		return
	}
	if !d.AddItem(t, time.Now()) {
		writeDetail(w, http.StatusBadRequest, "Track already in list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "added"})
}

func (b *Backend) removeListTrack(w http.ResponseWriter, r *http.Request) {
	d, ok := b.ownedList(w, r)
	if !ok {
		return
	}
	trackID, _ := pathInt(r, "trackId")
	if !d.RemoveItem(trackID) {
		writeDetail(w, http.StatusNotFound, "track not in list")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
