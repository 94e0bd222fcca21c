package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/hitnote/internal/models"
	"github.com/desertthunder/hitnote/internal/services"
	"github.com/desertthunder/hitnote/internal/shared"
	tu "github.com/desertthunder/hitnote/internal/testing"
)

// harness runs CLI commands against an in-process backend.
type harness struct {
	t       *testing.T
	backend *tu.Backend
	runner  *Runner
	out     *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := tu.NewBackend(t)
	out := &bytes.Buffer{}
	api := services.NewAPIService(b.URL(), b.Client())

	return &harness{
		t:       t,
		backend: b,
		out:     out,
		runner: NewRunner(RunnerOpts{
			API:        api,
			HTTPClient: b.Client(),
			Output:     out,
			Input:      strings.NewReader(""),
			Logger:     shared.DiscardLogger(),
		}),
	}
}

// input replaces what prompts read.
func (h *harness) input(s string) {
	h.runner.input = bufio.NewReader(strings.NewReader(s))
}

// run executes one command line and returns what it printed.
func (h *harness) run(args ...string) (string, error) {
	h.out.Reset()
	app := &cli.Command{
		Name:      "hitnote",
		Commands:  h.runner.register(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
	}
	err := app.Run(context.Background(), append([]string{"hitnote"}, args...))
	return h.out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "hitnote %s", strings.Join(args, " "))
	return out
}

// login seeds a user and signs in through the CLI.
func (h *harness) login(name string) models.UserProfile {
	h.t.Helper()
	lower := strings.ToLower(name)
	user, _ := h.backend.AddUser(name, lower, lower+"@example.com", "pw")
	h.mustRun("auth", "login", "--email", user.Email, "--password", "pw")
	return user
}

func (h *harness) seedTracks(n int) []models.Track {
	tracks := make([]models.Track, n)
	for i := range n {
		artist := "Abba"
		if i < 3 {
			artist = "Queen"
		}
		tracks[i] = h.backend.AddTrack(models.TrackInput{Title: fmt.Sprintf("Track %02d", i+1), Artist: artist, Album: "Hits"})
	}
	return tracks
}

func id(n int) string { return strconv.Itoa(n) }

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestAuthCommands(t *testing.T) {
	h := newHarness(t)
	user, _ := h.backend.AddUser("Ana", "ana", "ana@example.com", "pw")

	t.Run("status when anonymous", func(t *testing.T) {
		assert.Equal(t, "Not signed in\n", h.mustRun("auth", "status"))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := h.run("auth", "login", "--email", user.Email, "--password", "nope")
		assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
		assert.False(t, h.runner.session.Authenticated())
	})

	t.Run("login stores the session", func(t *testing.T) {
		out := h.mustRun("auth", "login", "--email", user.Email, "--password", "pw")
		assert.Contains(t, out, "Signed in as Ana (@ana)")
		assert.True(t, h.runner.session.Authenticated())

		assert.Contains(t, h.mustRun("auth", "status"), "@ana")

		status := decode[map[string]any](t, h.mustRun("auth", "status", "--json"))
		assert.Equal(t, "authenticated", status["state"])
	})

	t.Run("logout prints the login hint", func(t *testing.T) {
		out := h.mustRun("auth", "logout")
		assert.Contains(t, out, "Signed out")
		assert.Contains(t, out, "hitnote auth login")
		assert.False(t, h.runner.session.Authenticated())

		assert.Equal(t, "Not signed in\n", h.mustRun("auth", "logout"))
	})

	t.Run("password prompt", func(t *testing.T) {
		h.input("pw\n")
		out := h.mustRun("auth", "login", "--email", user.Email)
		assert.Contains(t, out, "Password: ")
		assert.Contains(t, out, "Signed in as Ana")
		h.mustRun("auth", "logout")
	})

	t.Run("register does not sign in", func(t *testing.T) {
		out := h.mustRun("auth", "register", "--name", "Bo", "--username", "bo", "--email", "bo@example.com", "--password", "pw")
		assert.Contains(t, out, "Account created for bo@example.com")
		assert.False(t, h.runner.session.Authenticated())

		_, err := h.run("auth", "register", "--name", "Bo", "--email", "bo@example.com", "--password", "pw")
		assert.Error(t, err)
	})
}

func TestCatalogCommands(t *testing.T) {
	h := newHarness(t)
	tracks := h.seedTracks(10)
	critic, _ := h.backend.AddUser("Critic", "critic", "critic@example.com", "pw")
	h.backend.AddReview(tracks[0].ID, critic.ID, 4, "Solid opener")

	t.Run("browse pages with ratings", func(t *testing.T) {
		page := decode[catalogPage](t, h.mustRun("catalog", "browse", "--page-size", "5", "--json"))

		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 2, page.MaxPage)
		assert.Equal(t, 10, page.Total)
		require.Len(t, page.Items, 5)
		assert.Equal(t, "Track 01", page.Items[0].Title)
		assert.Equal(t, 1, page.Items[0].Rating.Count)
		assert.Equal(t, "4.0", page.Items[0].Rating.MeanString())
		assert.False(t, page.Items[1].Rating.HasRating())
	})

	t.Run("browse clamps past the last page", func(t *testing.T) {
		page := decode[catalogPage](t, h.mustRun("catalog", "browse", "--page", "9", "--page-size", "5", "--json"))
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, "Track 06", page.Items[0].Title)
	})

	t.Run("browse with query and order", func(t *testing.T) {
		out := h.mustRun("catalog", "browse", "--query", "queen", "--order", "nome_desc")
		assert.Contains(t, out, "page 1/1 · 3 tracks")
		assert.Contains(t, out, `"queen"`)
		assert.Less(t, strings.Index(out, "Track 03"), strings.Index(out, "Track 01"))
	})

	t.Run("browse rejects bad arguments", func(t *testing.T) {
		_, err := h.run("catalog", "browse", "--order", "random")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)

		_, err = h.run("catalog", "browse", "--page-size", "0")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})

	t.Run("show", func(t *testing.T) {
		out := h.mustRun("catalog", "show", id(tracks[0].ID))
		assert.Contains(t, out, "Track 01 · Queen")
		assert.Contains(t, out, "Rating:   4.0 (1 reviews)")
		assert.Contains(t, out, "Critic: Solid opener")
		assert.NotContains(t, out, "Liked:")

		_, err := h.run("catalog", "show", "abc")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)

		_, err = h.run("catalog", "show")
		assert.ErrorIs(t, err, shared.ErrMissingArgument)

		_, err = h.run("catalog", "show", "9999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("create", func(t *testing.T) {
		out := h.mustRun("catalog", "create", "--title", "Heroes", "--artist", "Bowie")
		assert.Contains(t, out, "Created track #")
		assert.Contains(t, out, "Heroes · Bowie")

		_, err := h.run("catalog", "create", "--title", " ", "--artist", "Bowie")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("import", func(t *testing.T) {
		h.backend.SetExternal(
			models.ExternalTrack{ExternalID: 1, Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera"},
			models.ExternalTrack{ExternalID: 2, Title: "Bohemian Like You", Artist: "The Dandy Warhols"},
		)

		out := h.mustRun("catalog", "import", "bohemian")
		assert.Contains(t, out, "1. Bohemian Rhapsody · Queen (A Night at the Opera)")
		assert.Contains(t, out, "2. Bohemian Like You · The Dandy Warhols")
		assert.Contains(t, out, "--pick N")

		out = h.mustRun("catalog", "import", "bohemian", "--pick", "1")
		assert.Contains(t, out, "Imported track #")
		assert.Contains(t, out, "Bohemian Rhapsody · Queen")

		_, err := h.run("catalog", "import", "bohemian", "--pick", "5")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)

		_, err = h.run("catalog", "import", " ")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestReviewAndLikeCommands(t *testing.T) {
	h := newHarness(t)
	track := h.seedTracks(1)[0]
	critic, _ := h.backend.AddUser("Critic", "critic", "critic@example.com", "pw")
	h.backend.AddReview(track.ID, critic.ID, 4, "Good")

	t.Run("anonymous writes send nothing", func(t *testing.T) {
		_, err := h.run("reviews", "add", id(track.ID), "--rating", "5")
		assert.ErrorIs(t, err, shared.ErrLoginRequired)

		_, err = h.run("like", "toggle", id(track.ID))
		assert.ErrorIs(t, err, shared.ErrLoginRequired)

		_, err = h.run("like", "status", id(track.ID))
		assert.ErrorIs(t, err, shared.ErrLoginRequired)

		assert.Zero(t, h.backend.Count(http.MethodPost, "/musicas"))
	})

	me := h.login("Ana")

	t.Run("review updates the aggregate", func(t *testing.T) {
		out := h.mustRun("reviews", "add", id(track.ID), "--rating", "5", "--comment", "Classic")
		assert.Contains(t, out, "Reviewed Track 01: ★★★★★")
		assert.Contains(t, out, "Rating is now 4.5 (2 reviews)")

		_, err := h.run("reviews", "add", id(track.ID), "--rating", "9")
		assert.ErrorIs(t, err, shared.ErrValidation)

		reviews := decode[[]models.Review](t, h.mustRun("reviews", "list", id(track.ID), "--json"))
		require.Len(t, reviews, 2)
		assert.Equal(t, "Classic", reviews[0].Comment)
		assert.Equal(t, me.ID, reviews[0].AuthorID)
	})

	t.Run("like toggles", func(t *testing.T) {
		assert.Equal(t, "Liked: no\n", h.mustRun("like", "status", id(track.ID)))

		assert.Contains(t, h.mustRun("like", "toggle", id(track.ID)), "♥ Liked track")
		assert.True(t, h.backend.Likes(me.ID, track.ID))
		assert.Equal(t, "Liked: yes\n", h.mustRun("like", "status", id(track.ID)))

		assert.Contains(t, h.mustRun("like", "toggle", id(track.ID)), "♡ Unliked track")
		assert.False(t, h.backend.Likes(me.ID, track.ID))
	})

	t.Run("show includes the viewer's like and rating", func(t *testing.T) {
		h.mustRun("like", "toggle", id(track.ID))

		detail := decode[trackDetail](t, h.mustRun("catalog", "show", id(track.ID), "--json"))
		assert.True(t, detail.Liked)
		assert.Equal(t, 2, detail.Rating.Count)
	})
}

func TestUserAndProfileCommands(t *testing.T) {
	h := newHarness(t)
	track := h.seedTracks(1)[0]
	bo, _ := h.backend.AddUser("Bo", "bo", "bo@example.com", "pw")

	_, err := h.run("profile", "show")
	assert.ErrorIs(t, err, shared.ErrLoginRequired)

	me := h.login("Ana")

	t.Run("show and follow", func(t *testing.T) {
		out := h.mustRun("users", "show", id(bo.ID))
		assert.Contains(t, out, "Bo (@bo)")
		assert.Contains(t, out, "Followers: 0")
		assert.Contains(t, out, "Following: no")

		out = h.mustRun("users", "follow", id(bo.ID))
		assert.Contains(t, out, "Following @bo (1 followers)")
		assert.True(t, h.backend.Follows(me.ID, bo.ID))

		out = h.mustRun("users", "follow", id(bo.ID))
		assert.Contains(t, out, "Unfollowed @bo (0 followers)")
		assert.False(t, h.backend.Follows(me.ID, bo.ID))
	})

	t.Run("search", func(t *testing.T) {
		users := decode[[]models.PublicProfile](t, h.mustRun("users", "search", "bo", "--json"))
		require.Len(t, users, 1)
		assert.Equal(t, bo.ID, users[0].ID)

		assert.Equal(t, "No users found\n", h.mustRun("users", "search", "zed"))

		_, err := h.run("users", "search")
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
	})

	t.Run("likes and feed default to the signed-in user", func(t *testing.T) {
		assert.Equal(t, "No liked tracks\n", h.mustRun("users", "likes"))
		assert.Equal(t, "No recent activity\n", h.mustRun("users", "feed"))

		h.mustRun("like", "toggle", id(track.ID))
		h.mustRun("reviews", "add", id(track.ID), "--rating", "3", "--comment", "Fine")

		assert.Contains(t, h.mustRun("users", "likes"), "Track 01")
		assert.Contains(t, h.mustRun("users", "likes", id(me.ID)), "Track 01")

		out := h.mustRun("users", "feed")
		assert.Contains(t, out, fmt.Sprintf("reviewed track #%d ★★★☆☆: Fine", track.ID))
	})

	t.Run("profile edit keeps unset fields", func(t *testing.T) {
		out := h.mustRun("profile", "edit", "--bio", "Listens to everything", "--location", "Lisbon")
		assert.Contains(t, out, "Profile saved")

		profile := decode[models.UserProfile](t, h.mustRun("profile", "show", "--json"))
		assert.Equal(t, "Ana", profile.Name)
		assert.Equal(t, "Listens to everything", profile.Bio)
		assert.Equal(t, "Lisbon", profile.Location)

		_, err := h.run("profile", "edit", "--name", " ")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestListCommands(t *testing.T) {
	h := newHarness(t)
	tracks := h.seedTracks(2)

	_, err := h.run("lists", "create", "--name", "Road trip")
	assert.ErrorIs(t, err, shared.ErrLoginRequired)

	h.login("Ana")

	out := h.mustRun("lists", "create", "--name", "Road trip", "--description", "Long drives", "--public")
	assert.Contains(t, out, "Created list #")

	mine := decode[[]models.Playlist](t, h.mustRun("lists", "mine", "--json"))
	require.Len(t, mine, 1)
	list := mine[0]
	assert.Equal(t, "Road trip", list.Name)
	assert.True(t, list.Public)

	t.Run("another user's public lists", func(t *testing.T) {
		bo, _ := h.backend.AddUser("Bo", "bo", "bo@example.com", "pw")
		h.backend.AddList(bo.ID, models.PlaylistInput{Name: "Bo's picks", Public: true}, tracks[0].ID)
		h.backend.AddList(bo.ID, models.PlaylistInput{Name: "Secret"})

		out := h.mustRun("lists", "mine", id(bo.ID))
		assert.Contains(t, out, "Bo's picks")
		assert.Contains(t, out, "1 tracks")
		assert.NotContains(t, out, "Secret")
	})

	t.Run("add and remove keep the count", func(t *testing.T) {
		assert.Contains(t, h.mustRun("lists", "add", id(list.ID), id(tracks[0].ID)), "Road trip (1 tracks)")
		assert.Contains(t, h.mustRun("lists", "add", id(list.ID), id(tracks[1].ID)), "Road trip (2 tracks)")

		_, err := h.run("lists", "add", id(list.ID), id(tracks[0].ID))
		assert.Error(t, err)

		out := h.mustRun("lists", "show", id(list.ID))
		assert.Contains(t, out, "List: Road trip")
		assert.Contains(t, out, "Tracks: 2")
		assert.Contains(t, out, "1. Queen - Track 01")

		assert.Contains(t, h.mustRun("lists", "remove", id(list.ID), id(tracks[1].ID)), "(1 tracks)")
		stored, ok := h.backend.List(list.ID)
		require.True(t, ok)
		assert.Equal(t, 1, stored.SongCount)
	})

	t.Run("update keeps unset fields", func(t *testing.T) {
		out := h.mustRun("lists", "update", id(list.ID), "--name", "Summer trip")
		assert.Contains(t, out, "Updated list")
		assert.Contains(t, out, "Summer trip (Public)")

		stored, _ := h.backend.List(list.ID)
		assert.Equal(t, "Long drives", stored.Description)
	})

	t.Run("export", func(t *testing.T) {
		dir := t.TempDir()
		base := filepath.Join(dir, "trip")

		out := h.mustRun("lists", "export", id(list.ID), "--format", "csv", "--output", base, "--ratings")
		assert.Contains(t, out, "Exported 1 tracks")
		tu.AssertFileExists(t, base+"_tracks.csv")
		meta := tu.MustReadJSON[models.Playlist](t, base+"_metadata.json")
		assert.Equal(t, list.ID, meta.ID)
		assert.Equal(t, "Summer trip", meta.Name)
		assert.True(t, strings.HasPrefix(tu.MustReadFile(t, base+"_tracks.csv"), "Position,ID,Title,Artist,Album,Added,Rating,Reviews"))

		h.mustRun("lists", "export", id(list.ID), "--format", "txt", "--output", filepath.Join(dir, "trip.txt"))
		assert.Contains(t, tu.MustReadFile(t, filepath.Join(dir, "trip.txt")), "List: Summer trip")

		out = h.mustRun("lists", "export", id(list.ID), "--format", "json")
		assert.Contains(t, out, `"Track 01"`)

		_, err := h.run("lists", "export", id(list.ID), "--format", "xml")
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	})

	t.Run("delete asks first", func(t *testing.T) {
		h.backend.Reset()
		h.input("n\n")
		out, err := h.run("lists", "delete", id(list.ID))
		assert.ErrorIs(t, err, shared.ErrCancelled)
		assert.Contains(t, out, `Delete list "Summer trip"?`)
		assert.Zero(t, h.backend.Count(http.MethodDelete, "/listas"))

		h.input("y\n")
		assert.Contains(t, h.mustRun("lists", "delete", id(list.ID)), "Deleted list")
		_, ok := h.backend.List(list.ID)
		assert.False(t, ok)
		assert.Equal(t, 1, h.backend.Count(http.MethodDelete, "/listas"))
	})

	t.Run("delete with --yes skips the prompt", func(t *testing.T) {
		h.mustRun("lists", "create", "--name", "Scratch")
		mine := decode[[]models.Playlist](t, h.mustRun("lists", "mine", "--json"))
		require.NotEmpty(t, mine)

		out := h.mustRun("lists", "delete", id(mine[0].ID), "--yes")
		assert.NotContains(t, out, "[y/N]")
		assert.Contains(t, out, "Deleted list")
	})
}

func TestAPICommands(t *testing.T) {
	h := newHarness(t)
	track := h.seedTracks(1)[0]

	t.Run("get", func(t *testing.T) {
		out := h.mustRun("api", "get", fmt.Sprintf("/musicas/%d", track.ID))
		assert.Contains(t, out, `"nome": "Track 01"`)

		out = h.mustRun("api", "get", fmt.Sprintf("/musicas/%d", track.ID), "--json")
		assert.Contains(t, out, `"nome":"Track 01"`)

		_, err := h.run("api", "get", "/musicas/9999")
		assert.ErrorIs(t, err, shared.ErrAPIRequest)

		_, err = h.run("api", "get")
		assert.ErrorIs(t, err, shared.ErrMissingArgument)
	})

	t.Run("post", func(t *testing.T) {
		out := h.mustRun("api", "post", "/musicas", "--data", `{"nome":"Heroes","artista":"Bowie"}`)
		assert.Contains(t, out, `"nome": "Heroes"`)

		_, err := h.run("api", "post", "/musicas", "--data", "not json")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("sends the session token", func(t *testing.T) {
		h.login("Ana")
		h.mustRun("api", "get", "/usuarios/me")

		reqs := h.backend.Requests()
		last := reqs[len(reqs)-1]
		assert.Equal(t, "/usuarios/me", last.Path)
		assert.True(t, strings.HasPrefix(last.Auth, "Bearer "))
	})
}

func TestSetupCommands(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()

	t.Run("config", func(t *testing.T) {
		path := filepath.Join(dir, "config.toml")
		out := h.mustRun("setup", "config", "--config", path)
		assert.Contains(t, out, "Config written to")
		tu.AssertFileExists(t, path)

		_, err := h.run("setup", "config", "--config", path)
		assert.Error(t, err)
	})

	t.Run("database", func(t *testing.T) {
		h.runner.config.Session.DatabasePath = filepath.Join(dir, "data", "session.db")

		out := h.mustRun("setup", "database", "--config", filepath.Join(dir, "missing.toml"))
		assert.Contains(t, out, "Session database ready")
		tu.AssertFileExists(t, filepath.Join(dir, "data", "session.db"))
		tu.AssertFileExists(t, filepath.Join(dir, "missing.toml"))
	})
}
