// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func withJSON(flags ...cli.Flag) []cli.Flag {
	return append(flags, jsonFlags()...)
}

// setupCommand handles setup operations for configuration and the session database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml from the built-in defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the session database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles the session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in, sign out and register",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and store the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Sources: cli.EnvVars("HITNOTE_PASSWORD")},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Clear the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
					&cli.StringFlag{Name: "username", Usage: "Username"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Sources: cli.EnvVars("HITNOTE_PASSWORD")},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "status",
				Usage:  "Show who is signed in",
				Flags:  jsonFlags(),
				Action: r.AuthStatus,
			},
		},
	}
}

// catalogCommand handles catalog browsing and track creation
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"tracks"},
		Usage:   "Browse and extend the track catalog",
		Commands: []*cli.Command{
			{
				Name:  "browse",
				Usage: "List a catalog page with ratings",
				Flags: withJSON(
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search title or artist"},
					&cli.IntFlag{Name: "page", Usage: "Page number", Value: 1},
					&cli.IntFlag{Name: "page-size", Usage: "Tracks per page (default from config)"},
					&cli.StringFlag{Name: "order", Usage: "id_asc, id_desc, nome_asc or nome_desc", Value: "id_asc"},
				),
				Action: r.CatalogBrowse,
			},
			{
				Name:      "show",
				Usage:     "Show a track with its rating and reviews",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     jsonFlags(),
				Action:    r.CatalogShow,
			},
			{
				Name:  "create",
				Usage: "Add a track to the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Track title", Required: true},
					&cli.StringFlag{Name: "artist", Usage: "Artist", Required: true},
					&cli.StringFlag{Name: "album", Usage: "Album"},
					&cli.StringFlag{Name: "release-date", Usage: "Release date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "cover", Usage: "Cover image URL"},
				},
				Action: r.CatalogCreate,
			},
			{
				Name:      "import",
				Usage:     "Search the external catalog and import a hit",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "pick", Usage: "Import the numbered hit instead of listing them"},
				},
				Action: r.CatalogImport,
			},
		},
	}
}

// reviewsCommand handles track reviews
func reviewsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reviews",
		Usage: "Read and write reviews",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List a track's reviews, newest first",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track-id"}},
				Flags:     jsonFlags(),
				Action:    r.ReviewsList,
			},
			{
				Name:      "add",
				Usage:     "Review a track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track-id"}},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "rating", Aliases: []string{"r"}, Usage: "Rating from 1 to 5", Required: true},
					&cli.StringFlag{Name: "comment", Aliases: []string{"m"}, Usage: "Optional comment"},
				},
				Action: r.ReviewsAdd,
			},
		},
	}
}

// likeCommand handles track likes
func likeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "like",
		Usage: "Like and unlike tracks",
		Commands: []*cli.Command{
			{
				Name:      "status",
				Usage:     "Show whether you like a track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track-id"}},
				Action:    r.LikeStatus,
			},
			{
				Name:      "toggle",
				Usage:     "Like or unlike a track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track-id"}},
				Action:    r.LikeToggle,
			},
		},
	}
}

// usersCommand handles other users' profiles
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Find, view and follow users",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Show a public profile",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user-id"}},
				Flags:     jsonFlags(),
				Action:    r.UsersShow,
			},
			{
				Name:      "search",
				Usage:     "Search users by name or username",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     jsonFlags(),
				Action:    r.UsersSearch,
			},
			{
				Name:      "follow",
				Usage:     "Follow or unfollow a user",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user-id"}},
				Action:    r.UsersFollow,
			},
			{
				Name:      "likes",
				Usage:     "List a user's liked tracks (yours when no id is given)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user-id"}},
				Flags:     jsonFlags(),
				Action:    r.UsersLikes,
			},
			{
				Name:      "feed",
				Usage:     "Show a user's recent activity",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user-id"}},
				Flags:     jsonFlags(),
				Action:    r.UsersFeed,
			},
		},
	}
}

// profileCommand handles the signed-in user's own profile
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "View and edit your profile",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show your profile",
				Flags:  jsonFlags(),
				Action: r.ProfileShow,
			},
			{
				Name:  "edit",
				Usage: "Edit your profile; unset flags keep their current value",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Display name"},
					&cli.StringFlag{Name: "bio", Usage: "Biography"},
					&cli.StringFlag{Name: "avatar", Usage: "Avatar image URL"},
					&cli.StringFlag{Name: "cover", Usage: "Cover image URL"},
					&cli.StringFlag{Name: "location", Usage: "Location"},
				},
				Action: r.ProfileEdit,
			},
		},
	}
}

// listsCommand handles curated lists
func listsCommand(r *Runner) *cli.Command {
	listFlags := func(required bool) []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "List name", Required: required},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "List description"},
			&cli.BoolFlag{Name: "public", Usage: "Make the list visible to others"},
		}
	}

	return &cli.Command{
		Name:    "lists",
		Aliases: []string{"list"},
		Usage:   "Create and curate lists",
		Commands: []*cli.Command{
			{
				Name:      "mine",
				Usage:     "List your lists (or another user's public lists)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user-id"}},
				Flags:     jsonFlags(),
				Action:    r.ListsMine,
			},
			{
				Name:      "show",
				Usage:     "Show a list and its tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "list-id"}},
				Flags:     jsonFlags(),
				Action:    r.ListsShow,
			},
			{
				Name:   "create",
				Usage:  "Create a list",
				Flags:  listFlags(true),
				Action: r.ListsCreate,
			},
			{
				Name:      "update",
				Usage:     "Rename a list or change its description and visibility",
				Arguments: []cli.Argument{&cli.StringArg{Name: "list-id"}},
				Flags:     listFlags(false),
				Action:    r.ListsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a list",
				Arguments: []cli.Argument{&cli.StringArg{Name: "list-id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
				},
				Action: r.ListsDelete,
			},
			{
				Name:  "add",
				Usage: "Add a track to a list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "list-id"},
					&cli.StringArg{Name: "track-id"},
				},
				Action: r.ListsAdd,
			},
			{
				Name:  "remove",
				Usage: "Remove a track from a list",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "list-id"},
					&cli.StringArg{Name: "track-id"},
				},
				Action: r.ListsRemove,
			},
			{
				Name:      "export",
				Usage:     "Export a list to CSV, Markdown, JSON or text",
				Arguments: []cli.Argument{&cli.StringArg{Name: "list-id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "csv, markdown, json or txt", Value: "csv"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output path (file stem for csv, directory for markdown)"},
					&cli.BoolFlag{Name: "ratings", Usage: "Include each track's rating"},
				},
				Action: r.ListsExport,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the HitNote API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive catalog browser",
		Action:  r.TUI,
	}
}
