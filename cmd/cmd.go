// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// outputFlags are shared by every command that prints profile data or results.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, markdown or csv",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the formatted output to a file",
		},
	}
}

func uploadFlags(required bool) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Usage:    "Path of the file to analyze",
			Required: required,
		},
		&cli.StringFlag{
			Name:  "type",
			Usage: "MIME type of the file (detected from the extension when empty)",
		},
	}, outputFlags()...)
}

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Drop and recreate all tables (forgets the session and history)",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write a config file with default settings",
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	credentials := []cli.Flag{
		&cli.StringFlag{
			Name:    "username",
			Aliases: []string{"u"},
			Usage:   "Account username (prompted when empty)",
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Account password (prompted when empty)",
			Sources: cli.EnvVars("MOODIFY_PASSWORD"),
		},
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account and log in",
				Flags: append(credentials, &cli.StringFlag{
					Name:    "email",
					Aliases: []string{"e"},
					Usage:   "Account email (prompted when empty)",
				}),
				Action: r.AuthRegister,
			},
			{
				Name:   "login",
				Usage:  "Log in and store the session locally",
				Flags:  credentials,
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session and cached profile",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the logged in user",
				Action: r.AuthStatus,
			},
		},
	}
}

// profileCommand handles the user's mood history and recommendations
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "View and edit your mood history",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show recent moods and recommendations",
				Flags:  outputFlags(),
				Action: r.ProfileShow,
			},
			{
				Name:      "delete-mood",
				Usage:     "Delete a mood by its position in 'profile show'",
				Arguments: []cli.Argument{&cli.StringArg{Name: "position"}},
				Action:    r.ProfileDeleteMood,
			},
			{
				Name:      "delete-recommendation",
				Aliases:   []string{"delete-rec"},
				Usage:     "Delete a recommendation by its position in 'profile show'",
				Arguments: []cli.Argument{&cli.StringArg{Name: "position"}},
				Action:    r.ProfileDeleteRecommendation,
			},
		},
	}
}

// moodCommand handles emotion detection
func moodCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "mood",
		Usage: "Detect your mood from text, a photo or your voice",
		Commands: []*cli.Command{
			{
				Name:      "text",
				Usage:     "Detect the emotion of a piece of text",
				ArgsUsage: "<text>",
				Flags:     outputFlags(),
				Action:    r.MoodText,
			},
			{
				Name:   "face",
				Usage:  "Detect the emotion of a face in an image",
				Flags:  uploadFlags(true),
				Action: r.MoodFace,
			},
			{
				Name:  "speech",
				Usage: "Record from the microphone (or upload --file) and detect the emotion",
				Flags: append(uploadFlags(false), &cli.StringFlag{
					Name:  "save",
					Usage: "Also save the recording as WAV to this path",
				}),
				Action: r.MoodSpeech,
			},
		},
	}
}

// recommendCommand requests music for a mood
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "recommend",
		Usage:     "Get music recommendations for a mood",
		Arguments: []cli.Argument{&cli.StringArg{Name: "mood"}},
		Flags: append(outputFlags(),
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the first recommendation in the browser",
			},
			&cli.StringFlag{
				Name:  "export-dir",
				Usage: "Also write a Markdown page with cover art to this directory",
			},
		),
		Action: r.Recommend,
	}
}

// recordCommand captures a WAV file without submitting it
func recordCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "Record from the microphone and save a WAV file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path",
				Value:   "recording.wav",
			},
		},
		Action: r.Record,
	}
}

// historyCommand lists the local submission log
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List analyses submitted from this machine",
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Only show speech, facial or text submissions",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries",
				Value: 20,
			},
		),
		Action: r.History,
	}
}

// cacheCommand inspects the local key-value cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the local cache",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show cached entries",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheShow,
			},
			{
				Name:   "clear",
				Usage:  "Remove the cached profile (the session is kept)",
				Action: r.CacheClear,
			},
		},
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the Moodify backend",
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
		Usage:   "Launch the interactive recorder",
		Action:  r.TUI,
	}
}
