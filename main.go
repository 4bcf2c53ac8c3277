//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: BeatPace command line client. Logs in through the BeatPace
// backend, keeps the session, and requests playlists matched to a running
// pace.
//

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cloudmanic/beatpace/session"
)

// main is the entry point for the application.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, c := newRootCmd()
	err := root.ExecuteContext(ctx)
	c.close()
	if err != nil {
		color.Red("Error: %v", err)
		stop()
		os.Exit(1)
	}
}

// cli holds the state shared between the root command and its children.
type cli struct {
	v   *viper.Viper
	app *app
}

// close releases whatever the command opened.
func (c *cli) close() {
	if c.app != nil {
		c.app.close()
	}
}

// newRootCmd builds the command tree.
func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:           "beatpace",
		Short:         "Get the perfect playlist for your running pace",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.v)
			if err != nil {
				return err
			}
			c.app, err = newApp(cfg)
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.String("backend-url", defaultBackendURL, "BeatPace backend URL")
	flags.String("frontend-url", defaultFrontendURL, "Origin the session belongs to; the login callback listens here")
	flags.String("store", "file", "Session store: file, redis or memory")
	flags.String("session-dir", defaultSessionDir, "Directory for the file session store")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console or json)")

	for _, name := range []string{"backend-url", "frontend-url", "store", "session-dir", "log-level", "log-format"} {
		_ = c.v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name))
	}

	root.AddCommand(c.loginCmd(), c.statusCmd(), c.generateCmd(), c.signOutCmd())
	return root, c
}

func (c *cli) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in with Spotify through the BeatPace backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.app.login(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authenticated as: %s\n", displayName(user))
			return nil
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			state := a.guard.Check(cmd.Context())

			var rec *session.Record
			if state == session.StateLoggedIn {
				var err error
				rec, err = a.store.Read(cmd.Context())
				if err != nil {
					return err
				}
			}

			printSessionTable(cmd.OutOrStdout(), state, rec, a.guard.User(), time.Now())
			if state != session.StateLoggedIn {
				color.Yellow("Run `beatpace login` to log in.")
			}
			return nil
		},
	}
}

func (c *cli) generateCmd() *cobra.Command {
	var in paceInput

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a playlist for your running pace",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app

			req, err := buildPlaylistRequest(in)
			if err != nil {
				return err
			}

			playlist, err := generatePlaylist(cmd.Context(), a.guard, a.backend, req)
			if err != nil {
				a.logger.Debug("playlist generation failed", zap.Error(err))
				if session.NeedsLogin(err) {
					color.Yellow("Run `beatpace login` to log in.")
				}
				return errors.New(session.Message(err))
			}

			out := cmd.OutOrStdout()
			color.New(color.FgGreen, color.Bold).Fprintln(out, "Your playlist has been generated!")
			fmt.Fprintf(out, "Open:  %s\n", playlist.URL)
			fmt.Fprintf(out, "Embed: %s\n", playlist.EmbedURL())
			if len(playlist.Tracks) > 0 {
				fmt.Fprintf(out, "Tracks: %d\n", len(playlist.Tracks))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Pace, "pace", "", "Running pace as M:SS")
	f.StringVar(&in.PaceUnit, "unit", "km", "Pace unit: km or mile")
	f.StringVar(&in.Gender, "gender", "male", "Gender: male or female")
	f.Float64Var(&in.Height, "height", 0, "Height")
	f.StringVar(&in.HeightUnit, "height-unit", "cm", "Height unit: cm or in")
	_ = cmd.MarkFlagRequired("pace")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}

func (c *cli) signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.guard.SignOut(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear local session: %w", err)
			}
			color.Green("Successfully signed out")
			return nil
		},
	}
}

// displayName picks the best label for a user.
func displayName(u *session.User) string {
	switch {
	case u == nil:
		return "unknown user"
	case u.Email != nil && *u.Email != "":
		return *u.Email
	case u.SpotifyUserID != "":
		return string(u.SpotifyUserID)
	default:
		return u.ID
	}
}
