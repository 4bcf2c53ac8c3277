//
// Date: 2026-10-19
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2026 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Session status display.
//

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/cloudmanic/beatpace/session"
)

// printSessionTable displays the current session in a formatted table.
func printSessionTable(w io.Writer, state session.State, rec *session.Record, user *session.User, now time.Time) {
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(w)
	cyan.Fprintln(w, "🏃 BeatPace Session")
	fmt.Fprintln(w)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Field", "Value"})

	status := color.RedString("● Logged out")
	if state == session.StateLoggedIn {
		status = color.GreenString("● Logged in")
	}
	t.AppendRow(table.Row{"Status", status})

	if user != nil {
		t.AppendRow(table.Row{"User ID", user.ID})
		t.AppendRow(table.Row{"Spotify ID", string(user.SpotifyUserID)})
		email := "-"
		if user.Email != nil {
			email = *user.Email
		}
		t.AppendRow(table.Row{"Email", email})
	}

	if rec != nil {
		t.AppendRow(table.Row{"Expires", rec.ExpiresAt.Local().Format(time.RFC1123)})
		t.AppendRow(table.Row{"Time left", color.HiBlackString(rec.ExpiresAt.Sub(now).Truncate(time.Second).String())})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
	fmt.Fprintln(w)
}
