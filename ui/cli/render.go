// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/acekeeper/acekeeper/internal/model"
	"github.com/acekeeper/acekeeper/internal/sink"
)

const (
	colorSubtle    = lipgloss.Color("240") // Muted gray
	colorHighlight = lipgloss.Color("81")  // A nice teal/cyan
	colorSpecial   = lipgloss.Color("208") // An orange for special attention
	colorSuccess   = lipgloss.Color("40")  // A nice green
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(colorHighlight).Bold(true)
	subtleStyle = lipgloss.NewStyle().Foreground(colorSubtle)
	okStyle     = lipgloss.NewStyle().Foreground(colorSuccess)
	missStyle   = lipgloss.NewStyle().Foreground(colorSpecial)
)

// renderBackupList formats sink entries as a table, newest first.
func renderBackupList(entries []sink.Entry) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, headerStyle.Render("TITLE")+"\t"+headerStyle.Render("CREATED"))
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\n", entry.Title, subtleStyle.Render(displayTime(entry.CreatedAt)))
	}
	w.Flush()
	return buf.String()
}

// displayTime reformats an RFC3339 sink timestamp for table display. Values
// the sink could not date are passed through unchanged.
func displayTime(created string) string {
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		return t.Format("2006-01-02 15:04:05")
	}
	return created
}

// renderDocument formats the favorites of a backup document. Secrets never
// appear here, only whether each role's password was captured.
func renderDocument(doc *model.BackupDocument) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, headerStyle.Render("NAME")+"\t"+headerStyle.Render("KIND")+"\t"+headerStyle.Render("HOST")+"\t"+headerStyle.Render("USER")+"\t"+headerStyle.Render("DATABASE")+"\t"+headerStyle.Render("PASSWORDS"))
	for _, fav := range doc.Favorites {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			fav.Name, fav.Kind, fav.Host, fav.User, fav.Database, credentialSummary(fav.Credentials))
	}
	w.Flush()
	return buf.String()
}

func credentialSummary(creds []model.ResolvedCredential) string {
	if len(creds) == 0 {
		return missStyle.Render("none")
	}
	out := ""
	for i, cred := range creds {
		if i > 0 {
			out += " "
		}
		if cred.Found {
			out += okStyle.Render(string(cred.Role))
		} else {
			out += missStyle.Render(string(cred.Role) + "?")
		}
	}
	return out
}

// renderHistory formats recent run records as a table.
func renderHistory(runs []model.RunRecord) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, headerStyle.Render("WHEN")+"\t"+headerStyle.Render("COMMAND")+"\t"+headerStyle.Render("TARGET")+"\t"+headerStyle.Render("FAVORITES")+"\t"+headerStyle.Render("CREDENTIALS")+"\t"+headerStyle.Render("FAILURES"))
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			run.Timestamp, run.Command, run.Target,
			run.Favorites, run.Credentials, run.Failures)
	}
	w.Flush()
	return buf.String()
}
