package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/chazu/kerf/pkg/transcript"
)

// renderer formats transcript entries for the terminal.
type renderer struct {
	json bool
}

// Entry formats one entry.
func (r *renderer) Entry(e transcript.Entry) string {
	if r.json {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Sprintf(`{"error":%q}`, err.Error())
		}
		return string(b)
	}

	var sb strings.Builder
	status := color.GreenString("✓")
	switch {
	case e.ErrorKind == transcript.ErrorNotImplemented:
		status = color.YellowString("–")
	case e.Failed():
		status = color.RedString("✗")
	}
	fmt.Fprintf(&sb, "%s %s\n", status, e.Context)
	for _, c := range e.Commands {
		fmt.Fprintf(&sb, "  %s\n", color.CyanString(c.String()))
	}
	if len(e.Solids) > 0 {
		ids := make([]string, len(e.Solids))
		for i, id := range e.Solids {
			ids[i] = id.String()
		}
		fmt.Fprintf(&sb, "  solids: %s\n", strings.Join(ids, ", "))
	}
	switch {
	case e.ErrorKind == transcript.ErrorNotImplemented:
		fmt.Fprintf(&sb, "  %s\n", color.YellowString("unavailable: "+e.Error))
	case e.Failed():
		fmt.Fprintf(&sb, "  %s\n", color.RedString(e.Error))
	}
	return sb.String()
}

// History formats entries as a compact list, newest first.
func (r *renderer) History(entries []transcript.Entry) string {
	if len(entries) == 0 {
		return "No history"
	}
	if r.json {
		b, err := json.Marshal(entries)
		if err != nil {
			return fmt.Sprintf(`{"error":%q}`, err.Error())
		}
		return string(b)
	}

	var sb strings.Builder
	sb.WriteString(color.CyanString("Recent Requests\n"))
	sb.WriteString(strings.Repeat("─", 60) + "\n")
	for _, e := range entries {
		status := color.GreenString("✓")
		if e.Failed() {
			status = color.RedString("✗")
		}
		text := e.Text
		if e.Kind == transcript.KindSelection {
			text = "[selection] " + text
		}
		fmt.Fprintf(&sb, "%s %s %s\n", status, color.HiBlackString(e.CreatedAt.Local().Format("2006-01-02 15:04:05")), truncateStr(text, 60))
	}
	return sb.String()
}

// truncateStr truncates s to n characters with an ellipsis.
func truncateStr(s string, n int) string {
	if n < 4 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
