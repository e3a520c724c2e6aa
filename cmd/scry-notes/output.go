package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/phrazzld/scry-notes/internal/domain"
	"gopkg.in/yaml.v3"
)

// Supported --output values
const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// maxSummaryWidth truncates summaries in table output.
const maxSummaryWidth = 48

func validOutput(format string) bool {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return true
	default:
		return false
	}
}

// renderNotes writes notes to w in the given format.
func renderNotes(w io.Writer, format string, notes []domain.Note) error {
	if notes == nil {
		notes = []domain.Note{}
	}

	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(notes); err != nil {
			return fmt.Errorf("failed to encode notes as JSON: %w", err)
		}
		return nil
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(notes); err != nil {
			return fmt.Errorf("failed to encode notes as YAML: %w", err)
		}
		return enc.Close()
	case outputTable:
		return renderTable(w, notes)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderTable(w io.Writer, notes []domain.Note) error {
	if len(notes) == 0 {
		_, err := fmt.Fprintln(w, "No notes found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTOPIC\tSTATUS\tREADING\tSUMMARY")
	for _, n := range notes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			n.ID,
			n.Title(),
			statusLabel(n.TopicStatus),
			readingLabel(n.ReadingTimeMinutes),
			truncate(n.Summary, maxSummaryWidth))
	}
	return tw.Flush()
}

// statusLabel colours a topic status for terminals.
func statusLabel(status domain.TopicStatus) string {
	switch status {
	case domain.TopicStatusCompleted:
		return color.GreenString(string(status))
	case domain.TopicStatusFailed:
		return color.RedString(string(status))
	case domain.TopicStatusPending, domain.TopicStatusProcessing:
		return color.YellowString(string(status))
	default:
		return "-"
	}
}

func readingLabel(minutes *float64) string {
	if minutes == nil {
		return "-"
	}
	return strconv.FormatFloat(*minutes, 'f', -1, 64) + " min"
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
