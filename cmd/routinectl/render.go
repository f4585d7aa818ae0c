package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/noah-isme/routine-planner-api/internal/dto"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderGenerate(w io.Writer, result *dto.GenerateRoutineResponse) error {
	if result.Total == 0 {
		fmt.Fprintln(w, "No clash-free routine fits these preferences. Try more days or a wider time window.")
		for _, course := range result.Courses {
			fmt.Fprintf(w, "  %s: %d usable sections\n", course.Code, course.ValidSections)
		}
		return nil
	}

	summary := fmt.Sprintf("%d routines found", result.Total)
	if result.Truncated {
		summary += " (search stopped early, more may exist)"
	}
	fmt.Fprintf(w, "%s, showing %d\n", summary, len(result.Suggestions))

	for _, view := range result.Suggestions {
		fmt.Fprintf(w, "\nRoutine %d\n", view.Index+1)
		if err := renderView(w, view); err != nil {
			return err
		}
	}
	return nil
}

func renderView(w io.Writer, view dto.RoutineView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SECTION\tFACULTY\tSEATS\tSCHEDULE")
	for _, row := range view.Sections {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.CourseSection, row.Faculty, row.Seats, row.Schedule)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return renderGrid(w, view.Grid)
}

func renderGrid(w io.Writer, grid []dto.GridRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if len(grid) == 0 {
		return nil
	}
	header := []string{"TIME"}
	for _, cell := range grid[0].Cells {
		header = append(header, strings.ToUpper(cell.Day[:3]))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range grid {
		cols := []string{row.Slot}
		for _, cell := range row.Cells {
			cols = append(cols, cellText(cell))
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	return tw.Flush()
}

func cellText(cell dto.GridCell) string {
	if len(cell.Entries) == 0 {
		return "-"
	}
	labels := make([]string, 0, len(cell.Entries))
	for _, entry := range cell.Entries {
		labels = append(labels, entry.CourseCode+"-"+entry.SectionName)
	}
	text := strings.Join(labels, "/")
	if cell.Conflict {
		text = "!" + text
	}
	return text
}
