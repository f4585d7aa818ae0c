package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/routine-planner-api/internal/models"
	"github.com/noah-isme/routine-planner-api/pkg/timetable"
)

func newParseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "parse SCHEDULE...",
		Short:   "Parse a raw schedule string into meeting times",
		Example: `  routinectl parse "Sunday(08:00 AM-09:20 AM-09A-06C) Tuesday(08:00 AM-09:20 AM-09A-06C)"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			times := timetable.Parse(strings.Join(args, " "))
			if times == nil {
				times = []models.MeetingTime{}
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), times)
			}
			if len(times) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no meetings found")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DAY\tSTART\tEND\tROOM")
			for _, t := range times {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Day, t.StartTime, t.EndTime, t.Room)
			}
			return w.Flush()
		},
	}
}
