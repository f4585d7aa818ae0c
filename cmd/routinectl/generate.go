package main

import (
	"github.com/spf13/cobra"

	"github.com/noah-isme/routine-planner-api/internal/dto"
	"github.com/noah-isme/routine-planner-api/internal/service"
)

type generateOptions struct {
	courses []string
	days    []string
	start   string
	end     string
	seed    int64
	limit   int
	visits  int
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	gen := &generateOptions{}
	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate clash-free routines for a set of courses",
		Example: `  routinectl generate --course CSE110 --course MAT110 --days Sunday,Tuesday --start 08:00 --end 17:00`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logr, err := opts.logger()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			catalog, err := opts.loadCatalog(cmd.Context(), logr)
			if err != nil {
				return err
			}
			routines := service.NewRoutineService(catalog, nil, nil, nil, nil, logr, service.RoutineServiceConfig{
				SuggestionLimit: gen.limit,
				MaxVisits:       gen.visits,
			})

			req := dto.GenerateRoutineRequest{
				Courses:   gen.courses,
				Days:      gen.days,
				StartTime: gen.start,
				EndTime:   gen.end,
				Limit:     gen.limit,
			}
			if cmd.Flags().Changed("seed") {
				req.Seed = &gen.seed
			}
			result, err := routines.Generate(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return renderGenerate(cmd.OutOrStdout(), result)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&gen.courses, "course", nil, "course code to include (repeatable)")
	flags.StringSliceVar(&gen.days, "days", []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday"}, "days you can attend")
	flags.StringVar(&gen.start, "start", "08:00", "earliest class start (HH:MM or hh:mm AM)")
	flags.StringVar(&gen.end, "end", "18:20", "latest class end (HH:MM or hh:mm AM)")
	flags.Int64Var(&gen.seed, "seed", 0, "shuffle seed for reproducible output")
	flags.IntVar(&gen.limit, "limit", 3, "number of routines to print")
	flags.IntVar(&gen.visits, "max-visits", 0, "stop the search after this many steps (0 for no bound)")
	_ = cmd.MarkFlagRequired("course")
	return cmd
}
