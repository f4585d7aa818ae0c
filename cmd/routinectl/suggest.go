package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSuggestCmd(opts *rootOptions) *cobra.Command {
	var exclude []string
	cmd := &cobra.Command{
		Use:   "suggest PREFIX",
		Short: "List course codes starting with PREFIX",
		Args:  cobra.ExactArgs(1),
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
			codes, err := catalog.Suggest(args[0], exclude)
			if err != nil {
				return err
			}
			if opts.asJSON {
				if codes == nil {
					codes = []string{}
				}
				return writeJSON(cmd.OutOrStdout(), codes)
			}
			for _, code := range codes {
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "course codes to leave out")
	return cmd
}
