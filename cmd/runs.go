/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/revtran/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect per-block results of past translations",
}

var (
	runsRequest string
	runsStatus  string
	runsLimit   uint64
)

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List block runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListBlockRuns(cmd.Context(), store.RunFilter{
			RequestID: runsRequest,
			Status:    runsStatus,
			Limit:     runsLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No block runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "REQUEST\tBLOCK\tPATH\tSTATUS\tSTAGE\tCRITIQUES\tERROR")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				r.RequestID, r.BlockID, snippet(r.Path, 40), r.Status,
				r.FailedStage, len(r.Trail.Criticisms), snippet(r.Error, 50))
		}
		return w.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <request-id>",
	Short: "Print every block's criticisms and drafts for a request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListBlockRuns(cmd.Context(), store.RunFilter{RequestID: args[0]})
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			return fmt.Errorf("no block runs for request %s", args[0])
		}

		for i := len(runs) - 1; i >= 0; i-- {
			r := runs[i]
			fmt.Printf("== %s (%s) %s\n", r.BlockID, r.Path, r.Status)
			if r.Error != "" {
				fmt.Printf("error: %s\n", r.Error)
			}
			for j, c := range r.Trail.Criticisms {
				fmt.Printf("criticism %d: %s\n", j+1, c)
			}
			for j, d := range r.Trail.Intermediates {
				fmt.Printf("draft %d: %s\n", j+1, d)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsListCmd.Flags().StringVar(&runsRequest, "request", "", "Only runs of this request")
	runsListCmd.Flags().StringVar(&runsStatus, "status", "", "Only runs with this status, e.g. failed")
	runsListCmd.Flags().Uint64Var(&runsLimit, "limit", 50, "Show at most this many runs")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
}
