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
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/revtran/internal"
	"github.com/valpere/revtran/internal/feedback"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Manage past user feedback per language pair",
	Long: `Add, list, and delete the feedback applied by the user refiner.

Feedback for a pair comes from three places, in this order: the built-in
notes, the YAML file named by feedback.file in the config, and notes added
with "revtran feedback add".`,
}

var (
	feedbackSource string
	feedbackTarget string
)

// feedbackPair returns the pair key for the --source/--target flags, or ""
// when neither is set.
func feedbackPair() string {
	if feedbackSource == "" && feedbackTarget == "" {
		return ""
	}
	return internal.Metadata{SourceLanguage: feedbackSource, TargetLanguage: feedbackTarget}.PairKey()
}

var feedbackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List feedback notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		pair := feedbackPair()

		base := feedback.Defaults()
		if cfg.Feedback.File != "" {
			fromFile, err := feedback.LoadFile(cfg.Feedback.File)
			if err != nil {
				return err
			}
			base = feedback.Merge(base, fromFile)
		}

		entries, err := db.ListFeedback(cmd.Context(), pair)
		if err != nil {
			return fmt.Errorf("failed to list feedback: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPAIR\tNOTE")
		keys := make([]string, 0, len(base))
		for k := range base {
			if pair == "" || k == pair {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s\t%s\t%s\n", "(config)", k, snippet(base[k], 60))
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Pair, snippet(e.Note, 60))
		}
		return w.Flush()
	},
}

var feedbackAddCmd = &cobra.Command{
	Use:   "add <note>",
	Short: "Record a feedback note for a language pair",
	Long: `Record a note the user refiner will apply to every later translation
between the two languages.

Example:
  revtran feedback add "Use usted, never tú" --source english --target spanish`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if feedbackSource == "" || feedbackTarget == "" {
			return fmt.Errorf("--source and --target are required")
		}

		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := db.AddFeedback(cmd.Context(), feedbackPair(), args[0])
		if err != nil {
			return fmt.Errorf("failed to add feedback: %w", err)
		}
		fmt.Printf("Added feedback %s for %s\n", id, feedbackPair())
		return nil
	},
}

var feedbackDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recorded feedback note by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteFeedback(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete feedback: %w", err)
		}
		fmt.Printf("Deleted feedback: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(feedbackCmd)

	feedbackCmd.PersistentFlags().StringVarP(&feedbackSource, "source", "s", "", "Source language, e.g. english")
	feedbackCmd.PersistentFlags().StringVarP(&feedbackTarget, "target", "t", "", "Target language, e.g. spanish")

	feedbackCmd.AddCommand(feedbackListCmd)
	feedbackCmd.AddCommand(feedbackAddCmd)
	feedbackCmd.AddCommand(feedbackDeleteCmd)
}
