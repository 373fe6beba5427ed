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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/valpere/revtran/internal"
	"github.com/valpere/revtran/internal/detector"
	"github.com/valpere/revtran/internal/document"
	"github.com/valpere/revtran/internal/orchestrator"
	"github.com/valpere/revtran/internal/pipeline"
	"github.com/valpere/revtran/internal/store"
)

var (
	inputFile     string
	outputFile    string
	sourceLang    string
	targetLang    string
	docFormat     string
	domain        string
	style         string
	reportFile    string
	failurePolicy string
	concurrency   int
	noCache       bool
	verbose       bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a document through the review pipeline",
	Long: `Translate a document block by block. Each block goes through:

  TRANSLATOR
  ACCURACY_REVIEWER -> ACCURACY_REFINER
  FLUENCY_REVIEWER -> FLUENCY_REFINER
  STYLE_REVIEWER -> STYLE_REFINER
  TERMINOLOGY_REVIEWER -> TERMINOLOGY_REFINER
  CONSISTENCY_REVIEWER -> CONSISTENCY_REFINER
  READABILITY_REVIEWER -> READABILITY_REFINER
  FORMATTING_REVIEWER -> FORMATTING_REFINER
  USER_REFINER
  COMBINER

A refiner only runs when its reviewer found an issue. The user refiner applies
past feedback recorded for the language pair ("revtran feedback add").

Formats:
  html       translate each block element as one unit:
               p, h1-h6, blockquote, figcaption, caption, button, label,
               legend, summary, option, and ul, ol, dl as whole lists;
             div, section, article, aside, header, footer, main, nav,
             td, th, dd, dt are blocks only when they hold no nested
             block; script, style, noscript, template, svg and hidden
             elements are left untouched
  markdown   render to HTML first, then as html; output is HTML
  text       translate the whole input as one block

Languages are English names ("spanish") or ISO codes ("es").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		raw, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		content := string(raw)

		mode, err := document.ParseMode(docFormat)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("failure-policy") {
			cfg.Pipeline.FailurePolicy = failurePolicy
		}
		if cmd.Flags().Changed("concurrency") {
			cfg.Pipeline.MaxConcurrency = concurrency
		}
		if noCache {
			cfg.Store.NoCache = true
		}

		det := detector.New()
		if sourceLang == "" || sourceLang == "auto" {
			detected, ok := det.DetectName(document.Text(content, mode))
			if !ok {
				return fmt.Errorf("could not detect source language, pass --source")
			}
			sourceLang = detected
			fmt.Fprintf(os.Stderr, "Detected source language: %s\n", sourceLang)
		}

		db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		var popts []pipeline.Option
		if verbose {
			popts = append(popts, pipeline.WithObserver(stageReporter()))
		}
		orch, err := buildOrchestrator(cfg, db, det, popts...)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		md := internal.Metadata{
			SourceLanguage: sourceLang,
			TargetLanguage: targetLang,
			Domain:         domain,
			Style:          style,
		}

		reqID := uuid.NewString()
		if err := db.SaveRequest(ctx, internal.TranslationRequest{
			ID:         reqID,
			SourceText: content,
			SourceLang: sourceLang,
			TargetLang: targetLang,
			Format:     string(mode),
			Timestamp:  time.Now(),
		}); err != nil {
			logger.Warn("failed to save request", "error", err.Error())
		}

		result, runErr := orch.Translate(ctx, content, md, mode)
		if result == nil {
			return runErr
		}

		// a cancelled ctx must not stop the history from being written
		saveCtx := context.WithoutCancel(ctx)
		saveRuns(saveCtx, db, reqID, result)
		reportBlocks(result)

		if reportFile != "" {
			if err := writeReport(reportFile, result); err != nil {
				return err
			}
		}

		if runErr != nil {
			if errors.Is(runErr, orchestrator.ErrDocumentFailed) {
				return fmt.Errorf("translation aborted: %w", runErr)
			}
			return runErr
		}

		if err := db.CompleteRequest(saveCtx, reqID, result.FinalTranslation); err != nil {
			logger.Warn("failed to complete request", "error", err.Error())
		}

		if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(outputFile, []byte(result.FinalTranslation), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}

		fmt.Printf("Successfully translated %s to %s\n", sourceLang, targetLang)
		fmt.Printf("Blocks: %d translated, %d from memory, %d failed\n",
			result.Count(orchestrator.StatusTranslated),
			result.Count(orchestrator.StatusCached),
			result.Count(orchestrator.StatusFailed)+result.Count(orchestrator.StatusReassemblyFailed))
		fmt.Printf("Request: %s\n", reqID)
		return nil
	},
}

func saveRuns(ctx context.Context, db *store.Store, reqID string, result *orchestrator.Result) {
	for _, b := range result.BlockResults {
		run := store.BlockRun{
			RequestID:   reqID,
			BlockID:     b.BlockID,
			Path:        b.Path,
			Status:      string(b.Status),
			FailedStage: b.FailedStage,
			FinalText:   b.Translation,
			Trail:       store.Trail{Intermediates: b.IntermediateTranslations, Criticisms: b.Criticisms},
			Error:       b.ErrorMessage(),
		}
		if err := db.SaveBlockRun(ctx, run); err != nil {
			logger.Warn("failed to save block run", "block_id", b.BlockID, "error", err.Error())
		}
	}
}

func reportBlocks(result *orchestrator.Result) {
	for _, b := range result.BlockResults {
		switch b.Status {
		case orchestrator.StatusFailed, orchestrator.StatusReassemblyFailed:
			fmt.Fprintf(os.Stderr, "Block %s (%s) %s", b.BlockID, b.Path, b.Status)
			if b.FailedStage != "" {
				fmt.Fprintf(os.Stderr, " in %s", b.FailedStage)
			}
			fmt.Fprintf(os.Stderr, ": %s\n", b.ErrorMessage())
		}
		for _, w := range b.Warnings {
			fmt.Fprintf(os.Stderr, "Block %s (%s): %s\n", b.BlockID, b.Path, w)
		}
	}
}

func writeReport(path string, result *orchestrator.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// stageReporter prints one line per finished stage. Blocks run concurrently
// so lines from different blocks interleave.
func stageReporter() pipeline.Observer {
	var mu sync.Mutex
	return func(ev pipeline.StageEvent) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case ev.Err != nil:
			fmt.Fprintf(os.Stderr, "[%s] %s failed: %v\n", ev.BlockID, ev.Stage, ev.Err)
		case ev.Skipped:
			fmt.Fprintf(os.Stderr, "[%s] %s skipped\n", ev.BlockID, ev.Stage)
		default:
			fmt.Fprintf(os.Stderr, "[%s] %s %s\n", ev.BlockID, ev.Stage, ev.Duration.Round(time.Millisecond))
		}
	}
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file to translate (required)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for translation (required)")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "Source language name or code")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language name or code (required)")
	translateCmd.Flags().StringVarP(&docFormat, "format", "f", "html", "Input format: html, markdown, text")
	translateCmd.Flags().StringVar(&domain, "domain", "", "Subject domain passed to every stage, e.g. legal")
	translateCmd.Flags().StringVar(&style, "style", "", "Target style passed to every stage, e.g. formal")

	translateCmd.Flags().StringVar(&reportFile, "report", "", "Write a JSON report with per-block criticisms and drafts")
	translateCmd.Flags().StringVar(&failurePolicy, "failure-policy", "keep-original", "On block failure: keep-original or fail-document")
	translateCmd.Flags().IntVar(&concurrency, "concurrency", 4, "Blocks translated at the same time")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable translation memory")
	translateCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every stage as it finishes")

	translateCmd.MarkFlagRequired("input")
	translateCmd.MarkFlagRequired("output")
	translateCmd.MarkFlagRequired("target")
}
