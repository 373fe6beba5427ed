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
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/valpere/revtran/internal/classifier"
	"github.com/valpere/revtran/internal/config"
	"github.com/valpere/revtran/internal/detector"
	"github.com/valpere/revtran/internal/feedback"
	"github.com/valpere/revtran/internal/llm"
	"github.com/valpere/revtran/internal/orchestrator"
	"github.com/valpere/revtran/internal/pipeline"
	"github.com/valpere/revtran/internal/refiner"
	"github.com/valpere/revtran/internal/reviewer"
	"github.com/valpere/revtran/internal/store"
	"github.com/valpere/revtran/internal/translator"
	"github.com/valpere/revtran/internal/validator"
)

// openStore opens the configured database, creating its directory.
func openStore(c *config.Config) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(c.Store.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := store.New(c.Store.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// buildModel returns the configured client, named name when non-empty.
// Every attempt of a retried call waits on the shared limiter.
func buildModel(c *config.Config, name string, limiter *rate.Limiter) (llm.Model, error) {
	mc := c.Model
	if name != "" {
		mc.Name = name
	}
	base, err := llm.New(mc)
	if err != nil {
		return nil, err
	}
	return llm.WithRetry(llm.RateLimited(base, limiter), c.LLM.MaxAttempts, c.LLM.RetryDelay, logger), nil
}

func buildTranslator(c *config.Config, model llm.Model) (translator.TranslationService, error) {
	switch strings.ToLower(c.Translator.Service) {
	case "", "llm":
		return translator.NewLLMTranslator(model, c.Model.Provider+"/"+c.Model.Name, c.Translator.ProtectMarkup), nil
	case "google":
		return translator.NewGoogleService(translator.ServiceConfig{
			Credentials:   c.Translator.Credentials,
			ProjectID:     c.Translator.ProjectID,
			Timeout:       c.Model.Timeout,
			ProtectMarkup: c.Translator.ProtectMarkup,
		}), nil
	}
	return nil, fmt.Errorf("unknown translator service %q", c.Translator.Service)
}

func buildClassifier(c *config.Config, model llm.Model, limiter *rate.Limiter) (classifier.Classifier, error) {
	switch strings.ToLower(c.Classifier.Mode) {
	case "exact":
		return classifier.ExactClassifier{}, nil
	case "", "model":
		if c.Classifier.Model == "" {
			return classifier.NewModelClassifier(model), nil
		}
		m, err := buildModel(c, c.Classifier.Model, limiter)
		if err != nil {
			return nil, err
		}
		return classifier.NewModelClassifier(m), nil
	}
	return nil, fmt.Errorf("unknown classifier mode %q", c.Classifier.Mode)
}

// buildPipeline wires the four stage operations from config.
func buildPipeline(c *config.Config, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	limiter := llm.NewLimiter(c.LLM.RequestsPerSecond, c.LLM.Burst)

	model, err := buildModel(c, "", limiter)
	if err != nil {
		return nil, err
	}
	tr, err := buildTranslator(c, model)
	if err != nil {
		return nil, err
	}
	cl, err := buildClassifier(c, model, limiter)
	if err != nil {
		return nil, err
	}

	opts = append([]pipeline.Option{pipeline.WithLogger(logger)}, opts...)
	return pipeline.New(pipeline.Deps{
		Translator: tr,
		Reviewer:   reviewer.NewLLMReviewer(model),
		Classifier: cl,
		Refiner:    refiner.NewLLMRefiner(model),
	}, opts...)
}

// buildFeedback layers the built-in pair feedback, the configured file and
// notes recorded in db.
func buildFeedback(c *config.Config, db *store.Store) (*feedback.Provider, error) {
	base := feedback.Defaults()
	if c.Feedback.File != "" {
		fromFile, err := feedback.LoadFile(c.Feedback.File)
		if err != nil {
			return nil, err
		}
		base = feedback.Merge(base, fromFile)
	}
	var src feedback.Source
	if db != nil {
		src = db
	}
	return feedback.NewProvider(base, src), nil
}

// buildOrchestrator wires a pipeline and every optional collaborator. db may
// be nil, which disables memory, glossary and recorded feedback.
func buildOrchestrator(c *config.Config, db *store.Store, det *detector.Detector, opts ...pipeline.Option) (*orchestrator.Orchestrator, error) {
	p, err := buildPipeline(c, opts...)
	if err != nil {
		return nil, err
	}
	policy, err := orchestrator.ParseFailurePolicy(c.Pipeline.FailurePolicy)
	if err != nil {
		return nil, err
	}
	fb, err := buildFeedback(c, db)
	if err != nil {
		return nil, err
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithLanguageChecker(validator.NewWithDetector(det)),
		orchestrator.WithFeedback(fb),
	}
	if db != nil {
		orchOpts = append(orchOpts, orchestrator.WithGlossary(db))
		if !c.Store.NoCache {
			orchOpts = append(orchOpts, orchestrator.WithMemory(db))
		}
	}

	return orchestrator.New(p, orchestrator.OrchestratorConfig{
		MaxConcurrency: c.Pipeline.MaxConcurrency,
		FailurePolicy:  policy,
		BlockTimeout:   c.Pipeline.BlockTimeout,
	}, orchOpts...), nil
}
