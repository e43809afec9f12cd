package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sguter90/soilmaestro/pkg/classifier"
	"github.com/sguter90/soilmaestro/pkg/config"
	"github.com/sguter90/soilmaestro/pkg/models"
	"github.com/sguter90/soilmaestro/pkg/narrative"
	"github.com/sguter90/soilmaestro/pkg/orchestrator"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var errNoAPIKey = errors.New("narrative API key not configured: set narrative.api_key or SOIL_NARRATIVE_API_KEY")

func newClassifierClient(cfg *config.Config, logger *zap.Logger) *classifier.Client {
	return classifier.NewClient(cfg.Classifier.URL,
		classifier.WithTimeout(cfg.Classifier.Timeout),
		classifier.WithLogger(logger))
}

func newNarrativeClient(cfg *config.Config, apiKey string, logger *zap.Logger) *narrative.Client {
	return narrative.NewClient(cfg.Narrative.URL, apiKey,
		narrative.WithModel(cfg.Narrative.Model),
		narrative.WithTimeout(cfg.Narrative.Timeout),
		narrative.WithLogger(logger))
}

// orchestratorFactory builds a fresh orchestrator per form instance
func orchestratorFactory(cfg *config.Config, apiKey string, logger *zap.Logger, opts ...orchestrator.Option) func() *orchestrator.Orchestrator {
	classifierClient := newClassifierClient(cfg, logger)
	narrativeClient := newNarrativeClient(cfg, apiKey, logger)
	opts = append([]orchestrator.Option{orchestrator.WithLogger(logger)}, opts...)

	return func() *orchestrator.Orchestrator {
		return orchestrator.New(classifierClient, narrativeClient, opts...)
	}
}

// resolveAPIKey returns the configured narrative credential, prompting on
// an interactive terminal when none is configured
func resolveAPIKey(cfg *config.Config, prompt bool) (string, error) {
	if cfg.Narrative.APIKey != "" {
		return cfg.Narrative.APIKey, nil
	}
	if !prompt || !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errNoAPIKey
	}

	fmt.Fprint(os.Stderr, "Enter narrative API key: ")
	keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}

	key := strings.TrimSpace(string(keyBytes))
	if key == "" {
		return "", errNoAPIKey
	}
	return key, nil
}

func resolveSchema(name string) (models.Schema, error) {
	schema, ok := models.SchemaByName(name)
	if !ok {
		return models.Schema{}, fmt.Errorf("unknown schema %q (want %s or %s)", name, models.SchemaNameFull, models.SchemaNameReduced)
	}
	return schema, nil
}
