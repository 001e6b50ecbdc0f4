package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"stock-analysis-agent/internal/fmp"
	"stock-analysis-agent/internal/interfaces"
	"stock-analysis-agent/internal/llm"
	"stock-analysis-agent/internal/logger"
	"stock-analysis-agent/internal/modelconfig"
	"stock-analysis-agent/internal/pipeline"
	"stock-analysis-agent/internal/storage"
	"stock-analysis-agent/internal/storage/storageobs"
	"stock-analysis-agent/internal/store"
	"stock-analysis-agent/internal/trace"
	"stock-analysis-agent/internal/web"
)

// initializeSystem loads .env and initializes logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// shutdownSystem flushes pending spans
func shutdownSystem(ctx context.Context) {
	if err := trace.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shut down tracer: %v\n", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shut down logger: %v\n", err)
	}
}

// loadConfig loads the configuration, falling back to defaults when the file is absent
func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn(ctx, "Config file not found, using defaults", "path", path)
		return store.DefaultConfig(), nil
	}
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// initializeRegistry builds the agent to model routing table over the configured source
func initializeRegistry(ctx context.Context, cfg *store.Config) (*modelconfig.Registry, error) {
	source, err := modelconfig.NewSource(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Model routing source selected", "source", source.Name(), "default", cfg.Models.Default)
	return modelconfig.NewRegistry(source, cfg.Models.Default), nil
}

// initializeResults returns the file result store with observability
func initializeResults(cfg *store.Config) interfaces.ResultStore {
	// Create base store
	fileStore := storage.NewFileStore(cfg.Results.BaseDir)

	// Wrap with observability middleware
	return storageobs.Wrap(fileStore)
}

// initializeToolbox builds the data sources behind the agents' tools
func initializeToolbox(ctx context.Context, cfg *store.Config) pipeline.Toolbox {
	if os.Getenv(cfg.FMP.APIKeyEnv) == "" {
		logger.Warn(ctx, "FMP API key not set - financial data tools will return errors", "env", cfg.FMP.APIKeyEnv)
	}
	return pipeline.Toolbox{
		FMP:       fmp.New(cfg),
		GuruFocus: web.NewGuruFocus(cfg.Web.GuruFocusBaseURL, cfg.WebTimeout()),
		Search:    web.NewSearcher(cfg.Web.SearchBaseURL, cfg.WebTimeout(), cfg.Web.MaxResults),
	}
}

// initializePipeline wires models, tools, storage and sessions into the agent pipeline
func initializePipeline(ctx context.Context, cfg *store.Config, registry interfaces.ModelResolver, results interfaces.ResultStore) (*pipeline.Pipeline, error) {
	sessions, err := pipeline.NewSessionService(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p, err := pipeline.New(ctx, pipeline.Options{
		Config:   cfg,
		Models:   llm.NewFactory(cfg, registry),
		Tools:    initializeToolbox(ctx, cfg),
		Results:  results,
		Log:      storage.NewAnalysisLog(cfg.Results.AnalysisLog),
		Sessions: sessions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return p, nil
}
