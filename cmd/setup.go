package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/herald0/herald/internal/agent"
	"github.com/herald0/herald/internal/config"
	"github.com/herald0/herald/internal/log"
	"github.com/herald0/herald/internal/provider"
	"github.com/herald0/herald/internal/runner"
	"github.com/herald0/herald/internal/tools"
)

// Agent instruction texts.
const (
	assistantInstructions = "You are a helpful assistant that can answer user questions."

	newsInstructions = `You are a news agent that can search the web for the latest news on the given topic.
Compile the information you find into a single paragraph concise summary. No markdown, just plain text.`
)

// deps is everything a command needs after startup wiring.
type deps struct {
	cfg    *config.Config
	logger log.Logger
	model  *provider.Model
	runner *runner.Runner
	runCfg agent.RunConfig
}

// setup loads configuration and wires the provider binding, model, and
// runner shared by every command.
func setup() (*deps, error) {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	binding, err := provider.New(cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating provider binding: %w", err)
	}
	model, err := provider.NewModel(binding, cfg.ModelName)
	if err != nil {
		return nil, fmt.Errorf("creating model adapter: %w", err)
	}

	return &deps{
		cfg:    cfg,
		logger: logger,
		model:  model,
		runner: runner.New(runner.Config{Logger: logger}),
		runCfg: agent.RunConfig{
			Model:          model,
			TracingEnabled: cfg.Tracing.Enabled,
			MaxTurns:       cfg.MaxTurns,
			Temperature:    cfg.Temperature,
			MaxTokens:      cfg.MaxTokens,
		},
	}, nil
}

// newLogger builds the process logger. DEBUG in the environment enables
// debug level. Logs go to stderr; stdout carries command output.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

// assistantAgent builds the plain conversational agent.
func (d *deps) assistantAgent() (*agent.Definition, error) {
	return agent.New("assistant", assistantInstructions, d.model)
}

// newsAgent builds the news agent with its web tools. The search tool
// needs a configured SearXNG instance; without one the agent gets only
// web_fetch.
func (d *deps) newsAgent() (*agent.Definition, error) {
	var agentTools []agent.Tool

	if d.cfg.SearXNG.BaseURL != "" {
		search, err := tools.NewSearchTool(d.cfg.SearXNG.BaseURL, d.logger)
		if err != nil {
			return nil, fmt.Errorf("creating search tool: %w", err)
		}
		agentTools = append(agentTools, search)
	} else {
		d.logger.Warn("searxng url not configured, web_search disabled")
	}
	agentTools = append(agentTools, tools.NewFetchTool(d.logger))

	return agent.New("news", newsInstructions, d.model, agentTools...)
}
