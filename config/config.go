// Package config loads agentforest settings from YAML with environment
// variable expansion and overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentforest/logging"
)

// ErrInvalidConfig is wrapped by Validate failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// DefaultPath is used when neither an explicit path nor AGENTFOREST_CONFIG is set.
const DefaultPath = "agentforest.yaml"

type Config struct {
	Provider     ProviderConfig     `yaml:"provider"`
	Agent        AgentConfig        `yaml:"agent"`
	Forest       ForestConfig       `yaml:"forest"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	NATS         NATSConfig         `yaml:"nats"`
}

type ProviderConfig struct {
	Name        string  `yaml:"name"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type AgentConfig struct {
	MaxIterations    int `yaml:"max_iterations"`
	MaxParallelTools int `yaml:"max_parallel_tools"`
}

type ForestAgent struct {
	Name         string `yaml:"name"`
	SystemPrompt string `yaml:"system_prompt"`
}

type ForestConfig struct {
	Name                  string        `yaml:"name"`
	Coordinator           string        `yaml:"coordinator"`
	ExecutionBudgetFactor int           `yaml:"execution_budget_factor"`
	PollInterval          time.Duration `yaml:"poll_interval"`
	Agents                []ForestAgent `yaml:"agents"`
}

type OrchestratorConfig struct {
	MaxAgents int `yaml:"max_agents"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
	// Embedded starts an in-process server instead of dialing URL.
	Embedded bool `yaml:"embedded"`
	Port     int  `yaml:"port"`
}

// Defaults returns the baseline configuration.
func Defaults() Config {
	return Config{
		Provider: ProviderConfig{
			Name:        ProviderOpenAI,
			Temperature: 0.7,
		},
		Agent: AgentConfig{
			MaxIterations:    10,
			MaxParallelTools: 1,
		},
		Forest: ForestConfig{
			Name:                  "forest",
			ExecutionBudgetFactor: 3,
			PollInterval:          100 * time.Millisecond,
		},
		Orchestrator: OrchestratorConfig{
			MaxAgents: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
		NATS: NATSConfig{
			Port: -1,
		},
	}
}

// Load reads path (or $AGENTFOREST_CONFIG, or DefaultPath), expands
// environment variables in it, applies AGENTFOREST_* overrides and
// validates the result. A missing file yields defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv("AGENTFOREST_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults + env
	} else {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("AGENTFOREST_PROVIDER"); v != "" {
		cfg.Provider.Name = v
	}
	if v := os.Getenv("AGENTFOREST_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv("AGENTFOREST_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if cfg.Provider.APIKey == "" {
		switch cfg.Provider.Name {
		case ProviderAnthropic:
			cfg.Provider.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case ProviderOpenAI:
			cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if v := os.Getenv("AGENTFOREST_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Agent.MaxIterations = n
		}
	}
	if v := os.Getenv("AGENTFOREST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("AGENTFOREST_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("AGENTFOREST_METRICS_ADDR"); v != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("AGENTFOREST_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider.Name)
	}

	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("%w: agent.max_iterations must be positive", ErrInvalidConfig)
	}

	if c.Forest.ExecutionBudgetFactor <= 0 {
		return fmt.Errorf("%w: forest.execution_budget_factor must be positive", ErrInvalidConfig)
	}

	if c.Orchestrator.MaxAgents <= 0 {
		return fmt.Errorf("%w: orchestrator.max_agents must be positive", ErrInvalidConfig)
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: logging.format must be json or text", ErrInvalidConfig)
	}

	seen := map[string]bool{}
	for _, a := range c.Forest.Agents {
		if a.Name == "" {
			return fmt.Errorf("%w: forest agent without name", ErrInvalidConfig)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: duplicate forest agent %s", ErrInvalidConfig, a.Name)
		}
		seen[a.Name] = true
	}

	if c.Forest.Coordinator != "" && len(c.Forest.Agents) > 0 && !seen[c.Forest.Coordinator] {
		return fmt.Errorf("%w: coordinator %s is not a forest agent", ErrInvalidConfig, c.Forest.Coordinator)
	}

	return nil
}

// LoggerConfig converts the logging section into a logging.Config.
func (c *Config) LoggerConfig() logging.Config {
	level, _ := logging.ParseLevel(c.Logging.Level)

	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Format = c.Logging.Format
	cfg.AddSource = c.Logging.AddSource

	return cfg
}
