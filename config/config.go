// Package config handles werewolf agent configuration loading.
//
// Configuration is layered: Default(), then an optional YAML file, then
// WEREWOLF_* environment variables, then Validate.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zacbakerr/werewolf/core"
	"github.com/zacbakerr/werewolf/strategy"
)

// Config is the root configuration structure.
type Config struct {
	Agent     AgentConfig     `yaml:"agent"`
	Backend   BackendConfig   `yaml:"backend"`
	Retry     RetryConfig     `yaml:"retry"`
	Game      GameConfig      `yaml:"game"`
	Policy    PolicyConfig    `yaml:"policy"`
	Transport TransportConfig `yaml:"transport"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AgentConfig identifies the player.
type AgentConfig struct {
	Name string `yaml:"name"`
}

// BackendConfig selects and parameterizes the reasoning backend.
type BackendConfig struct {
	Provider    string  `yaml:"provider"` // openai, anthropic, gemini
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
	// MaxCalls caps backend calls per agent lifetime; 0 means unlimited.
	MaxCalls int `yaml:"max_calls"`
}

// RetryConfig holds the gateway retry schedule.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier"`
}

// GameConfig describes the table the agent sits at.
type GameConfig struct {
	Roster          []string `yaml:"roster"`
	EliminatorCount int      `yaml:"eliminator_count"`
	PublicChannel   string   `yaml:"public_channel"`
	PrivateChannel  string   `yaml:"private_channel"`
	Moderator       string   `yaml:"moderator"`
}

// PolicyConfig holds the adjustable play policies.
type PolicyConfig struct {
	FallbackRole    string `yaml:"fallback_role"`
	VillagerPersona string `yaml:"villager_persona"`
	ProtectSelf     bool   `yaml:"protect_self"`
	MinAccuseRounds int    `yaml:"min_accuse_rounds"`
}

// TransportConfig holds the orchestrator websocket settings.
type TransportConfig struct {
	// URL may contain {agent}, replaced by the agent name.
	URL            string        `yaml:"url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

// ArchiveConfig selects where transcripts are mirrored.
type ArchiveConfig struct {
	Backend    string `yaml:"backend"` // none, memory, mongo
	MongoURI   string `yaml:"mongodb_uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// LoggingConfig selects the logging backend.
type LoggingConfig struct {
	Backend string `yaml:"backend"` // slog, zap
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // json, text (slog only)
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		Retry: RetryConfig{
			MaxAttempts:    5,
			InitialBackoff: 20 * time.Second,
			MaxBackoff:     300 * time.Second,
			Multiplier:     2,
		},
		Game: GameConfig{
			EliminatorCount: 2,
			PublicChannel:   "play-arena",
			PrivateChannel:  "wolf's-den",
			Moderator:       "moderator",
		},
		Policy: PolicyConfig{
			FallbackRole:    "eliminator",
			VillagerPersona: string(strategy.PersonaHonest),
			MinAccuseRounds: 1,
		},
		Transport: TransportConfig{
			URL:            "ws://localhost:8765/agents/{agent}",
			ReconnectDelay: 5 * time.Second,
		},
		Archive: ArchiveConfig{
			Backend:    "none",
			Database:   "werewolf",
			Collection: "game_history",
		},
		Logging: LoggingConfig{
			Backend: "slog",
			Level:   "info",
			Format:  "json",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	return cfg, nil
}

// LoadOrDefault loads config from path, or the defaults if path is empty or
// missing. Environment overrides apply in both cases.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config: %w", err)
		}
	}

	cfg := Default()
	cfg.ApplyEnv(os.Getenv)

	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from WEREWOLF_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Agent.Name, "WEREWOLF_AGENT_NAME")
	set(&c.Backend.APIKey, "WEREWOLF_API_KEY")
	set(&c.Backend.Model, "WEREWOLF_MODEL")
	set(&c.Backend.BaseURL, "WEREWOLF_BASE_URL")
	set(&c.Backend.Provider, "WEREWOLF_PROVIDER")
	set(&c.Transport.URL, "WEREWOLF_TRANSPORT_URL")
	if v := strings.TrimSpace(getenv("WEREWOLF_MONGODB_URI")); v != "" {
		c.Archive.MongoURI = v
		if c.Archive.Backend == "" || c.Archive.Backend == "none" {
			c.Archive.Backend = "mongo"
		}
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Agent.Name) == "" {
		errs = append(errs, errors.New("agent.name is required"))
	}

	switch c.Backend.Provider {
	case "openai", "anthropic", "gemini", "mock":
	default:
		errs = append(errs, fmt.Errorf("backend.provider %q is not supported", c.Backend.Provider))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry.max_attempts must be at least 1"))
	}
	if c.Retry.InitialBackoff < 0 || c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		errs = append(errs, errors.New("retry backoff bounds are inconsistent"))
	}
	if c.Retry.Multiplier < 1 {
		errs = append(errs, errors.New("retry.multiplier must be at least 1"))
	}

	if len(c.Game.Roster) == 0 {
		errs = append(errs, errors.New("game.roster must not be empty"))
	} else if !contains(c.Game.Roster, c.Agent.Name) {
		errs = append(errs, fmt.Errorf("game.roster does not include agent %q", c.Agent.Name))
	}
	if c.Game.EliminatorCount < 0 || c.Game.EliminatorCount > len(c.Game.Roster) {
		errs = append(errs, fmt.Errorf("game.eliminator_count %d outside [0, %d]", c.Game.EliminatorCount, len(c.Game.Roster)))
	}
	if c.Game.PublicChannel == "" || c.Game.PrivateChannel == "" || c.Game.Moderator == "" {
		errs = append(errs, errors.New("game channels and moderator must be set"))
	}
	if c.Game.PublicChannel == c.Game.PrivateChannel {
		errs = append(errs, errors.New("game.public_channel and game.private_channel must differ"))
	}

	if _, err := c.FallbackRole(); err != nil {
		errs = append(errs, err)
	}
	if _, err := strategy.ParsePersona(c.Policy.VillagerPersona); err != nil {
		errs = append(errs, err)
	}

	switch c.Archive.Backend {
	case "", "none", "memory":
	case "mongo":
		if c.Archive.MongoURI == "" {
			errs = append(errs, errors.New("archive.mongodb_uri is required for the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("archive.backend %q is not supported", c.Archive.Backend))
	}

	switch c.Logging.Backend {
	case "", "slog", "zap":
	default:
		errs = append(errs, fmt.Errorf("logging.backend %q is not supported", c.Logging.Backend))
	}

	return errors.Join(errs...)
}

// TransportURL returns the websocket URL for this agent.
func (c *Config) TransportURL() string {
	return strings.ReplaceAll(c.Transport.URL, "{agent}", url.PathEscape(c.Agent.Name))
}

// FallbackRole parses policy.fallback_role.
func (c *Config) FallbackRole() (core.Role, error) {
	r, err := core.ParseRole(c.Policy.FallbackRole)
	if err != nil {
		return core.RoleUnset, fmt.Errorf("policy.fallback_role: %w", err)
	}
	return r, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
