package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the arena.
type Config struct {
	// API configuration for the LLM backing the agents
	API APIConfig `yaml:"api"`

	// Arena economy and round configuration
	Arena ArenaConfig `yaml:"arena"`

	// Politics configuration
	Politics PoliticsConfig `yaml:"politics"`

	// Duel configuration
	Duel DuelConfig `yaml:"duel"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Agents competing this season
	Agents []AgentConfig `yaml:"agents"`
}

// APIConfig holds LLM endpoint configuration.
type APIConfig struct {
	// Base URL of an OpenAI-compatible chat endpoint (e.g. Ollama)
	BaseURL string `yaml:"base_url"`

	// Model identifier
	Model string `yaml:"model"`

	// Environment variable holding the API key, empty for local endpoints
	APIKeyEnv string `yaml:"api_key_env"`

	// Per-call timeout in seconds
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Bounded retries per call
	MaxRetries int `yaml:"max_retries"`

	// Sampling temperature
	Temperature float64 `yaml:"temperature"`

	// Response token cap
	MaxTokens int `yaml:"max_tokens"`
}

// ArenaConfig holds economy and round configuration.
type ArenaConfig struct {
	// Total token supply minted at season start
	TotalTokens int `yaml:"total_tokens"`

	// Starting tokens per agent when not set per agent
	InitialTokens int `yaml:"initial_tokens"`

	// Physical CPU cores backing the share pool
	CPUCores int `yaml:"cpu_cores"`

	// Shares one core is divided into
	SharesPerCore int `yaml:"shares_per_core"`

	// CPU shares are priced per block
	CPUShareBlock int `yaml:"cpu_share_block"`

	// Token price of one block of shares
	CPUBlockPrice int `yaml:"cpu_block_price"`

	// Number of GPU slots
	GPUSlots int `yaml:"gpu_slots"`

	// Token price of one GPU slot lease
	GPUSlotPrice int `yaml:"gpu_slot_price"`

	// Rounds in a season
	RoundsPerSeason int `yaml:"rounds_per_season"`

	// Base token reward scaled by challenge score
	BaseReward int `yaml:"base_reward"`

	// No duel is held while this many or fewer agents live
	EliminationFloor int `yaml:"elimination_floor"`

	// Rounds with elimination disabled (1-based round numbers)
	NonEliminationRounds []int `yaml:"non_elimination_rounds"`

	// Probability of a drama event per round (0-100)
	DramaProbability int `yaml:"drama_probability"`
}

// PoliticsConfig holds coup and alliance configuration.
type PoliticsConfig struct {
	// Fraction of living supply a coup must strictly exceed
	CoupThreshold float64 `yaml:"coup_threshold"`

	// Forfeit pledges when a coup fails
	PledgeLossOnFailure bool `yaml:"pledge_loss_on_failure"`
}

// DuelConfig weights the elimination duel composite.
type DuelConfig struct {
	// Weight of normalized token balance
	TokenWeight float64 `yaml:"token_weight"`

	// Weight of round score
	ScoreWeight float64 `yaml:"score_weight"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	// Directory for state files and the history database
	DataDir string `yaml:"data_dir"`

	// Number of save slots
	MaxSlots int `yaml:"max_slots"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Server port
	Port string `yaml:"port"`

	// Log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
}

// AgentConfig describes one competitor.
type AgentConfig struct {
	Name          string `yaml:"name"`
	Personality   string `yaml:"personality"`
	InitialTokens int    `yaml:"initial_tokens"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:        "http://localhost:11434/v1",
			Model:          "llama3.1:8b",
			APIKeyEnv:      "",
			TimeoutSeconds: 60,
			MaxRetries:     3,
			Temperature:    0.8,
			MaxTokens:      1024,
		},
		Arena: ArenaConfig{
			TotalTokens:      120,
			InitialTokens:    20,
			CPUCores:         2,
			SharesPerCore:    50,
			CPUShareBlock:    10,
			CPUBlockPrice:    5,
			GPUSlots:         3,
			GPUSlotPrice:     15,
			RoundsPerSeason:  10,
			BaseReward:       14,
			EliminationFloor: 3,
			DramaProbability: 30,
		},
		Politics: PoliticsConfig{
			CoupThreshold:       0.51,
			PledgeLossOnFailure: false,
		},
		Duel: DuelConfig{
			TokenWeight: 0.3,
			ScoreWeight: 0.7,
		},
		Storage: StorageConfig{
			DataDir:  "./data",
			MaxSlots: 3,
		},
		Server: ServerConfig{
			Port:     "8080",
			LogLevel: "info",
		},
		Agents: []AgentConfig{
			{Name: "Bourguiba", Personality: "tyrant", InitialTokens: 20},
			{Name: "Jester", Personality: "chaotic", InitialTokens: 20},
			{Name: "Machina", Personality: "strategic", InitialTokens: 20},
			{Name: "Turncoat", Personality: "opportunist", InitialTokens: 20},
			{Name: "Joker", Personality: "wildcard", InitialTokens: 20},
			{Name: "Sage", Personality: "rational", InitialTokens: 20},
		},
	}
}

// LoadConfig loads configuration from a file, creating it with defaults
// when missing.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return config, err
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(config, path); err != nil {
			return config, err
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, err
	}

	return config, nil
}

// SaveConfig saves configuration to a file.
func SaveConfig(config Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
