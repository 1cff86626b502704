package config

import (
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

// Settings defines the structure for configuration options
type Settings struct {
	ProcessName        string `yaml:"processName"`
	WindowTitle        string `yaml:"windowTitle"`
	PollIntervalMs     int    `yaml:"pollIntervalMs"`
	ReadErrorThreshold int    `yaml:"readErrorThreshold"`
	SignatureScan      bool   `yaml:"signatureScan"`
	Debug              bool   `yaml:"debug"`
}

// defaultSettings provides default values for settings
var defaultSettings = Settings{
	ProcessName:        "bm2dx.exe",
	WindowTitle:        "beatmania IIDX INFINITAS",
	PollIntervalMs:     100,
	ReadErrorThreshold: 10,
	SignatureScan:      false,
	Debug:              false,
}

// LoadConfig loads settings from a YAML file, creating the file with defaults if it doesn't exist
func LoadConfig(filePath string) (*Settings, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := createDefaultConfig(filePath); err != nil {
			return nil, err
		}
		log.Info().Str("path", filePath).Msg("created default config file")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cfg Settings
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.PollIntervalMs <= 0 {
		cfg.PollIntervalMs = defaultSettings.PollIntervalMs
	}
	if cfg.ReadErrorThreshold <= 0 {
		cfg.ReadErrorThreshold = defaultSettings.ReadErrorThreshold
	}
	return &cfg, nil
}

// createDefaultConfig creates a config file with default settings
func createDefaultConfig(filePath string) error {
	data, err := yaml.Marshal(&defaultSettings)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
