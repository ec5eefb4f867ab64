package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/secat/internal/sec"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Scoring Scoring `yaml:"scoring"`
	Output  Output  `yaml:"output"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

// Scoring holds the run parameters of the scoring engine.
type Scoring struct {
	MonomerThresholdFactor float64 `yaml:"monomer_threshold_factor"`
	MonomerElutionWidth    int     `yaml:"monomer_elution_width"`
	MinimumPeptides        int     `yaml:"minimum_peptides"`
	MaximumPeptides        int     `yaml:"maximum_peptides"`
	MinimumOverlap         int     `yaml:"minimum_overlap"`
	MinimumPeptideSNR      float64 `yaml:"minimum_peptide_snr"`
	ChunkSize              int     `yaml:"chunk_size"`
	Workers                int     `yaml:"workers"` // 0 uses every CPU
}

type Output struct {
	DataDir  string `yaml:"data_dir"`
	Database string `yaml:"database"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// ConfigDir returns the XDG config directory for secat.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "secat")
}

// DataDir returns the XDG data directory for secat.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "secat")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/secat/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'secat init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file, then applies SECAT_* overrides
// from the environment and an optional .env file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment variables")
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	d := sec.DefaultParams()
	cfg := &Config{
		Scoring: Scoring{
			MonomerThresholdFactor: d.MonomerThresholdFactor,
			MonomerElutionWidth:    d.MonomerElutionWidth,
			MinimumPeptides:        d.MinimumPeptides,
			MaximumPeptides:        d.MaximumPeptides,
			MinimumOverlap:         d.MinimumOverlap,
			MinimumPeptideSNR:      d.MinimumPeptideSNR,
			ChunkSize:              d.ChunkSize,
		},
		Output:  Output{Database: "secat.db"},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO", Format: "text"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// applyEnv overrides settings from SECAT_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"SECAT_MONOMER_ELUTION_WIDTH": &c.Scoring.MonomerElutionWidth,
		"SECAT_MINIMUM_PEPTIDES":      &c.Scoring.MinimumPeptides,
		"SECAT_MAXIMUM_PEPTIDES":      &c.Scoring.MaximumPeptides,
		"SECAT_MINIMUM_OVERLAP":       &c.Scoring.MinimumOverlap,
		"SECAT_CHUNK_SIZE":            &c.Scoring.ChunkSize,
		"SECAT_WORKERS":               &c.Scoring.Workers,
		"SECAT_PORT":                  &c.Server.Port,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok && v != "" {
			if _, err := fmt.Sscanf(v, "%d", dst); err != nil {
				return fmt.Errorf("parsing %s=%q: %w", key, v, err)
			}
		}
	}

	floats := map[string]*float64{
		"SECAT_MONOMER_THRESHOLD_FACTOR": &c.Scoring.MonomerThresholdFactor,
		"SECAT_MINIMUM_PEPTIDE_SNR":      &c.Scoring.MinimumPeptideSNR,
	}
	for key, dst := range floats {
		if v, ok := lookup(key); ok && v != "" {
			if _, err := fmt.Sscanf(v, "%g", dst); err != nil {
				return fmt.Errorf("parsing %s=%q: %w", key, v, err)
			}
		}
	}

	strs := map[string]*string{
		"SECAT_DATA_DIR":   &c.Output.DataDir,
		"SECAT_DATABASE":   &c.Output.Database,
		"SECAT_LOG_LEVEL":  &c.Logging.Level,
		"SECAT_LOG_FORMAT": &c.Logging.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	return nil
}

// Params converts the scoring section to the immutable run parameters.
func (s Scoring) Params() sec.Params {
	return sec.Params{
		MonomerThresholdFactor: s.MonomerThresholdFactor,
		MonomerElutionWidth:    s.MonomerElutionWidth,
		MinimumPeptides:        s.MinimumPeptides,
		MaximumPeptides:        s.MaximumPeptides,
		MinimumOverlap:         s.MinimumOverlap,
		MinimumPeptideSNR:      s.MinimumPeptideSNR,
		ChunkSize:              s.ChunkSize,
	}
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DatabasePath returns the SQLite file path. Relative names are placed in
// the data directory.
func (c *Config) DatabasePath() string {
	name := c.Output.Database
	if name == "" {
		name = "secat.db"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.GetDataDir(), name)
}

// LogLevel parses the configured level, falling back to info.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(c.Logging.Level))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
