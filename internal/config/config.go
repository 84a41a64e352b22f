package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wegman-software/lanelet2tiles/internal/markup"
	"github.com/wegman-software/lanelet2tiles/internal/proj"
)

// Planar offset added to local_x/local_y before reprojection
const (
	DefaultOffsetX = 282620.554469862079713
	DefaultOffsetY = 2765568.859902452211827
)

// Offset is a planar translation in source units
type Offset struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// String returns the offset in x,y format
func (o Offset) String() string {
	return strconv.FormatFloat(o.X, 'f', -1, 64) + "," + strconv.FormatFloat(o.Y, 'f', -1, 64)
}

// Set implements pflag.Value
func (o *Offset) Set(s string) error {
	v, err := ParseOffset(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Type implements pflag.Value
func (o *Offset) Type() string {
	return "x,y"
}

// ParseOffset parses an offset string in format "x,y"
func ParseOffset(s string) (Offset, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Offset{}, fmt.Errorf("offset must have 2 values: x,y")
	}

	var v [2]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Offset{}, fmt.Errorf("invalid offset value %q: %w", p, err)
		}
		v[i] = f
	}
	return Offset{X: v[0], Y: v[1]}, nil
}

// Config holds the configuration for one conversion run
type Config struct {
	// Input settings
	InputFile  string `yaml:"input"`
	Reader     string `yaml:"reader"`     // snippet or xml
	Projection int    `yaml:"projection"` // Source SRID of local_x/local_y
	Offset     Offset `yaml:"offset"`

	// Output settings
	OutputDir   string `yaml:"output"`
	SchemaLimit int    `yaml:"schema_limit"`
	Parquet     bool   `yaml:"parquet"`
	StyleFile   string `yaml:"style"`  // Path to style YAML file for tag filtering
	ScriptFile  string `yaml:"script"` // Path to Lua hook script

	// Tile settings
	MinZoom  int     `yaml:"min_zoom"`
	MaxZoom  int     `yaml:"max_zoom"`
	Buffer   int     `yaml:"buffer"`
	Extent   int     `yaml:"extent"`
	TileExt  string  `yaml:"tile_ext"`
	Gzip     bool    `yaml:"gzip"`
	Simplify float64 `yaml:"simplify"`
	TileList bool    `yaml:"tile_list"`

	// Database settings
	DBHost        string `yaml:"db_host"`
	DBPort        int    `yaml:"db_port"`
	DBName        string `yaml:"db_name"`
	DBUser        string `yaml:"db_user"`
	DBPassword    string `yaml:"db_password"`
	DBSchema      string `yaml:"db_schema"`
	DropExisting  bool   `yaml:"drop_existing"`
	CreateIndexes bool   `yaml:"create_indexes"`

	// Processing settings
	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`

	// Logging and metrics
	Verbose         bool          `yaml:"verbose"`
	LogFile         string        `yaml:"log_file"` // Path to log file (empty = no file logging)
	MetricsInterval time.Duration `yaml:"metrics_interval"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Reader:          string(markup.ReaderSnippet),
		Projection:      proj.SRID3826,
		Offset:          Offset{X: DefaultOffsetX, Y: DefaultOffsetY},
		OutputDir:       "./source",
		SchemaLimit:     20,
		MinZoom:         18,
		MaxZoom:         22,
		Buffer:          64,
		Extent:          4096,
		TileExt:         "pbf",
		DBHost:          "localhost",
		DBPort:          5432,
		DBName:          "lanelet",
		DBUser:          "postgres",
		DBSchema:        "public",
		CreateIndexes:   true,
		Workers:         runtime.NumCPU(),
		BatchSize:       10000,
		MetricsInterval: 0, // System metrics logging off unless requested
	}
}

// Load reads a YAML file over the defaults
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if err := cfg.Overlay(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Overlay reads a YAML file over the current values; absent keys are kept
func (c *Config) Overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string
func (c *Config) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBName, c.DBUser,
	)
	if c.DBPassword != "" {
		connStr += fmt.Sprintf(" password=%s", c.DBPassword)
	}
	return connStr
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := markup.ParseReader(c.Reader); err != nil {
		return err
	}
	if _, err := proj.NewTransformer(c.Projection, proj.SRID4326); err != nil {
		return err
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.MinZoom < 0 || c.MaxZoom > 30 {
		return fmt.Errorf("zoom levels must be within 0..30")
	}
	if c.MinZoom > c.MaxZoom {
		return fmt.Errorf("min zoom (%d) must be <= max zoom (%d)", c.MinZoom, c.MaxZoom)
	}
	if c.Buffer < 0 {
		return fmt.Errorf("buffer must not be negative")
	}
	if c.Extent < 1 {
		return fmt.Errorf("extent must be positive")
	}
	if c.SchemaLimit < 0 {
		return fmt.Errorf("schema limit must not be negative")
	}
	if c.Simplify < 0 {
		return fmt.Errorf("simplify tolerance must not be negative")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1")
	}
	return nil
}

// RequireInput checks that an input file is configured and exists
func (c *Config) RequireInput() error {
	if c.InputFile == "" {
		return fmt.Errorf("input file is required")
	}
	if _, err := os.Stat(c.InputFile); err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	return nil
}
