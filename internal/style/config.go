package style

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wegman-software/lanelet2tiles/internal/feature"
)

// Config holds per-layer tag filters
type Config struct {
	Points      *FilterConfig `yaml:"points,omitempty"`
	LineStrings *FilterConfig `yaml:"line_strings,omitempty"`
	Polygons    *FilterConfig `yaml:"polygons,omitempty"`
}

// FilterConfig defines filtering rules for one layer
type FilterConfig struct {
	// Include keeps features with any listed key/value; empty includes everything
	Include map[string][]string `yaml:"include,omitempty"`
	// Exclude drops features with any listed key/value, applied after Include
	Exclude map[string][]string `yaml:"exclude,omitempty"`
	// RequireAny keeps only features carrying at least one of these keys
	RequireAny []string `yaml:"require_any,omitempty"`
	// Properties, when set, limits the exported properties to these keys ("id" is always kept)
	Properties []string `yaml:"properties,omitempty"`
}

// LoadConfig loads a style configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read style file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML style data
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse style YAML: %w", err)
	}
	return &cfg, nil
}

// FilterFor returns the filter configured for a collection kind
func (c *Config) FilterFor(kind feature.Kind) *Filter {
	if c == nil {
		return NewFilter(nil)
	}
	switch kind {
	case feature.PointKind:
		return NewFilter(c.Points)
	case feature.LineStringKind:
		return NewFilter(c.LineStrings)
	case feature.PolygonKind:
		return NewFilter(c.Polygons)
	}
	return NewFilter(nil)
}
