package config

import (
	_ "embed"
	"fmt"
	"os"

	"tslaglobal/backend/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the seed data of a fresh exchange
type Catalog struct {
	FeaturedToken  model.CustomTokenConfig `yaml:"featured_token"`
	Rigs           []model.MiningRig       `yaml:"rigs"`
	Settings       model.SystemSettings    `yaml:"settings"`
	News           []model.NewsItem        `yaml:"news"`
	FallbackMarket []model.CoinData        `yaml:"fallback_market"`
}

// DefaultCatalog parses the embedded catalog
func DefaultCatalog() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(defaultCatalog, &c); err != nil {
		return nil, fmt.Errorf("failed to parse embedded catalog: %w", err)
	}
	return &c, nil
}

// LoadCatalog returns the embedded catalog overlaid with the YAML file at
// path. An empty path yields the embedded catalog.
func LoadCatalog(path string) (*Catalog, error) {
	c, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	if override.FeaturedToken.Symbol != "" {
		c.FeaturedToken = override.FeaturedToken
	}
	if len(override.Rigs) > 0 {
		c.Rigs = override.Rigs
	}
	if override.Settings != (model.SystemSettings{}) {
		c.Settings = override.Settings
	}
	if len(override.News) > 0 {
		c.News = override.News
	}
	if len(override.FallbackMarket) > 0 {
		c.FallbackMarket = override.FallbackMarket
	}

	return c, c.validate()
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool, len(c.Rigs))
	for _, r := range c.Rigs {
		if r.ID == "" || seen[r.ID] {
			return fmt.Errorf("catalog rig ids must be unique and non-empty (got %q)", r.ID)
		}
		seen[r.ID] = true
		if !r.Hashrate.IsPositive() || r.Cost.IsNegative() {
			return fmt.Errorf("catalog rig %s has invalid hashrate or cost", r.ID)
		}
	}
	if !c.FeaturedToken.Price.IsPositive() {
		return fmt.Errorf("catalog featured token %s needs a positive price", c.FeaturedToken.Symbol)
	}
	return nil
}
