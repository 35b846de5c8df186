package catalog

// Package catalog provides catalog seed file parsing functionality.

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type SeedConfig struct {
	Categories     []CategoryConfig `yaml:"categories"`
	Sizes          []string         `yaml:"sizes"`
	Colors         []string         `yaml:"colors"`
	CustomerImages []string         `yaml:"customer_images"`
	CustomerColors []string         `yaml:"customer_colors"`
	Products       []ProductConfig  `yaml:"products"`
}

type CategoryConfig struct {
	Name     string `yaml:"name"`
	Slug     string `yaml:"slug"`
	Image    string `yaml:"image"`
	Featured bool   `yaml:"featured"`
}

type ProductConfig struct {
	Name              string        `yaml:"name"`
	Slug              string        `yaml:"slug"`
	Description       string        `yaml:"description"`
	ExtraInfo         string        `yaml:"extra_info"`
	Image             string        `yaml:"image"`
	AllowsCustomImage bool          `yaml:"allows_custom_image"`
	AllowsCustomColor bool          `yaml:"allows_custom_color"`
	Featured          bool          `yaml:"featured"`
	MinOrder          int           `yaml:"min_order"`
	Categories        []string      `yaml:"categories"`
	Sizes             []string      `yaml:"sizes"`
	Colors            []string      `yaml:"colors"`
	Related           []string      `yaml:"related"`
	Prices            []PriceConfig `yaml:"prices"`
}

type PriceConfig struct {
	Amount      string `yaml:"amount"`
	MinQuantity int    `yaml:"min_quantity"`
	MaxQuantity int    `yaml:"max_quantity"`
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(content []byte) (*SeedConfig, error) {
	var config SeedConfig
	if err := yaml.Unmarshal(content, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.normalize()
	return &config, nil
}

func (p *Parser) ParseFromString(content string) (*SeedConfig, error) {
	return p.Parse([]byte(content))
}

func (p *Parser) ParseFile(path string) (*SeedConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog seed file: %w", err)
	}
	return p.Parse(content)
}

// normalize derives missing slugs and defaults.
func (c *SeedConfig) normalize() {
	for i := range c.Categories {
		if c.Categories[i].Slug == "" {
			c.Categories[i].Slug = Slugify(c.Categories[i].Name)
		}
	}
	for i := range c.Products {
		if c.Products[i].Slug == "" {
			c.Products[i].Slug = Slugify(c.Products[i].Name)
		}
		if c.Products[i].MinOrder == 0 {
			c.Products[i].MinOrder = 1
		}
	}
}
