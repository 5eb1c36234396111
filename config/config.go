package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SiteProfile describes where items live on the watched site.
// Everything here is site-specific; the watcher itself never hardcodes it.
type SiteProfile struct {
	Site struct {
		ItemPath      string `yaml:"item_path"`
		DigestHeading string `yaml:"digest_heading"`
		ProductsJSON  struct {
			Enabled  bool `yaml:"enabled"`
			PageSize int  `yaml:"page_size"`
			MaxPages int  `yaml:"max_pages"`
		} `yaml:"products_json"`
		AtomFeed struct {
			Enabled bool `yaml:"enabled"`
		} `yaml:"atom_feed"`
	} `yaml:"site"`
}

// LoadConfig loads a site profile from a YAML file.
// Fields missing from the file keep their default values.
func LoadConfig(path string) (*SiteProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	profile := GetDefaultConfig()
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}

	if err := profile.validate(); err != nil {
		return nil, err
	}

	return profile, nil
}

// GetDefaultConfig returns the profile of a Shopify-style storefront
func GetDefaultConfig() *SiteProfile {
	profile := &SiteProfile{}
	profile.Site.ItemPath = "/products/"
	profile.Site.ProductsJSON.Enabled = true
	profile.Site.ProductsJSON.PageSize = 250
	profile.Site.ProductsJSON.MaxPages = 5
	profile.Site.AtomFeed.Enabled = false
	return profile
}

func (p *SiteProfile) validate() error {
	if p.Site.ItemPath == "" || p.Site.ItemPath == "/" {
		return fmt.Errorf("invalid profile: item_path must name a path segment, got %q", p.Site.ItemPath)
	}
	if p.Site.ProductsJSON.PageSize <= 0 {
		p.Site.ProductsJSON.PageSize = 250
	}
	if p.Site.ProductsJSON.MaxPages <= 0 {
		p.Site.ProductsJSON.MaxPages = 1
	}
	return nil
}
