package config

import "maps"

// SiteConfig holds crawl settings for a single host.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent to this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers sent to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global crawl depth. Zero keeps the global value.
	Depth int `yaml:"depth,omitempty"`

	// MaxPages overrides the global page limit. Zero keeps the global value.
	MaxPages int `yaml:"maxPages,omitempty"`

	// IgnorePatterns are URL path globs skipped during crawling.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict crawling to matching URL paths when set.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`

	// SiteName is the site name expected in this site's page titles.
	SiteName string `yaml:"siteName,omitempty"`
}

// File represents the structure of the .a11yscan configuration file.
type File struct {
	// Sites maps host names (e.g. "www.example.com") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// ReportModes maps checker families to "per-element" or "aggregate".
	ReportModes map[string]string `yaml:"reportModes,omitempty"`

	// Skip lists checker names that never run.
	Skip []string `yaml:"skip,omitempty"`

	// ImagesDir holds downloaded images for image checks.
	ImagesDir string `yaml:"imagesDir,omitempty"`
}

// GetSiteConfig returns the configuration for host merged with defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if cf.Defaults.Headers != nil {
		result.Headers = maps.Clone(cf.Defaults.Headers)
	}

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.Depth != 0 {
		result.Depth = siteConfig.Depth
	}
	if siteConfig.MaxPages != 0 {
		result.MaxPages = siteConfig.MaxPages
	}
	if siteConfig.SiteName != "" {
		result.SiteName = siteConfig.SiteName
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}
	return result
}
