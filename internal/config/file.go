
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"sitescribe/internal/discovery"
	"sitescribe/internal/models"
)

// FileConfig is the structure of the YAML config file.
//
//	user_agent: "Mozilla/5.0 ..."
//	delay: 2.5
//	max_depth: 3
//	hosts:
//	  - host: example.com
//	    candidates:
//	      - url: /news-sitemap.xml
//	      - url: /archive/
//	        format: html
//	    fallback: /all-posts/
type FileConfig struct {
	UserAgent string       `yaml:"user_agent"`
	Delay     *float64     `yaml:"delay"`
	MaxDepth  int          `yaml:"max_depth"`
	Hosts     []HostConfig `yaml:"hosts"`
}

type HostConfig struct {
	Host       string            `yaml:"host"`
	Candidates []CandidateConfig `yaml:"candidates"`
	Fallback   string            `yaml:"fallback"`
}

type CandidateConfig struct {
	URL    string `yaml:"url"`
	Format string `yaml:"format"`
}

// LoadFile reads a YAML config file. Returns nil if the file doesn't exist
// (not an error). Returns error if the file exists but cannot be parsed.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if fc.Delay != nil && *fc.Delay < 0 {
		return nil, fmt.Errorf("invalid config file: delay must not be negative")
	}
	return &fc, nil
}

// HostRules validates the hosts section and converts it to discovery rules.
func (fc *FileConfig) HostRules() ([]discovery.HostRule, error) {
	if fc == nil {
		return nil, nil
	}
	rules := make([]discovery.HostRule, 0, len(fc.Hosts))
	for i, h := range fc.Hosts {
		host := strings.TrimSpace(h.Host)
		if host == "" {
			return nil, fmt.Errorf("invalid config file: hosts[%d] has no host", i)
		}
		rule := discovery.HostRule{Host: host, Fallback: strings.TrimSpace(h.Fallback)}
		for j, c := range h.Candidates {
			format, err := parseFormat(c.Format)
			if err != nil {
				return nil, fmt.Errorf("invalid config file: hosts[%d].candidates[%d]: %w", i, j, err)
			}
			if strings.TrimSpace(c.URL) == "" {
				return nil, fmt.Errorf("invalid config file: hosts[%d].candidates[%d] has no url", i, j)
			}
			rule.Candidates = append(rule.Candidates, models.Candidate{URL: strings.TrimSpace(c.URL), Format: format})
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseFormat(s string) (models.Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "auto", "xml", "html":
		return models.ParseFormat(s), nil
	}
	return models.FormatAuto, fmt.Errorf("unknown format %q", s)
}
