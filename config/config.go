package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rafabd1/LPParser/core/extractor"
	"github.com/rafabd1/LPParser/utils"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the config file is looked up when no path is given
const DefaultConfigPath = "config/config.yml"

// Offset controls the numbered variants generated for each day
type Offset struct {
	Enabled bool `yaml:"offset"`
	Value   int  `yaml:"value"`
}

// ReleaseDate restricts processing to pages published in the given years
type ReleaseDate struct {
	Enabled bool  `yaml:"release_date"`
	Years   []int `yaml:"years"`
}

// AdvancedOptions overrides the extraction patterns
type AdvancedOptions struct {
	LoginRegex    string `yaml:"login_regex"`
	PasswordRegex string `yaml:"password_regex"`
}

// HTTPOptions holds HTTP client configuration
type HTTPOptions struct {
	Timeout     int      `yaml:"timeout"`
	MaxRetries  int      `yaml:"retries"`
	Concurrency int      `yaml:"concurrency"`
	RateLimit   int      `yaml:"rate_limit"`
	UserAgent   string   `yaml:"user_agent"`
	Insecure    bool     `yaml:"insecure"`
	Headers     []string `yaml:"headers,omitempty"`
}

// Configuration holds all configuration parameters for the application
type Configuration struct {
	Offset      Offset          `yaml:"offset"`
	ReleaseDate ReleaseDate     `yaml:"release_date"`
	Websites    []string        `yaml:"websites"`
	Exceptions  []string        `yaml:"exceptions"`
	Advanced    AdvancedOptions `yaml:"for_advanced_users"`
	HTTP        HTTPOptions     `yaml:"http"`

	// LaunchTime anchors release year validation and month totals
	LaunchTime time.Time `yaml:"-"`
}

// Default returns the configuration used for anything the file leaves out
func Default() Configuration {
	return Configuration{
		Advanced: AdvancedOptions{
			LoginRegex:    extractor.DefaultLoginPattern,
			PasswordRegex: extractor.DefaultPasswordPattern,
		},
		HTTP: HTTPOptions{
			Timeout:     10,
			MaxRetries:  2,
			Concurrency: 100,
			RateLimit:   0,
			UserAgent:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		},
		LaunchTime: time.Now(),
	}
}

// LoadConfig loads and validates configuration from a YAML file
func LoadConfig(configFile string, launchTime time.Time) (*Configuration, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: configFile}
		}
		return nil, utils.NewError(utils.ConfigError, "failed to read config file", err)
	}

	return ParseConfig(data, launchTime)
}

// ParseConfig decodes and validates YAML configuration
func ParseConfig(data []byte, launchTime time.Time) (*Configuration, error) {
	cfg := Default()
	cfg.LaunchTime = launchTime

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &MalformedError{Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

/*
   Validates the configuration and normalizes derived values:
   a disabled offset counts as 1, a disabled release filter drops its years
*/
func (c *Configuration) Validate() error {
	if !c.Offset.Enabled {
		c.Offset.Value = 1
	} else if c.Offset.Value < 2 {
		return &InvalidOffsetError{Value: c.Offset.Value}
	}

	if !c.ReleaseDate.Enabled {
		c.ReleaseDate.Years = nil
	} else {
		if len(c.ReleaseDate.Years) == 0 {
			return &InvalidReleaseDateError{Years: c.ReleaseDate.Years}
		}
		for _, year := range c.ReleaseDate.Years {
			if year < 0 || year > c.LaunchTime.Year() {
				return &InvalidReleaseDateError{Years: c.ReleaseDate.Years}
			}
		}
	}

	if len(c.Websites) == 0 {
		return &InvalidWebsiteError{URL: ""}
	}
	for i, website := range c.Websites {
		if !utils.IsValidURL(website) {
			return &InvalidWebsiteError{URL: website}
		}
		c.Websites[i] = utils.SanitizeURL(website)
	}

	if c.Advanced.LoginRegex == "" {
		c.Advanced.LoginRegex = extractor.DefaultLoginPattern
	}
	if c.Advanced.PasswordRegex == "" {
		c.Advanced.PasswordRegex = extractor.DefaultPasswordPattern
	}
	for _, pattern := range []string{c.Advanced.LoginRegex, c.Advanced.PasswordRegex} {
		if _, err := regexp.Compile(pattern); err != nil {
			return &InvalidRegexError{Pattern: pattern, Err: err}
		}
	}

	if c.HTTP.Concurrency <= 0 {
		c.HTTP.Concurrency = 1
	}
	if c.HTTP.Timeout <= 0 {
		return utils.NewError(utils.ConfigError, fmt.Sprintf("invalid HTTP timeout: %d", c.HTTP.Timeout), nil)
	}

	return nil
}

// Extractor builds the credential extractor from the configured patterns
func (c *Configuration) Extractor() (*extractor.Extractor, error) {
	return extractor.New(c.Advanced.LoginRegex, c.Advanced.PasswordRegex)
}

// ExceptionSet returns the configured exceptions as a set
func (c *Configuration) ExceptionSet() extractor.ExceptionSet {
	return extractor.NewExceptionSet(c.Exceptions)
}

// AcceptsYear reports whether pages from year pass the release filter
func (c *Configuration) AcceptsYear(year int) bool {
	if !c.ReleaseDate.Enabled {
		return true
	}
	for _, y := range c.ReleaseDate.Years {
		if y == year {
			return true
		}
	}
	return false
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Configuration, configFile string) error {
	dir := filepath.Dir(configFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configFile, data, 0644)
}
