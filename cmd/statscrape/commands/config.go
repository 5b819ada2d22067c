package commands

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/jmylchreest/statscrape/internal/output"
	"github.com/jmylchreest/statscrape/internal/table"
	"github.com/jmylchreest/statscrape/pkg/browser"
)

// settings is everything a run needs, resolved once from flags, environment
// and config file.
type settings struct {
	URL     string
	Output  string
	Format  output.Format
	Browser browser.Config
	Table   table.Config
}

// loadSettings builds and validates the run settings from v. Selector and
// timing overrides live under the "table" key of the config file; the
// pagination flags take precedence over it.
func loadSettings(v *viper.Viper) (settings, error) {
	format, err := output.ParseFormat(v.GetString("format"))
	if err != nil {
		return settings{}, err
	}

	s := settings{
		URL:    v.GetString("url"),
		Output: v.GetString("output"),
		Format: format,
		Browser: browser.Config{
			Backend:       v.GetString("backend"),
			APIKey:        v.GetString("api_key"),
			ProjectID:     v.GetString("project_id"),
			ModelEndpoint: v.GetString("model_endpoint"),
			BrokerURL:     v.GetString("broker_url"),
			Headless:      v.GetBool("headless"),
			Stealth:       v.GetBool("stealth"),
			ChromePath:    v.GetString("chrome_path"),
			ProxyURL:      v.GetString("proxy"),
			UserAgent:     v.GetString("user_agent"),
			Timeout:       v.GetDuration("timeout"),
		},
		Table: table.DefaultConfig(),
	}
	if s.URL == "" {
		return settings{}, fmt.Errorf("a target URL is required")
	}
	if s.Output == "" {
		return settings{}, fmt.Errorf("an output path is required")
	}
	if s.Format == "" {
		s.Format = output.FormatFromPath(s.Output)
	}

	if v.IsSet("table") {
		if err := v.UnmarshalKey("table", &s.Table); err != nil {
			return settings{}, fmt.Errorf("invalid table config: %w", err)
		}
	}
	if v.IsSet("max_pages") {
		s.Table.MaxPages = v.GetInt("max_pages")
	}
	if v.IsSet("page_interval") {
		s.Table.PageInterval = v.GetDuration("page_interval")
	}

	if err := s.Browser.Validate(); err != nil {
		return settings{}, err
	}
	if err := s.Table.Validate(); err != nil {
		return settings{}, err
	}
	return s, nil
}
