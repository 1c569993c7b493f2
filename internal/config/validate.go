package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"punchout/internal/rules"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAdmin(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAdmin() error {
	if c.Admin.HovedOrdre == "" {
		return errors.New("admin.hovedordre must be set")
	}
	if len(c.Admin.Lonnskoder) == 0 {
		return errors.New("admin.lonnskoder must include at least one wage code")
	}
	for i, req := range c.Admin.RequiredSchemas {
		if req.Schema == "" {
			return fmt.Errorf("admin.required_schemas[%d].schema must be set", i)
		}
		if req.When != nil {
			if err := rules.Validate(*req.When); err != nil {
				return fmt.Errorf("admin.required_schemas[%d].when: %w", i, err)
			}
		}
	}
	for i, cs := range c.Admin.ConditionalSchemas {
		if cs.Schema == "" {
			return fmt.Errorf("admin.conditional_schemas[%d].schema must be set", i)
		}
		if cs.When != nil {
			if err := rules.Validate(*cs.When); err != nil {
				return fmt.Errorf("admin.conditional_schemas[%d].when: %w", i, err)
			}
		}
	}
	seen := make(map[string]struct{}, len(c.Admin.ExternalSystems))
	for i, sys := range c.Admin.ExternalSystems {
		if sys.ID == "" {
			return fmt.Errorf("admin.external_systems[%d].id must be set", i)
		}
		if _, dup := seen[sys.ID]; dup {
			return fmt.Errorf("admin.external_systems[%d].id %q is duplicated", i, sys.ID)
		}
		seen[sys.ID] = struct{}{}
		if err := validateURL(sys.BaseURL); err != nil {
			return fmt.Errorf("admin.external_systems[%d].base_url: %w", i, err)
		}
	}
	return nil
}

func (c *Config) validateExport() error {
	if err := ensurePositiveMap(map[string]int{
		"export.request_timeout": c.Export.RequestTimeout,
		"export.sync_interval":   c.Export.SyncInterval,
		"export.max_retries":     c.Export.MaxRetries,
		"export.stuck_after":     c.Export.StuckAfter,
		"export.base_backoff":    c.Export.BaseBackoff,
		"export.max_backoff":     c.Export.MaxBackoff,
	}); err != nil {
		return err
	}
	if c.Export.RetentionDays < 0 {
		return errors.New("export.retention_days must be >= 0")
	}
	if c.Export.MaxBackoff < c.Export.BaseBackoff {
		return errors.New("export.max_backoff must be >= export.base_backoff")
	}
	if c.Export.Endpoint == "" {
		return nil
	}
	if err := validateURL(c.Export.Endpoint); err != nil {
		return fmt.Errorf("export.endpoint: %w", err)
	}
	hasClientCreds := c.Export.TokenURL != "" || c.Export.ClientID != "" || c.Export.ClientSecret != ""
	if hasClientCreds {
		if c.Export.TokenURL == "" || c.Export.ClientID == "" || c.Export.ClientSecret == "" {
			return errors.New("export.token_url, export.client_id and export.client_secret must be set together")
		}
		if c.Export.BearerToken != "" {
			return errors.New("export.bearer_token cannot be combined with client credentials")
		}
		if err := validateURL(c.Export.TokenURL); err != nil {
			return fmt.Errorf("export.token_url: %w", err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}

func validateURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%q must use http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%q is missing a host", raw)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
