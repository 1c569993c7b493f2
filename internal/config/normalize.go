package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAdmin(); err != nil {
		return err
	}
	c.normalizeExport()
	c.normalizeVoice()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAdmin() error {
	c.Admin.UserID = strings.TrimSpace(c.Admin.UserID)
	if c.Admin.UserID == "" {
		if value, ok := os.LookupEnv("PUNCHOUT_USER_ID"); ok {
			c.Admin.UserID = strings.TrimSpace(value)
		}
	}
	c.Admin.HovedOrdre = strings.TrimSpace(c.Admin.HovedOrdre)
	if c.Admin.HovedOrdre == "" {
		c.Admin.HovedOrdre = defaultHovedOrdre
	}
	c.Admin.Lonnskoder = trimList(c.Admin.Lonnskoder, strings.ToUpper)
	if len(c.Admin.Lonnskoder) == 0 {
		c.Admin.Lonnskoder = defaultLonnskoder()
	}
	c.Admin.Vehicles = trimList(c.Admin.Vehicles, nil)
	c.Admin.AvailablePreDaySchemas = trimList(c.Admin.AvailablePreDaySchemas, strings.ToLower)
	c.Admin.RUHTriggerTypes = trimList(c.Admin.RUHTriggerTypes, strings.ToLower)
	c.Admin.ImmediateConfirmTypes = trimList(c.Admin.ImmediateConfirmTypes, strings.ToLower)
	c.Admin.EndOfDayConfirmTypes = trimList(c.Admin.EndOfDayConfirmTypes, strings.ToLower)
	c.Admin.NoteConversionTargets = trimList(c.Admin.NoteConversionTargets, strings.ToLower)
	for i := range c.Admin.RequiredSchemas {
		c.Admin.RequiredSchemas[i].Schema = strings.ToLower(strings.TrimSpace(c.Admin.RequiredSchemas[i].Schema))
	}
	for i := range c.Admin.ConditionalSchemas {
		cs := &c.Admin.ConditionalSchemas[i]
		cs.Schema = strings.ToLower(strings.TrimSpace(cs.Schema))
		cs.YesSchema = strings.ToLower(strings.TrimSpace(cs.YesSchema))
		cs.NoSchema = strings.ToLower(strings.TrimSpace(cs.NoSchema))
		cs.Question = strings.TrimSpace(cs.Question)
	}
	for i := range c.Admin.ExternalSystems {
		sys := &c.Admin.ExternalSystems[i]
		sys.ID = strings.ToLower(strings.TrimSpace(sys.ID))
		sys.BaseURL = strings.TrimRight(strings.TrimSpace(sys.BaseURL), "/")
		sys.Instructions = strings.TrimSpace(sys.Instructions)
	}
	if strings.TrimSpace(c.Admin.RulesFile) != "" {
		expanded, err := expandPath(strings.TrimSpace(c.Admin.RulesFile))
		if err != nil {
			return fmt.Errorf("admin.rules_file: %w", err)
		}
		c.Admin.RulesFile = expanded
	}
	return nil
}

func (c *Config) normalizeExport() {
	c.Export.Endpoint = strings.TrimSpace(c.Export.Endpoint)
	c.Export.HMACSecret = strings.TrimSpace(c.Export.HMACSecret)
	if c.Export.HMACSecret == "" {
		if value, ok := os.LookupEnv("PUNCHOUT_EXPORT_SECRET"); ok {
			c.Export.HMACSecret = strings.TrimSpace(value)
		}
	}
	c.Export.BearerToken = strings.TrimSpace(c.Export.BearerToken)
	if c.Export.BearerToken == "" {
		if value, ok := os.LookupEnv("PUNCHOUT_EXPORT_TOKEN"); ok {
			c.Export.BearerToken = strings.TrimSpace(value)
		}
	}
	c.Export.TokenURL = strings.TrimSpace(c.Export.TokenURL)
	c.Export.ClientID = strings.TrimSpace(c.Export.ClientID)
	c.Export.ClientSecret = strings.TrimSpace(c.Export.ClientSecret)
	c.Export.Scopes = trimList(c.Export.Scopes, nil)
	if c.Export.RequestTimeout <= 0 {
		c.Export.RequestTimeout = defaultExportTimeout
	}
	if c.Export.SyncInterval <= 0 {
		c.Export.SyncInterval = defaultSyncInterval
	}
	if c.Export.StuckAfter <= 0 {
		c.Export.StuckAfter = defaultStuckAfter
	}
	if c.Export.WarnQueueSize <= 0 {
		c.Export.WarnQueueSize = defaultWarnQueueSize
	}
	if c.Export.BaseBackoff <= 0 {
		c.Export.BaseBackoff = defaultBaseBackoff
	}
	if c.Export.MaxBackoff <= 0 {
		c.Export.MaxBackoff = defaultMaxBackoff
	}
}

func (c *Config) normalizeVoice() {
	c.Voice.Language = strings.TrimSpace(c.Voice.Language)
	if c.Voice.Language == "" {
		c.Voice.Language = defaultVoiceLanguage
	}
	if c.Voice.SessionTimeoutMS <= 0 {
		c.Voice.SessionTimeoutMS = defaultVoiceSessionTimeout
	}
	if c.Voice.ErrorClearMS <= 0 {
		c.Voice.ErrorClearMS = defaultVoiceErrorClear
	}
	if c.Voice.MinSilenceMS <= 0 {
		c.Voice.MinSilenceMS = defaultVoiceMinSilence
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func trimList(values []string, transform func(string) string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if transform != nil {
			value = transform(value)
		}
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
