package config

const (
	defaultDataDir             = "~/.local/share/punchout"
	defaultLogDir              = "~/.local/share/punchout/logs"
	defaultLogRetentionDays    = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultHovedOrdre          = "HOVED"
	defaultExportTimeout       = 10
	defaultSyncInterval        = 60
	defaultMaxRetries          = 10
	defaultStuckAfter          = 120
	defaultSentRetentionDays   = 7
	defaultWarnQueueSize       = 30
	defaultBaseBackoff         = 30
	defaultMaxBackoff          = 3600
	defaultVoiceLanguage       = "nb-NO"
	defaultVoiceSessionTimeout = 15000
	defaultVoiceErrorClear     = 3000
	defaultVoiceMinSilence     = 1500
)

func defaultLonnskoder() []string {
	return []string{"ORD", "OT50", "OT100", "NATT"}
}

func defaultAdmin() Admin {
	return Admin{
		HovedOrdre:             defaultHovedOrdre,
		Lonnskoder:             defaultLonnskoder(),
		AvailablePreDaySchemas: []string{"sja_preday", "kjoretoyssjekk"},
		RUHTriggerTypes:        []string{"hendelse"},
		ImmediateConfirmTypes:  []string{"vaktlogg"},
		EndOfDayConfirmTypes:   []string{"friksjon"},
		NoteConversionTargets:  []string{"loggbok_kjoretoy", "forbedringsforslag", "kvalitetsavvik", "huskelapp"},
		ExternalSystems: []ExternalSystem{
			{ID: "elrapp", BaseURL: "https://elrapp.example.com", Instructions: "Finn riktig ordre i oversiktslisten"},
			{ID: "linx", BaseURL: "https://linx.example.com", Instructions: "Logg inn og registrer kjøretøy"},
		},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Admin: defaultAdmin(),
		Export: Export{
			RequestTimeout: defaultExportTimeout,
			SyncInterval:   defaultSyncInterval,
			MaxRetries:     defaultMaxRetries,
			StuckAfter:     defaultStuckAfter,
			RetentionDays:  defaultSentRetentionDays,
			WarnQueueSize:  defaultWarnQueueSize,
			BaseBackoff:    defaultBaseBackoff,
			MaxBackoff:     defaultMaxBackoff,
		},
		Voice: Voice{
			Language:         defaultVoiceLanguage,
			SessionTimeoutMS: defaultVoiceSessionTimeout,
			ErrorClearMS:     defaultVoiceErrorClear,
			MinSilenceMS:     defaultVoiceMinSilence,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
