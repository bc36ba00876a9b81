package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath       string `long:"db-path" env:"DB_PATH" default:"./competitionnotify.db" description:"Path to the SQLite database file"`
	RegistryFile string `long:"registry-file" env:"REGISTRY_FILE" default:"./recipients.yml" description:"YAML file with the recipient registry"`
	TemplateFile string `long:"template-file" env:"TEMPLATE_FILE" description:"HTML template for notifications (built-in template when empty)"`

	// Registration API
	APIBaseUrl        string  `long:"api-base-url" env:"API_BASE_URL" default:"https://inschrijven.schaatsen.nl/api" description:"Base URL of the registration API"`
	SiteBaseUrl       string  `long:"site-base-url" env:"SITE_BASE_URL" default:"https://inschrijven.schaatsen.nl" description:"Base URL used for links in notifications"`
	RequestTimeout    int     `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30" description:"HTTP request timeout in seconds"`
	RequestsPerSecond float64 `long:"requests-per-second" env:"REQUESTS_PER_SECOND" default:"5" description:"Maximum request rate towards the registration API"`

	// Scheduling
	DiscoverySchedule string `long:"discovery-schedule" env:"DISCOVERY_SCHEDULE" default:"@every 24h" description:"Cron schedule for competition discovery"`
	JitterMax         int    `long:"jitter-max" env:"JITTER_MAX" default:"60" description:"Maximum start delay in seconds for competitions that are already open"`
	CancelGrace       int    `long:"cancel-grace" env:"CANCEL_GRACE" default:"1000" description:"Grace period in milliseconds for cancelled tasks to exit"`

	// Notifications
	MaxBodyBytes int  `long:"max-body-bytes" env:"MAX_BODY_BYTES" default:"4096" description:"Maximum size of a rendered notification body"`
	MinifyHTML   bool `long:"minify-html" env:"MINIFY_HTML" description:"Minify rendered notification bodies"`

	// HTTP server
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://notify.example.com)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for the console endpoints (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"CompetitionNotify/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Europe/Amsterdam" description:"Timezone for timestamps (e.g., UTC, Europe/Amsterdam)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments instead of os.Args when args is non-nil.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		RegistryFile:      raw.RegistryFile,
		TemplateFile:      raw.TemplateFile,
		APIBaseUrl:        raw.APIBaseUrl,
		SiteBaseUrl:       raw.SiteBaseUrl,
		RequestTimeout:    time.Duration(raw.RequestTimeout) * time.Second,
		RequestsPerSecond: raw.RequestsPerSecond,
		DiscoverySchedule: raw.DiscoverySchedule,
		JitterMax:         time.Duration(raw.JitterMax) * time.Second,
		CancelGrace:       time.Duration(raw.CancelGrace) * time.Millisecond,
		MaxBodyBytes:      raw.MaxBodyBytes,
		MinifyHTML:        raw.MinifyHTML,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func (c *Cfg) validate() error {
	if c.JitterMax < time.Second {
		return fmt.Errorf("jitter-max must be at least 1 second")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max-body-bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests-per-second must be positive, got %v", c.RequestsPerSecond)
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
