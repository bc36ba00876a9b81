package cfg

import "time"

type Cfg struct {
	// Storage configuration
	DBPath       string
	RegistryFile string
	TemplateFile string

	// Registration API
	APIBaseUrl        string
	SiteBaseUrl       string
	RequestTimeout    time.Duration
	RequestsPerSecond float64

	// Scheduling
	DiscoverySchedule string
	JitterMax         time.Duration
	CancelGrace       time.Duration

	// Notifications
	MaxBodyBytes int
	MinifyHTML   bool

	// HTTP server
	Port         string
	BaseUrl      string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
