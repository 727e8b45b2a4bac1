package config

// Config is the root configuration for the CRM gateway.
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database,omitempty"`
	Redis      RedisConfig      `json:"redis,omitempty"`
	WhatsApp   WhatsAppConfig   `json:"whatsapp,omitempty"`
	Twilio     TwilioConfig     `json:"twilio,omitempty"`
	Classifier ClassifierConfig `json:"classifier"`
	Hours      HoursConfig      `json:"business_hours"`
	Context    ContextConfig    `json:"context"`
	Routing    RoutingConfig    `json:"routing,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	RateLimitRPM int    `json:"rate_limit_rpm,omitempty"` // per-sender webhook rate limit, 0 disables
}

// DatabaseConfig configures Postgres.
// DSN is never read from the config file, only from env GBICRM_POSTGRES_DSN.
type DatabaseConfig struct {
	DSN string `json:"-"`
}

// RedisConfig configures the ephemeral state backend.
// When Redis is unreachable at startup the gateway degrades to an
// in-process store (context/queues/debounce survive only until restart).
type RedisConfig struct {
	URL string `json:"url,omitempty"`
}

// WhatsAppConfig holds Meta WhatsApp Cloud API settings.
// AccessToken comes from env GBICRM_META_ACCESS_TOKEN only.
type WhatsAppConfig struct {
	PhoneNumberID string `json:"phone_number_id,omitempty"`
	AccessToken   string `json:"-"`
	VerifyToken   string `json:"verify_token,omitempty"`
	APIVersion    string `json:"api_version,omitempty"`
}

// TwilioConfig holds Twilio WhatsApp settings (sandbox or production).
// AuthToken comes from env GBICRM_TWILIO_AUTH_TOKEN only.
type TwilioConfig struct {
	Enabled    bool   `json:"enabled,omitempty"` // use Twilio instead of the Meta API for outbound
	AccountSID string `json:"account_sid,omitempty"`
	AuthToken  string `json:"-"`
	FromNumber string `json:"from_number,omitempty"`
}

// ClassifierConfig configures the OpenAI-compatible intent classifier.
// APIKey comes from env GBICRM_OPENAI_API_KEY only.
type ClassifierConfig struct {
	APIKey  string `json:"-"`
	APIBase string `json:"api_base,omitempty"`
	Model   string `json:"model,omitempty"`
}

// HoursConfig defines the business-hours schedule used to annotate the
// classifier prompt. Times are "HH:MM" in the gateway's local timezone.
type HoursConfig struct {
	WeekdayStart string `json:"weekday_start"`
	WeekdayEnd   string `json:"weekday_end"`
	Saturday     bool   `json:"saturday"`
	SaturdayEnd  string `json:"saturday_end,omitempty"`
	Sunday       bool   `json:"sunday"`
}

// ContextConfig bounds the per-customer dialogue history kept for the classifier.
type ContextConfig struct {
	MaxTurns int `json:"max_turns,omitempty"` // default 10
	TTLHours int `json:"ttl_hours,omitempty"` // sliding expiry, default 24
}

// RoutingConfig overrides the built-in sector catalog. Empty fields fall
// back to the defaults in internal/routing.
type RoutingConfig struct {
	Sectors        []string          `json:"sectors,omitempty"`
	IntentToSector map[string]string `json:"intent_to_sector,omitempty"`
	Escalation     string            `json:"escalation_sector,omitempty"`
	HandoffDefault string            `json:"handoff_default_sector,omitempty"`
	NotifyFallback string            `json:"notify_fallback_sector,omitempty"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			RateLimitRPM: 60,
		},
		Redis: RedisConfig{
			URL: "redis://localhost:6379/0",
		},
		WhatsApp: WhatsAppConfig{
			APIVersion: "v18.0",
		},
		Classifier: ClassifierConfig{
			Model: "gpt-4o-mini",
		},
		Hours: HoursConfig{
			WeekdayStart: "08:00",
			WeekdayEnd:   "18:00",
			Saturday:     true,
			SaturdayEnd:  "12:00",
			Sunday:       false,
		},
		Context: ContextConfig{
			MaxTurns: 10,
			TTLHours: 24,
		},
	}
}
