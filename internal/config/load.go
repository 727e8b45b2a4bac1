package config

import (
	"fmt"
	"os"

	"github.com/titanous/json5"
)

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error: defaults plus env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values; secrets are env-only.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("GBICRM_POSTGRES_DSN", &c.Database.DSN)
	envStr("GBICRM_REDIS_URL", &c.Redis.URL)
	envStr("GBICRM_META_ACCESS_TOKEN", &c.WhatsApp.AccessToken)
	envStr("GBICRM_META_PHONE_NUMBER_ID", &c.WhatsApp.PhoneNumberID)
	envStr("GBICRM_META_VERIFY_TOKEN", &c.WhatsApp.VerifyToken)
	envStr("GBICRM_TWILIO_ACCOUNT_SID", &c.Twilio.AccountSID)
	envStr("GBICRM_TWILIO_AUTH_TOKEN", &c.Twilio.AuthToken)
	envStr("GBICRM_TWILIO_FROM_NUMBER", &c.Twilio.FromNumber)
	envStr("GBICRM_OPENAI_API_KEY", &c.Classifier.APIKey)
	envStr("GBICRM_OPENAI_MODEL", &c.Classifier.Model)

	if os.Getenv("GBICRM_USE_TWILIO") == "true" {
		c.Twilio.Enabled = true
	}
}
