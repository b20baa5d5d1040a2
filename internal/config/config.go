package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env            string
	Port           int
	APIBase        string
	APIKey         string
	APISecret      string
	TimeoutSeconds int
	ReportsDir     string
	LogJSON        bool
	Watermark      string
	Timezone       string
}

func Default() Config {
	return Config{
		Env:            "dev",
		Port:           5000,
		APIBase:        "https://www.sendowl.com/api/v1",
		TimeoutSeconds: 30,
		ReportsDir:     "./reports",
		LogJSON:        true,
		Watermark:      "CONFIDENCIAL",
		Timezone:       "America/Sao_Paulo",
	}
}

func EnvDefaults() Config {
	return fromEnv(Default())
}

func fromEnv(c Config) Config {
	if v := os.Getenv("REPORT_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("REPORT_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("REPORT_API_BASE"); v != "" {
		c.APIBase = v
	}
	if v := os.Getenv("SENDOWL_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("SENDOWL_API_SECRET"); v != "" {
		c.APISecret = v
	}
	if v := os.Getenv("REPORT_TIMEOUT_SECONDS"); v != "" {
		if t, err := strconv.Atoi(v); err == nil && t > 0 {
			c.TimeoutSeconds = t
		}
	}
	if v := os.Getenv("REPORT_REPORTS_DIR"); v != "" {
		c.ReportsDir = v
	}
	if v := os.Getenv("REPORT_LOG_JSON"); v != "" {
		switch v {
		case "1", "true", "TRUE":
			c.LogJSON = true
		case "0", "false", "FALSE":
			c.LogJSON = false
		}
	}
	if v := os.Getenv("REPORT_WATERMARK"); v != "" {
		c.Watermark = v
	}
	if v := os.Getenv("REPORT_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	return c
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Location resolves the display timezone, falling back to the report's
// locale offset (UTC-3) when the tz database name cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("-03", -3*60*60)
	}
	return loc
}
