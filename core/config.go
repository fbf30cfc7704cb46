package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string `json:"host" validate:"required"`
		DebugHost       string `json:"debugHost"`
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	MoodleConfig struct {
		URL          string        `json:"url" validate:"required,moodle_url"`
		Token        string        `json:"token"`
		RestFormat   string        `json:"restFormat" validate:"oneof=json"`
		Timeout      time.Duration `json:"timeout" validate:"gt=0"`
		MaxRedirects int           `json:"maxRedirects" validate:"gte=0"`
	}

	RestrictionsConfig struct {
		// ShowUnknown renders unrecognized availability conditions as a generic entry instead of dropping them.
		ShowUnknown bool
	}

	Config struct {
		Env          string
		Debug        bool
		TestMode     bool
		AppName      string `json:"appName" validate:"required"`
		AppVersion   string
		Build        string
		Timezone     string `json:"timezone" validate:"required,timezone"`
		RollbarToken string
		Server       ServerConfig
		Moodle       MoodleConfig
		Restrictions RestrictionsConfig
	}
)

var errMissingToken = errors.New("moodle token is required")

// NewConfig loads the configuration from defaults, an optional config/.env.<env> file and the environment.
// Environment variables are prefixed with the upper-cased env name, e.g. DEV_MOODLE_URL.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "BBB Moodle Manager")
	v.SetDefault("appVersion", "1.0.0")
	v.SetDefault("build", "develop")
	v.SetDefault("timezone", "America/Bogota")
	v.SetDefault("rollbar.token", "")
	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("moodle.url", "http://localhost")
	v.SetDefault("moodle.token", "")
	v.SetDefault("moodle.restFormat", "json")
	v.SetDefault("moodle.timeout", 30*time.Second)
	v.SetDefault("moodle.maxRedirects", 10)
	v.SetDefault("restrictions.showUnknown", true)
	v.SetDefault("testMode", false)

	env := strings.ToUpper(CleanString(os.Getenv("ENV"))) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		AppVersion:   v.GetString("appVersion"),
		Build:        v.GetString("build"),
		Timezone:     v.GetString("timezone"),
		RollbarToken: v.GetString("rollbar.token"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Moodle: MoodleConfig{
			URL:          strings.TrimRight(v.GetString("moodle.url"), "/"),
			Token:        CleanString(v.GetString("moodle.token")),
			RestFormat:   v.GetString("moodle.restFormat"),
			Timeout:      v.GetDuration("moodle.timeout"),
			MaxRedirects: v.GetInt("moodle.maxRedirects"),
		},
		Restrictions: RestrictionsConfig{
			ShowUnknown: v.GetBool("restrictions.showUnknown"),
		},
	}
}

// Validate checks the loaded values; the Moodle token may only be empty in TEST mode.
func (c *Config) Validate(validate *validator.Validate) error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "validating config")
	}
	if c.Moodle.Token == "" && !c.TestMode {
		return NewValidationError(errMissingToken, FieldError{Field: "token", Error: errMissingToken.Error()})
	}
	return nil
}

// Location returns the time zone used to display dates, UTC if Timezone cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
