// Package config loads the mirrorcal YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/guilherme-santos/mirrorcal/internal"
	"github.com/guilherme-santos/mirrorcal/internal/retry"
	"github.com/guilherme-santos/mirrorcal/internal/syncer"
)

const (
	EnvConfig      = "MIRRORCAL_CONFIG"
	EnvDatabase    = "MIRRORCAL_DATABASE"
	EnvDestination = "MIRRORCAL_DESTINATION"

	DefaultPath    = "mirrorcal.yaml"
	DefaultAccount = "default"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	DestinationCalendarID string           `yaml:"destinationCalendarId" validate:"required"`
	DestinationAccount    string           `yaml:"destinationAccount" validate:"required"`
	Database              string           `yaml:"database" validate:"required"`
	Google                GoogleConfig     `yaml:"google"`
	Accounts              []AccountConfig  `yaml:"accounts" validate:"required,min=1,dive"`
	Calendars             []CalendarConfig `yaml:"calendars" validate:"required,min=1,dive"`
	Sync                  SyncConfig       `yaml:"sync"`
	EventMapping          MappingConfig    `yaml:"eventMapping"`
	Watch                 WatchConfig      `yaml:"watch"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentialsFile" validate:"required"`
}

// AccountConfig names an OAuth identity. Its token is written by the
// configure command.
type AccountConfig struct {
	Name      string `yaml:"name" validate:"required"`
	TokenFile string `yaml:"tokenFile" validate:"required"`
}

type CalendarConfig struct {
	CalendarID  string `yaml:"calendarId" validate:"required"`
	Label       string `yaml:"label"`
	PrivacyMode string `yaml:"privacyMode"`
	Enabled     *bool  `yaml:"enabled"`
	ColorID     string `yaml:"colorId"`
	Account     string `yaml:"account"`
}

type SyncConfig struct {
	SyncWindowDays        int     `yaml:"syncWindowDays" validate:"gte=0"`
	SyncPastDays          int     `yaml:"syncPastDays" validate:"gte=0"`
	IncludeAllDayEvents   bool    `yaml:"includeAllDayEvents"`
	IncludeDeclinedEvents bool    `yaml:"includeDeclinedEvents"`
	BatchSize             int64   `yaml:"batchSize" validate:"gte=1,lte=2500"`
	RetryAttempts         int     `yaml:"retryAttempts" validate:"gte=1"`
	RetryDelayMs          int     `yaml:"retryDelayMs" validate:"gte=0"`
	RequestsPerSecond     float64 `yaml:"requestsPerSecond" validate:"gte=0"`
}

type MappingConfig struct {
	PrefixFormat    string `yaml:"prefixFormat"`
	BusyLabel       string `yaml:"busyLabel"`
	CopyDescription bool   `yaml:"copyDescription"`
	CopyLocation    bool   `yaml:"copyLocation"`
	CopyAttendees   bool   `yaml:"copyAttendees"`
	CopyReminders   bool   `yaml:"copyReminders"`
	SetAsPrivate    bool   `yaml:"setAsPrivate"`
}

type WatchConfig struct {
	Schedule string `yaml:"schedule" validate:"required"`
}

// Default returns the configuration every file is decoded onto.
func Default() *Config {
	return &Config{
		DestinationAccount: DefaultAccount,
		Database:           "mirrorcal.db",
		Google: GoogleConfig{
			CredentialsFile: "credentials.json",
		},
		Sync: SyncConfig{
			SyncWindowDays:      60,
			SyncPastDays:        7,
			IncludeAllDayEvents: true,
			BatchSize:           250,
			RetryAttempts:       3,
			RetryDelayMs:        1000,
			RequestsPerSecond:   5,
		},
		EventMapping: MappingConfig{
			PrefixFormat: "[{label}] ",
			SetAsPrivate: true,
		},
		Watch: WatchConfig{
			Schedule: "*/15 * * * *",
		},
	}
}

// Path returns the configuration file to load: flagValue when set, then
// MIRRORCAL_CONFIG, then DefaultPath.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(EnvConfig); v != "" {
		return v
	}
	return DefaultPath
}

// LoadEnv reads an optional .env file into the environment.
func LoadEnv() {
	// A missing .env is not an error.
	_ = godotenv.Load()
}

// Load reads, overrides from the environment and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvDestination); v != "" {
		c.DestinationCalendarID = v
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	accounts := make(map[string]bool, len(c.Accounts))
	for _, acc := range c.Accounts {
		if accounts[acc.Name] {
			return fmt.Errorf("%w: account %q declared twice", ErrInvalidConfig, acc.Name)
		}
		accounts[acc.Name] = true
	}
	if !accounts[c.DestinationAccount] {
		return fmt.Errorf("%w: destination account %q is not declared", ErrInvalidConfig, c.DestinationAccount)
	}

	calendars := make(map[string]bool, len(c.Calendars))
	for _, cal := range c.Calendars {
		if calendars[cal.CalendarID] {
			return fmt.Errorf("%w: calendar %q declared twice", ErrInvalidConfig, cal.CalendarID)
		}
		calendars[cal.CalendarID] = true

		if cal.CalendarID == c.DestinationCalendarID {
			return fmt.Errorf("%w: calendar %q is the destination", ErrInvalidConfig, cal.CalendarID)
		}
		if _, err := internal.ParsePrivacyMode(cal.PrivacyMode); err != nil {
			return fmt.Errorf("%w: calendar %q: %w", ErrInvalidConfig, cal.CalendarID, err)
		}
		if cal.Account != "" && !accounts[cal.Account] {
			return fmt.Errorf("%w: calendar %q uses undeclared account %q", ErrInvalidConfig, cal.CalendarID, cal.Account)
		}
	}
	return nil
}

// SourceCalendars converts the calendar entries. Validate must have succeeded.
func (c *Config) SourceCalendars() []*internal.Calendar {
	cals := make([]*internal.Calendar, 0, len(c.Calendars))
	for _, cc := range c.Calendars {
		privacy, _ := internal.ParsePrivacyMode(cc.PrivacyMode)
		enabled := cc.Enabled == nil || *cc.Enabled
		label := cc.Label
		if label == "" {
			label = cc.CalendarID
		}
		cals = append(cals, &internal.Calendar{
			ID:      cc.CalendarID,
			Label:   label,
			Privacy: privacy,
			Enabled: enabled,
			ColorID: cc.ColorID,
			Account: cc.Account,
		})
	}
	return cals
}

func (c *Config) Syncer() syncer.Config {
	return syncer.Config{
		DestinationAccount: c.DestinationAccount,
		Calendars:          c.SourceCalendars(),
		Sync: internal.SyncOptions{
			DestinationCalendarID: c.DestinationCalendarID,
			SyncWindowDays:        c.Sync.SyncWindowDays,
			SyncPastDays:          c.Sync.SyncPastDays,
			IncludeAllDayEvents:   c.Sync.IncludeAllDayEvents,
			IncludeDeclinedEvents: c.Sync.IncludeDeclinedEvents,
			BatchSize:             c.Sync.BatchSize,
		},
		Mapping: internal.MappingOptions{
			PrefixFormat:    c.EventMapping.PrefixFormat,
			BusyLabel:       c.EventMapping.BusyLabel,
			CopyDescription: c.EventMapping.CopyDescription,
			CopyLocation:    c.EventMapping.CopyLocation,
			CopyAttendees:   c.EventMapping.CopyAttendees,
			CopyReminders:   c.EventMapping.CopyReminders,
			SetAsPrivate:    c.EventMapping.SetAsPrivate,
		},
	}
}

// RetryPolicy is the policy applied to every gateway call.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		Attempts:  c.Sync.RetryAttempts,
		BaseDelay: time.Duration(c.Sync.RetryDelayMs) * time.Millisecond,
		Permanent: internal.IsPermanent,
	}
}

func (c *Config) Account(name string) (AccountConfig, bool) {
	for _, acc := range c.Accounts {
		if acc.Name == name {
			return acc, true
		}
	}
	return AccountConfig{}, false
}
