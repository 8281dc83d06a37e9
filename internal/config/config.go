package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the bot settings loaded from the YAML file.
type Config struct {
	// Token is the Telegram bot token.
	Token string `yaml:"token"`
	// FormChatID is the chat receiving form summaries.
	FormChatID int64 `yaml:"form_chat_id"`
	// AlarmChatID is the chat receiving alerts and monitoring summaries.
	AlarmChatID int64 `yaml:"alarm_chat_id"`
	// AdminIDs lists users allowed to close any form, not only their own.
	AdminIDs []int64 `yaml:"admin_ids"`
	// UTCOffsetHours is the fixed offset of the civil clock used on forms.
	// Nil means the default offset.
	UTCOffsetHours *int `yaml:"utc_offset_hours"`
	// FormsFile is the path to the active forms JSON file.
	FormsFile string `yaml:"forms_file"`
	// JournalFile is the path to the append-only journal JSON file.
	JournalFile string `yaml:"journal_file"`
	// ChatsFile is the path to the known chats JSON file.
	ChatsFile string `yaml:"chats_file"`
	// SweepInterval is how often deadlines are checked.
	SweepInterval time.Duration `yaml:"sweep_interval"`
	// SummaryInterval is how often the aggregate active-forms summary is sent.
	SummaryInterval time.Duration `yaml:"summary_interval"`
	// SendTimeout bounds a single outbound Telegram call.
	SendTimeout time.Duration `yaml:"send_timeout"`
	// ClosureWords are the reply tokens accepted as a closure acknowledgement.
	ClosureWords []string `yaml:"closure_words"`
	// FormURL is the web-app page serving the submission form.
	FormURL string `yaml:"form_url"`
}

const (
	// DefaultConfigFilename is the default filename for bot settings.
	DefaultConfigFilename = "cavewatch-settings.yaml"

	// DefaultFormsFilename is the default filename for the active forms JSON.
	DefaultFormsFilename = "active_forms.json"

	// DefaultJournalFilename is the default filename for the journal JSON.
	DefaultJournalFilename = "journal_forms.json"

	// DefaultChatsFilename is the default filename for the known chats JSON.
	DefaultChatsFilename = "known_chats.json"

	// DefaultUTCOffsetHours is the civil clock offset used when none is configured.
	DefaultUTCOffsetHours = 3

	// DefaultSweepInterval is the default deadline check cadence.
	DefaultSweepInterval = 5 * time.Minute

	// DefaultSummaryInterval is the default aggregate summary cadence.
	DefaultSummaryInterval = 4 * time.Hour

	// DefaultSendTimeout is the default bound on a single outbound call.
	DefaultSendTimeout = 30 * time.Second

	// DefaultFilePermissions is the default file permission for data files.
	DefaultFilePermissions = 0o600
)

// DefaultClosureWords are the reply tokens accepted when no vocabulary is configured.
//
//nolint:gochecknoglobals // Shared immutable default.
var DefaultClosureWords = []string{"exited", "out", "done", "ejected"}

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errTokenRequired is returned when the bot token is missing.
	errTokenRequired = errors.New("bot token must be provided")
	// errFormChatRequired is returned when the form chat id is missing.
	errFormChatRequired = errors.New("form chat id must be provided")
	// errAlarmChatRequired is returned when the alarm chat id is missing.
	errAlarmChatRequired = errors.New("alarm chat id must be provided")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file holds the bot token.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills in defaults for optional ones.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Token == "" {
		return errTokenRequired
	}

	if cfg.FormChatID == 0 {
		return errFormChatRequired
	}

	if cfg.AlarmChatID == 0 {
		return errAlarmChatRequired
	}

	if cfg.FormsFile == "" {
		cfg.FormsFile = DefaultFormsFilename
	}

	if cfg.JournalFile == "" {
		cfg.JournalFile = DefaultJournalFilename
	}

	if cfg.ChatsFile == "" {
		cfg.ChatsFile = DefaultChatsFilename
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}

	if cfg.SummaryInterval <= 0 {
		cfg.SummaryInterval = DefaultSummaryInterval
	}

	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}

	if len(cfg.ClosureWords) == 0 {
		cfg.ClosureWords = append([]string(nil), DefaultClosureWords...)
	}

	return nil
}

// IsAdmin reports whether the given user may close any form.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}

	return false
}

// Location returns the fixed time zone of the civil clock used on forms.
func (c *Config) Location() *time.Location {
	offset := DefaultUTCOffsetHours
	if c.UTCOffsetHours != nil {
		offset = *c.UTCOffsetHours
	}

	return time.FixedZone(fmt.Sprintf("UTC%+d", offset), offset*60*60)
}
