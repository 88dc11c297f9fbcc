package config

import (
	"time"

	"github.com/dmitrymomot/formrules/pkg/remote"
)

// Config holds the engine defaults read from FORMRULES_* variables.
type Config struct {
	Locale        string        `env:"FORMRULES_LOCALE" envDefault:"en"`
	DateFormat    string        `env:"FORMRULES_DATE_FORMAT" envDefault:"2006-01-02"`
	Debounce      time.Duration `env:"FORMRULES_DEBOUNCE" envDefault:"0s"`
	StrictCompare bool          `env:"FORMRULES_STRICT_COMPARE" envDefault:"false"`
	MessagesDir   string        `env:"FORMRULES_MESSAGES_DIR"`

	LogLevel  string `env:"FORMRULES_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"FORMRULES_LOG_FORMAT" envDefault:"text"`

	Remote   remote.HTTPConfig     `envPrefix:"FORMRULES_"`
	Redis    remote.RedisConfig    `envPrefix:"FORMRULES_"`
	Postgres remote.PostgresConfig `envPrefix:"FORMRULES_"`
	Mongo    remote.MongoConfig    `envPrefix:"FORMRULES_"`
}
