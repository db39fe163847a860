package config

import (
	"strings"
	"time"

	"github.com/ZacxDev/hotel-site/logging"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "HOTEL"

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Endpoint is one upstream API. An empty URL disables the integration.
type Endpoint struct {
	URL string `mapstructure:"url"`
	Key string `mapstructure:"key"`
}

type MailConfig struct {
	Endpoint `mapstructure:",squash"`
	From     string `mapstructure:"from"`
	Subject  string `mapstructure:"subject"`
}

type IntegrationsConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	EasyChannel Endpoint      `mapstructure:"easychannel"`
	CRM         Endpoint      `mapstructure:"crm"`
	Mail        MailConfig    `mapstructure:"mail"`
}

// Config holds the runtime configuration of the hotelsite binary.
// Values come from hotelsite.yaml, HOTEL_* env vars, and CLI flags.
type Config struct {
	Port         string             `mapstructure:"port"`
	SiteDir      string             `mapstructure:"site_dir"`
	APIKey       string             `mapstructure:"api_key"`
	Log          LogConfig          `mapstructure:"log"`
	Integrations IntegrationsConfig `mapstructure:"integrations"`
}

// SetDefaults registers every key so env overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "9010")
	v.SetDefault("site_dir", ".")
	v.SetDefault("api_key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("integrations.timeout", "10s")
	v.SetDefault("integrations.easychannel.url", "")
	v.SetDefault("integrations.easychannel.key", "")
	v.SetDefault("integrations.crm.url", "")
	v.SetDefault("integrations.crm.key", "")
	v.SetDefault("integrations.mail.url", "")
	v.SetDefault("integrations.mail.key", "")
	v.SetDefault("integrations.mail.from", "")
	v.SetDefault("integrations.mail.subject", "Ihre Anfrage")
}

// NewViper returns a viper instance wired for HOTEL_* env overrides.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile reads an explicit config file, or hotelsite.yaml from the working
// directory when cfgFile is empty. A missing default file is not an error.
func ReadFile(v *viper.Viper, cfgFile string) (string, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("hotelsite")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", errors.Wrap(err, "read config")
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.SiteDir, validation.Required),
		validation.Field(&c.Log),
		validation.Field(&c.Integrations),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Format, validation.In("json", "console", "pretty", "")),
	)
}

func (i IntegrationsConfig) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.EasyChannel),
		validation.Field(&i.CRM),
		validation.Field(&i.Mail),
	)
}

func (e Endpoint) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.URL, is.URL),
		validation.Field(&e.Key, validation.When(e.URL != "", validation.Required)),
	)
}

func (m MailConfig) Validate() error {
	if err := m.Endpoint.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(&m,
		validation.Field(&m.From, validation.When(m.URL != "", validation.Required, is.EmailFormat)),
	)
}

// Logging converts the log section for logging.NewProvider.
func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}
