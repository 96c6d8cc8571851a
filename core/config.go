package core

import (
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/trezcool/marksheet/core/grading"
)

// Notification providers
const (
	ProviderConsole  = "console"
	ProviderSendgrid = "sendgrid"
	ProviderSES      = "ses"
	ProviderTwilio   = "twilio"
)

var errConfig = errors.New("invalid configuration")

type (
	Config struct {
		Env      string
		Build    string
		Debug    bool
		TestMode bool
		AppName  string

		// Institute is printed as the marksheet title when the submission leaves it blank.
		Institute string

		Server     ServerConfig
		Grading    GradingConfig
		Curriculum []CurriculumEntry
		Notify     NotifyConfig
		Sendgrid   SendgridConfig
		SES        SESConfig
		Twilio     TwilioConfig
		SheetLog   SheetLogConfig

		RollbarToken string
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	GradingConfig struct {
		Table    string                    `mapstructure:"table"`
		PassMark int                       `mapstructure:"pass_mark"`
		Tables   map[string][]grading.Band `mapstructure:"tables"`
		Remarks  []grading.RemarkBand      `mapstructure:"remarks"`
	}

	// CurriculumEntry maps a (track, group[, semester]) to its ordered subjects.
	// Semester 0 applies to every semester of the group.
	CurriculumEntry struct {
		Track    string   `mapstructure:"track" json:"track"`
		Group    string   `mapstructure:"group" json:"group"`
		Semester int      `mapstructure:"semester" json:"semester,omitempty"`
		Subjects []string `mapstructure:"subjects" json:"subjects"`
		Cutoffs  []string `mapstructure:"cutoffs" json:"cutoffs,omitempty"`
	}

	NotifyConfig struct {
		Timeout       time.Duration
		EmailProvider string
		SMSProvider   string
		FromEmail     mail.Address
	}

	SendgridConfig struct {
		APIKey string
		Host   string
	}

	SESConfig struct {
		Region string
	}

	TwilioConfig struct {
		AccountSID string
		AuthToken  string
		From       string
	}

	SheetLogConfig struct {
		Path string
	}
)

// Scheme returns the grading scheme selected by the configuration.
func (c GradingConfig) Scheme() (grading.Scheme, error) {
	bands, ok := c.Tables[strings.ToLower(c.Table)]
	if !ok {
		return grading.Scheme{}, errors.Wrapf(errConfig, "grading.table %q is not defined", c.Table)
	}
	return grading.Scheme{Bands: bands, PassMark: c.PassMark, Remarks: c.Remarks}, nil
}

// NewConfig loads the configuration from the environment, the optional `config/.env.<env>`
// file and the YAML settings file.
func NewConfig() (*Config, error) {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.Set("env", env)
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir, ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()

	configFile := v.GetString("config_file")
	if configFile == "" {
		configFile = filepath.Join(configDir, "marksheet.yaml")
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", configFile)
	}

	return LoadConfig(v)
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Marksheet")
	v.SetDefault("institute", "")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("notify.timeout", 10*time.Second)
	v.SetDefault("notify.email", ProviderConsole)
	v.SetDefault("notify.sms", ProviderConsole)
	v.SetDefault("notify.fromEmail", "noreply@localhost")
	v.SetDefault("notify.fromName", "")
	v.SetDefault("sendgrid.host", "https://api.sendgrid.com")
	v.SetDefault("sendgrid.api_key", "")
	v.SetDefault("ses.region", "us-east-1")
	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.from", "")
	v.SetDefault("sheetlog.path", "")
	v.SetDefault("rollbar.token", "")
}

// LoadConfig decodes and validates a Config from v.
func LoadConfig(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	if !v.IsSet("grading.pass_mark") {
		return nil, errors.Wrap(errConfig, "grading.pass_mark is required")
	}

	conf := &Config{
		Env:          v.GetString("env"),
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		Institute:    v.GetString("institute"),
		RollbarToken: v.GetString("rollbar.token"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ReadTimeout:     v.GetDuration("server.readTimeout"),
			WriteTimeout:    v.GetDuration("server.writeTimeout"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Notify: NotifyConfig{
			Timeout:       v.GetDuration("notify.timeout"),
			EmailProvider: strings.ToLower(v.GetString("notify.email")),
			SMSProvider:   strings.ToLower(v.GetString("notify.sms")),
			FromEmail:     mail.Address{Name: v.GetString("notify.fromName"), Address: v.GetString("notify.fromEmail")},
		},
		Sendgrid: SendgridConfig{
			APIKey: v.GetString("sendgrid.api_key"),
			Host:   v.GetString("sendgrid.host"),
		},
		SES: SESConfig{Region: v.GetString("ses.region")},
		Twilio: TwilioConfig{
			AccountSID: v.GetString("twilio.account_sid"),
			AuthToken:  v.GetString("twilio.auth_token"),
			From:       v.GetString("twilio.from"),
		},
		SheetLog: SheetLogConfig{Path: v.GetString("sheetlog.path")},
	}
	if conf.Env == "" {
		conf.Env = "DEV"
	}
	if conf.Notify.FromEmail.Name == "" {
		conf.Notify.FromEmail.Name = conf.AppName
	}

	if err := v.UnmarshalKey("grading", &conf.Grading); err != nil {
		return nil, errors.Wrap(err, "decoding grading")
	}
	if err := v.UnmarshalKey("curriculum", &conf.Curriculum); err != nil {
		return nil, errors.Wrap(err, "decoding curriculum")
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	scheme, err := c.Grading.Scheme()
	if err != nil {
		return err
	}
	if _, err = grading.NewEvaluator(scheme); err != nil {
		return errors.Wrap(err, "grading")
	}
	if len(c.Curriculum) == 0 {
		return errors.Wrap(errConfig, "curriculum is empty")
	}
	for i, entry := range c.Curriculum {
		if _, err := grading.ParseTrack(entry.Track); err != nil {
			return errors.Wrapf(err, "curriculum[%d]", i)
		}
		if CleanString(entry.Group) == "" || len(entry.Subjects) == 0 {
			return errors.Wrapf(errConfig, "curriculum[%d]: group and subjects are required", i)
		}
	}
	switch c.Notify.EmailProvider {
	case ProviderConsole, ProviderSendgrid, ProviderSES:
	default:
		return errors.Wrapf(errConfig, "unknown email provider %q", c.Notify.EmailProvider)
	}
	switch c.Notify.SMSProvider {
	case ProviderConsole, ProviderTwilio:
	default:
		return errors.Wrapf(errConfig, "unknown sms provider %q", c.Notify.SMSProvider)
	}
	return nil
}
