package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Limits struct {
	UsernameLen  int `mapstructure:"username_len"`
	RoomNameLen  int `mapstructure:"room_name_len"`
	MessageLen   int `mapstructure:"message_len"`
	RoomCapacity int `mapstructure:"room_capacity"`
	HistorySize  int `mapstructure:"history_size"`
	AITurns      int `mapstructure:"ai_turns"`
}

type RateLimit struct {
	Messages int           `mapstructure:"messages"`
	Interval time.Duration `mapstructure:"interval"`
}

type AI struct {
	Command string        `mapstructure:"command"`
	Args    []string      `mapstructure:"args"`
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
	Label   string        `mapstructure:"label"`
}

type Music struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type Config struct {
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	StaticPath   string        `mapstructure:"static_path"`
	ReadLimit    int64         `mapstructure:"read_limit"`
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	Secret       string        `mapstructure:"secret"`
	LogLevel     string        `mapstructure:"log_level"`
	SendBuffer   int           `mapstructure:"send_buffer"`
	Backpressure string        `mapstructure:"backpressure"`
	SweepEvery   time.Duration `mapstructure:"sweep_interval"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
	Limits       Limits        `mapstructure:"limits"`
	RateLimit    RateLimit     `mapstructure:"rate_limit"`
	AI           AI            `mapstructure:"ai"`
	Music        Music         `mapstructure:"music"`

	v *viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 4096)
	v.SetDefault("ping_period", "30s")
	v.SetDefault("secret", "valley-dev-secret")
	v.SetDefault("log_level", "info")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("backpressure", "kick")
	v.SetDefault("sweep_interval", "60s")
	v.SetDefault("sync_interval", "1s")

	v.SetDefault("limits.username_len", 20)
	v.SetDefault("limits.room_name_len", 30)
	v.SetDefault("limits.message_len", 200)
	v.SetDefault("limits.room_capacity", 10)
	v.SetDefault("limits.history_size", 50)
	v.SetDefault("limits.ai_turns", 20)

	v.SetDefault("rate_limit.messages", 20)
	v.SetDefault("rate_limit.interval", "10s")

	v.SetDefault("ai.command", "python")
	v.SetDefault("ai.args", []string{"ai_chat_handler.py"})
	v.SetDefault("ai.dir", "")
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.label", "AI Assistant")

	v.SetDefault("music.url", "")
	v.SetDefault("music.timeout", "10s")
	v.SetDefault("music.user_agent", "Valley/1.0")
}

// Flags declares the command line overrides. Load binds them over the file.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("valley", pflag.ContinueOnError)
	fs.Int("port", 8080, "HTTP listen port")
	fs.String("config-env", "", "config file suffix (config/config.<env>.yaml)")
	fs.String("log-level", "info", "zerolog level")
	return fs
}

// Load reads config/config.<CONFIG_ENV>.yaml, then environment variables
// prefixed with VALLEY_, then flags that were set explicitly. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("VALLEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	env := os.Getenv("CONFIG_ENV")
	if fs != nil {
		if f := fs.Lookup("config-env"); f != nil && f.Changed {
			env = f.Value.String()
		}
		if err := bindFlag(v, fs, "port", "port"); err != nil {
			return nil, err
		}
		if err := bindFlag(v, fs, "log_level", "log-level"); err != nil {
			return nil, err
		}
	}
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return cfg, nil
}

func bindFlag(v *viper.Viper, fs *pflag.FlagSet, key, name string) error {
	f := fs.Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}
	if err := v.BindPFlag(key, f); err != nil {
		return fmt.Errorf("bind flag %s: %w", name, err)
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.v = v
	return &cfg, nil
}

// OnChange watches the loaded file and calls fn with the re-read config.
// Only settings that are safe to change at runtime should be applied.
func (c *Config) OnChange(fn func(*Config)) {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return
	}
	if _, err := os.Stat(c.v.ConfigFileUsed()); err != nil {
		return
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(c.v)
		if err != nil {
			log.Error().Err(err).Str("module", "config").Msg("reload")
			return
		}
		log.Info().Str("module", "config").Str("file", e.Name).Msg("config changed")
		fn(next)
	})
	c.v.WatchConfig()
}
