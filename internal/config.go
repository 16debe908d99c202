/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package internal

import (
	"fmt"
	"messenger/internal/responder"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	FolderPath     string `mapstructure:"folder-path"`
	EnableLogging  bool   `mapstructure:"enable-logging"`
	LogDirectory   string `mapstructure:"log-directory"`
	DBName         string `mapstructure:"db-name"`
	HTTPServerPort uint16 `mapstructure:"http-server-port"`
	ReadTimeout    int64  `mapstructure:"read-timeout"`
	WriteTimeout   int64  `mapstructure:"write-timeout"`
	SecretKey      string `mapstructure:"secret-key"`

	Responder ResponderConfig `mapstructure:"responder"`
	RateLimit RateConfig      `mapstructure:"rate-limit"`

	StaffUsers []string `mapstructure:"staff-users"` // Usernames flagged as staff at startup and on registration
}

type ResponderConfig struct {
	Kind       string `mapstructure:"kind"`
	Endpoint   string `mapstructure:"endpoint"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api-key"`
	TimeoutMs  int64  `mapstructure:"timeout-ms"`
	Window     int    `mapstructure:"window"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type RateConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// Timeout of a single reply generation
func (r ResponderConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

// GeneratorConfig translates the section into what responder.NewGenerator expects
func (r ResponderConfig) GeneratorConfig() responder.Config {
	return responder.Config{
		Kind:       r.Kind,
		Endpoint:   r.Endpoint,
		Model:      r.Model,
		APIKey:     r.APIKey,
		MaxRetries: r.MaxRetries,
	}
}

func setDefaults(v *viper.Viper, folderPath string) {
	v.SetDefault("folder-path", folderPath)
	v.SetDefault("enable-logging", true)
	v.SetDefault("log-directory", "logs")
	v.SetDefault("db-name", "messenger.db")
	v.SetDefault("http-server-port", 8080)
	v.SetDefault("read-timeout", 10)
	v.SetDefault("write-timeout", 30)
	v.SetDefault("secret-key", "")

	v.SetDefault("responder.kind", responder.KindTemplate)
	v.SetDefault("responder.endpoint", "")
	v.SetDefault("responder.model", "")
	v.SetDefault("responder.api-key", "")
	v.SetDefault("responder.timeout-ms", 10000)
	v.SetDefault("responder.window", responder.DefaultWindow)
	v.SetDefault("responder.max-retries", 3)

	v.SetDefault("rate-limit.rps", 5)
	v.SetDefault("rate-limit.burst", 10)
	v.SetDefault("staff-users", []string{})
}

// LoadConfig reads folderPath/.cfg (JSON). Any key can be overridden from the environment with the MESSENGER_ prefix,
// e.g. MESSENGER_SECRET_KEY or MESSENGER_RESPONDER_KIND.
func LoadConfig(folderPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, folderPath)

	v.SetConfigFile(filepath.Join(folderPath, ".cfg"))
	v.SetConfigType("json")
	v.SetEnvPrefix("MESSENGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("Config load error: %w", err)
	}

	var config *Config = &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("Config unmarshal error: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("A secret key is required to sign the session cookies")
	}
	switch c.Responder.Kind {
	case responder.KindTemplate, responder.KindChatCompletions, responder.KindNone:
	default:
		return fmt.Errorf("Unknown responder kind {%s}", c.Responder.Kind)
	}
	if c.Responder.TimeoutMs <= 0 {
		return fmt.Errorf("The responder timeout must be positive")
	}
	return nil
}

// DBPath is where the SQLite database lives, relative names are resolved inside the folder
func (c *Config) DBPath() string {
	if filepath.IsAbs(c.DBName) {
		return c.DBName
	}
	return filepath.Join(c.FolderPath, c.DBName)
}

// LogPath is the directory receiving one file per subsystem
func (c *Config) LogPath() string {
	if filepath.IsAbs(c.LogDirectory) {
		return c.LogDirectory
	}
	return filepath.Join(c.FolderPath, c.LogDirectory)
}
