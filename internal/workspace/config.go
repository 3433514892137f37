package workspace

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/sekia-ai/actionkit/internal/secrets"
)

// Config is the actionkit CLI configuration.
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Workspaces WorkspacesConfig `mapstructure:"workspaces"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// WorkspacesConfig describes where workspaces live and how commands run in
// them.
type WorkspacesConfig struct {
	// Dir holds one subdirectory per workspace.
	Dir string `mapstructure:"dir"`
	// Marker is the file that makes a subdirectory of Dir a workspace.
	Marker string `mapstructure:"marker"`
	// Runner is prepended to every command run in a workspace.
	Runner string `mapstructure:"runner"`
}

// SecretsConfig holds the age identity location.
type SecretsConfig struct {
	Identity string `mapstructure:"identity"`
}

// LoadConfig reads configuration from file and env. The config file is
// optional unless cfgFile names one explicitly.
func LoadConfig(cfgFile string) (Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("workspaces.dir", "packages")
	v.SetDefault("workspaces.marker", "go.mod")
	v.SetDefault("workspaces.runner", "go")

	v.SetConfigType("toml")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("actionkit")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/actionkit")
	}

	v.SetEnvPrefix("ACTIONKIT")
	v.AutomaticEnv()

	v.BindEnv("log.level", "ACTIONKIT_LOG_LEVEL")
	v.BindEnv("workspaces.dir", "ACTIONKIT_WORKSPACES_DIR")
	v.BindEnv("workspaces.marker", "ACTIONKIT_WORKSPACES_MARKER")
	v.BindEnv("workspaces.runner", "ACTIONKIT_WORKSPACES_RUNNER")
	v.BindEnv("secrets.identity", "ACTIONKIT_SECRETS_IDENTITY")

	if err := v.ReadInConfig(); err != nil && cfgFile != "" {
		return Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
	}

	identities, err := secrets.ResolveIdentity(v)
	if err != nil {
		return Config{}, fmt.Errorf("resolve encryption identity: %w", err)
	}
	if identities != nil {
		if err := secrets.DecryptViperConfig(v, identities); err != nil {
			return Config{}, fmt.Errorf("decrypt config: %w", err)
		}
	} else if secrets.HasEncryptedValues(v) {
		return Config{}, fmt.Errorf("config contains encrypted values but no age identity is configured; set %s, %s, or secrets.identity", secrets.EnvAgeKey, secrets.EnvAgeKeyFile)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
