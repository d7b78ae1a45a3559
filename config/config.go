package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	CheckModeExec   = "exec"
	CheckModeNative = "native"
)

type DefaultPaths struct {
	ConfigDir       string
	ProxyChainsConf string
	BackupDir       string
	CustomList      string
	LogPathApp      string
	LogLevel        string
}

type Configuration struct {
	Paths struct {
		ConfigFile string `mapstructure:"config_file"`
		BackupDir  string `mapstructure:"backup_dir"`
		CustomList string `mapstructure:"custom_list"`
	} `mapstructure:"paths"`
	Presets struct {
		Tor    string `mapstructure:"tor"`
		Chisel string `mapstructure:"chisel"`
	} `mapstructure:"presets"`
	Check struct {
		Mode         string        `mapstructure:"mode"`
		ProxyCommand string        `mapstructure:"proxy_command"`
		HTTPClient   string        `mapstructure:"http_client"`
		IPEndpoint   string        `mapstructure:"ip_endpoint"`
		GeoEndpoint  string        `mapstructure:"geo_endpoint"`
		Timeout      time.Duration `mapstructure:"timeout"`
	} `mapstructure:"check"`
	Logging struct {
		Level string `mapstructure:"level"`
		Path  string `mapstructure:"path"`
	} `mapstructure:"logging"`
}

// BackupFile is the fixed snapshot location inside the backup directory.
func (c Configuration) BackupFile() string {
	return filepath.Join(c.Paths.BackupDir, "proxychains.conf")
}

func expandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

func GetDefaultConfigPaths() DefaultPaths {
	var paths DefaultPaths
	userConfigDirBase, err := os.UserConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not get user config dir: %v. Using current directory.\n", err)
		userConfigDirBase = "."
	}

	paths.ConfigDir = filepath.Join(userConfigDirBase, "pcswitch")
	paths.ProxyChainsConf = "/etc/proxychains.conf"
	paths.BackupDir = "/opt/proxychainsbackup"
	paths.CustomList = filepath.Join(paths.BackupDir, "custom.lst")
	paths.LogPathApp = filepath.Join(paths.ConfigDir, "logs", "app.log")
	paths.LogLevel = "INFO"
	return paths
}

// Load builds a Configuration from defaults, an optional YAML file and
// PCSWITCH_* environment variables. A missing config file is not an error.
// The returned message describes which source was used, for logging once
// the logger is up.
func Load(cfgFile string) (Configuration, string, error) {
	var cfg Configuration
	v := viper.New()

	defaults := GetDefaultConfigPaths()
	v.SetDefault("paths.config_file", defaults.ProxyChainsConf)
	v.SetDefault("paths.backup_dir", defaults.BackupDir)
	v.SetDefault("paths.custom_list", defaults.CustomList)
	v.SetDefault("presets.tor", "socks5 \t127.0.0.1 9050")
	v.SetDefault("presets.chisel", "socks5 \t127.0.0.1 1080")
	v.SetDefault("check.mode", CheckModeExec)
	v.SetDefault("check.proxy_command", "proxychains")
	v.SetDefault("check.http_client", "curl")
	v.SetDefault("check.ip_endpoint", "api.ipify.org")
	v.SetDefault("check.geo_endpoint", "https://ipinfo.io")
	v.SetDefault("check.timeout", time.Duration(0))
	v.SetDefault("logging.level", defaults.LogLevel)
	v.SetDefault("logging.path", defaults.LogPathApp)

	if cfgFile != "" {
		expandedCfgFile, err := expandTilde(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in config file path '%s': %v. Trying original path.\n", cfgFile, err)
			expandedCfgFile = cfgFile
		}
		v.SetConfigFile(expandedCfgFile)
		v.SetConfigType("yaml")
	} else {
		v.AddConfigPath(defaults.ConfigDir)
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("PCSWITCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configUsedMsg := "Using default/environment configuration."
	if readErr := v.ReadInConfig(); readErr == nil {
		configUsedMsg = fmt.Sprintf("Using config file: %s", v.ConfigFileUsed())
	} else {
		if cfgFile != "" {
			return cfg, "", fmt.Errorf("reading config file %s: %w", cfgFile, readErr)
		}
		if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", v.ConfigFileUsed(), readErr)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, "", fmt.Errorf("unable to decode config into struct: %w", err)
	}

	for _, p := range []*string{&cfg.Paths.ConfigFile, &cfg.Paths.BackupDir, &cfg.Paths.CustomList, &cfg.Logging.Path} {
		expanded, err := expandTilde(*p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in '%s': %v.\n", *p, err)
			continue
		}
		*p = expanded
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	cfg.Check.Mode = strings.ToLower(cfg.Check.Mode)

	if err := cfg.Validate(); err != nil {
		return cfg, "", err
	}
	return cfg, configUsedMsg, nil
}

// Validate rejects configurations the commands cannot act on.
func (c Configuration) Validate() error {
	if c.Paths.ConfigFile == "" {
		return fmt.Errorf("paths.config_file must not be empty")
	}
	if c.Paths.BackupDir == "" {
		return fmt.Errorf("paths.backup_dir must not be empty")
	}
	if c.Paths.CustomList == "" {
		return fmt.Errorf("paths.custom_list must not be empty")
	}
	if c.Check.Mode != CheckModeExec && c.Check.Mode != CheckModeNative {
		return fmt.Errorf("check.mode must be %q or %q, got %q", CheckModeExec, CheckModeNative, c.Check.Mode)
	}
	if c.Check.Timeout < 0 {
		return fmt.Errorf("check.timeout must not be negative")
	}
	return nil
}
