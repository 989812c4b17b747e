// Package config loads the loader settings: where the server root lives,
// which file names can serve as the configuration root, and which vhost glob
// to pre-parse. Values come from an optional yaml file with CONFTREE_*
// environment overrides.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Settings drive parser.Open and the CLI.
type Settings struct {
	// ServerRoot is the configuration directory, e.g. /etc/nginx.
	ServerRoot string `mapstructure:"server_root"`
	// RootCandidates are tried in order to locate the root file.
	RootCandidates []string `mapstructure:"root_candidates"`
	// VhostGlob is parsed eagerly relative to the server root; it is not
	// naturally reachable through includes on Debian-style layouts.
	VhostGlob string `mapstructure:"vhost_glob"`
}

// Load reads settings from path (optional; "" means defaults + environment
// only). A missing file is fine; an unreadable or malformed one is not.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CONFTREE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
				// fall through to defaults
			} else {
				return nil, fmt.Errorf("read settings %s: %w", path, err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_root", "/etc/nginx")
	v.SetDefault("root_candidates", []string{"nginx.conf", "httpd.conf", "apache2.conf"})
	v.SetDefault("vhost_glob", "sites-available/*.conf")
}
