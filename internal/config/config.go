// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package config // import "newsfeed.app/internal/config"

// Opts holds parsed configuration options.
var Opts *Options

// Load loads configuration values from a local file (if filename isn't empty)
// and from environment variables after that.
func Load(filename string) (err error) {
	cfg := NewParser()
	if filename != "" {
		Opts, err = cfg.ParseEnvFile(filename)
		return
	}
	Opts, err = cfg.ParseEnvironmentVariables()
	return
}

// LoadYAML is like [Load], but also applies the YAML configuration file
// yamlFile, if it isn't empty. Environment variables are parsed first, so
// feeds and host limits from YAML extend them.
func LoadYAML(yamlFile, envFile string) error {
	if err := Load(envFile); err != nil {
		return err
	} else if yamlFile == "" {
		return nil
	}

	opts, err := NewParser().WithOptions(Opts).ParseYAML(yamlFile)
	if err != nil {
		return err
	}
	Opts = opts
	return nil
}
