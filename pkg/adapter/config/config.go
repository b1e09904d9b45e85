// Copyright (c) 2025 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config is an adapter which accepts yaml formatted config
// files and exposes their settings to the command layer. A config file
// is optional; every setting can also be provided (and is overridden)
// by the CLI flags, so the loaded struct only captures what the file
// states and the command layer performs the final merge and
// validation of the effective endpoints.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/momeni/bulkmig/pkg/core/model"
	"gopkg.in/yaml.v3"
)

// Server holds the connection settings of one endpoint as stated in
// the config file. Password may be left empty and supplied through the
// environment or an interactive prompt instead, keeping credentials
// out of files where desired.
type Server struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Config contains all settings which this tool accepts from a yaml
// config file.
type Config struct {
	Source      Server `yaml:"source"`
	Destination Server `yaml:"destination"`

	// Port is shared by both servers, following the external dump and
	// restore utilities which accept exactly one port per invocation.
	Port int `yaml:"port" validate:"omitempty,min=1,max=65535"`

	// WorkDir is the directory holding transient artifact files.
	WorkDir string `yaml:"work-dir"`

	// UseInserts selects the portable statement-based dump format
	// instead of the default bulk-copy format.
	UseInserts bool `yaml:"use-inserts"`
}

// Default returns the settings which apply in absence of a config file
// and before any flag overrides.
func Default() *Config {
	return &Config{
		Source:      Server{User: "postgres"},
		Destination: Server{User: "postgres"},
		Port:        5432,
		WorkDir:     "migration_temp",
	}
}

// Load reads, unmarshals, validates, and normalizes the configuration
// file at path. Settings which the file omits keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.normalize()
	return c, nil
}

// Validate checks the well-formedness of the loaded settings. The
// completeness of the effective endpoints is checked later by the
// command layer, after the flag overrides are applied.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	if c.Source.User == "" {
		c.Source.User = "postgres"
	}
	if c.Destination.User == "" {
		c.Destination.User = "postgres"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.WorkDir == "" {
		c.WorkDir = "migration_temp"
	}
}

// Endpoint materializes the model.Endpoint of the given role from
// these settings.
func (c *Config) Endpoint(role model.Role) model.Endpoint {
	server := c.Source
	if role == model.DestinationRole {
		server = c.Destination
	}
	return model.Endpoint{
		Role:     role,
		Host:     server.Host,
		Port:     c.Port,
		User:     server.User,
		Password: server.Password,
	}
}

// Format returns the dump format which these settings select.
func (c *Config) Format() model.Format {
	if c.UseInserts {
		return model.FormatInserts
	}
	return model.FormatCopy
}
