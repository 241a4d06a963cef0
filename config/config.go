// Copyright 2024 Slash Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the optional slash user configuration file.
//
// The file is HCL named slash.hcl, looked up in $SLASH_CONFIG_DIR, then
// $XDG_CONFIG_HOME/slash, then $HOME/.config/slash. Example:
//
//	required_version = ">= 0.2.0"
//	prompt              = "-> "
//	continuation_prompt = ".. "
//
//	gc {
//	  min_run_bytes = 65536
//	  grow_factor   = 2
//	}
package config

import (
	"os"
	"path/filepath"

	hclversion "github.com/hashicorp/go-version"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/rs/zerolog/log"
	"github.com/slash-lang/slash"
	"github.com/slash-lang/slash/errors"
	"github.com/zclconf/go-cty/cty"
)

// Filename is the name of the slash configuration file.
const Filename = "slash.hcl"

// ErrSchema is the kind of configuration schema errors.
const ErrSchema errors.Kind = "config schema error"

// ErrVersion is the kind of version constraint errors.
const ErrVersion errors.Kind = "version constraint error"

// Config is the parsed slash configuration. Zero values mean "use the
// built-in default".
type Config struct {
	// RequiredVersion constrains which slash versions may load this
	// configuration.
	RequiredVersion string

	// Prompt is the primary REPL prompt.
	Prompt string

	// ContinuationPrompt is the prompt shown while a block is open.
	ContinuationPrompt string

	// GC holds collector tuning.
	GC GCConfig
}

// GCConfig tunes the garbage collector.
type GCConfig struct {
	// MinRunBytes is the minimum managed heap size before a collection
	// triggers.
	MinRunBytes int

	// GrowFactor scales the next collection threshold after a run.
	GrowFactor int
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Prompt:             "-> ",
		ContinuationPrompt: ".. ",
	}
}

// Load reads the user configuration, merged over Default(). A missing
// file is not an error. A malformed file or an unsatisfied
// required_version is.
func Load() (Config, error) {
	path, found := locate()
	if !found {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from the given path.
func LoadFile(path string) (Config, error) {
	logger := log.With().
		Str("action", "config.LoadFile()").
		Str("path", path).
		Logger()

	logger.Trace().Msg("reading config file")

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.E(err, "reading config file %q", path)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return Config{}, errors.E(ErrSchema, diags, "parsing %q", path)
	}

	cfg := Default()
	body := file.Body.(*hclsyntax.Body)

	errs := errors.L()
	for _, attr := range body.Attributes {
		value, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			errs.Append(errors.E(ErrSchema, diags,
				"failed to evaluate attribute %q", attr.Name))
			continue
		}

		switch attr.Name {
		case "required_version":
			errs.Append(assignString(attr.Name, &cfg.RequiredVersion, value))
		case "prompt":
			errs.Append(assignString(attr.Name, &cfg.Prompt, value))
		case "continuation_prompt":
			errs.Append(assignString(attr.Name, &cfg.ContinuationPrompt, value))
		default:
			errs.Append(errors.E(ErrSchema, "unrecognized attribute %q", attr.Name))
		}
	}

	for _, block := range body.Blocks {
		if block.Type != "gc" {
			errs.Append(errors.E(ErrSchema, "unrecognized block %q", block.Type))
			continue
		}
		errs.Append(parseGCBlock(&cfg.GC, block))
	}

	if err := errs.AsError(); err != nil {
		return Config{}, err
	}

	if err := cfg.CheckVersion(slash.Version()); err != nil {
		return Config{}, err
	}

	logger.Trace().Msg("config loaded")
	return cfg, nil
}

// CheckVersion validates the given slash version against the
// required_version constraint of the configuration.
func (c Config) CheckVersion(current string) error {
	if c.RequiredVersion == "" {
		return nil
	}

	constraint, err := hclversion.NewConstraint(c.RequiredVersion)
	if err != nil {
		return errors.E(ErrVersion, err, "invalid required_version %q", c.RequiredVersion)
	}
	semver, err := hclversion.NewSemver(current)
	if err != nil {
		return errors.E(ErrVersion, err, "invalid slash version %q", current)
	}
	if !constraint.Check(semver) {
		return errors.E(ErrVersion,
			"slash version %q does not satisfy required_version %q",
			current, c.RequiredVersion)
	}
	return nil
}

func parseGCBlock(gc *GCConfig, block *hclsyntax.Block) error {
	errs := errors.L()
	for _, attr := range block.Body.Attributes {
		value, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			errs.Append(errors.E(ErrSchema, diags,
				"failed to evaluate attribute gc.%q", attr.Name))
			continue
		}

		switch attr.Name {
		case "min_run_bytes":
			errs.Append(assignInt(attr.Name, &gc.MinRunBytes, value))
		case "grow_factor":
			errs.Append(assignInt(attr.Name, &gc.GrowFactor, value))
		default:
			errs.Append(errors.E(ErrSchema, "unrecognized attribute gc.%q", attr.Name))
		}
	}
	for _, sub := range block.Body.Blocks {
		errs.Append(errors.E(ErrSchema, "unrecognized block gc.%q", sub.Type))
	}
	return errs.AsError()
}

func assignString(name string, target *string, value cty.Value) error {
	if value.Type() != cty.String {
		return errors.E(ErrSchema, "attribute %q must be a string but is %q",
			name, value.Type().FriendlyName())
	}
	*target = value.AsString()
	return nil
}

func assignInt(name string, target *int, value cty.Value) error {
	if value.Type() != cty.Number {
		return errors.E(ErrSchema, "attribute %q must be a number but is %q",
			name, value.Type().FriendlyName())
	}
	n, _ := value.AsBigFloat().Int64()
	*target = int(n)
	return nil
}

func locate() (string, bool) {
	var dirs []string
	if dir := os.Getenv("SLASH_CONFIG_DIR"); dir != "" {
		dirs = append(dirs, dir)
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		dirs = append(dirs, filepath.Join(dir, "slash"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "slash"))
	}

	for _, dir := range dirs {
		path := filepath.Join(dir, Filename)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}
