// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "protots.yaml"

// config is the contents of protots.yaml. Command-line flags take
// precedence over every field.
type config struct {
	// Inputs are doublestar globs of the files compiled when a command is
	// given no file arguments.
	Inputs      []string `yaml:"inputs"`
	ImportPaths []string `yaml:"import_paths"`
	Output      string   `yaml:"output"`
	Plugin      string   `yaml:"plugin"`
	PluginPath  string   `yaml:"plugin_path"`
	Runtime     string   `yaml:"runtime"`
	Parallelism int      `yaml:"parallelism"`

	path string
}

// loadConfig reads the config file at path. An empty path selects
// protots.yaml in the working directory, which may be absent.
func loadConfig(path string) (*config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &config{}, nil
		}
		return nil, err
	}

	cfg := &config{path: path}
	decoder := yaml.NewDecoder(bytes.NewReader(buf))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Parallelism < 0 {
		return nil, fmt.Errorf("%s: parallelism must not be negative", path)
	}

	// Paths in the file are relative to the directory containing it.
	dir := filepath.Dir(path)
	for ii := range cfg.Inputs {
		cfg.Inputs[ii] = relativeTo(dir, cfg.Inputs[ii])
	}
	for ii := range cfg.ImportPaths {
		cfg.ImportPaths[ii] = relativeTo(dir, cfg.ImportPaths[ii])
	}
	if cfg.Output != "" {
		cfg.Output = relativeTo(dir, cfg.Output)
	}
	return cfg, nil
}

func relativeTo(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
