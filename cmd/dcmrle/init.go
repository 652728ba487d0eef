// Copyright 2018 Google LLC
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

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	flag "github.com/spf13/pflag"
	"github.com/zerodha/logf"
)

const envPrefix = "DCMRLE_"

// registerFlags adds the configuration flags. Their names are the config keys.
func registerFlags(f *flag.FlagSet) {
	f.String("config", "", "Path to a TOML config file to load.")
	f.String("log", "info", "Log level: info or debug.")
	f.String("output.dir", ".", "Directory decoded frames are written to.")
	f.Bool("output.digest", true, "Log the xxhash64 digest of every decoded frame.")
	f.String("rle.byte_order", "little", "Byte order of RLE segment headers: little or big.")
}

// initConfig loads config to `ko` object. Flags set on the command line take precedence over
// the environment, which takes precedence over the config file.
func initConfig(f *flag.FlagSet) (*koanf.Koanf, error) {
	ko := koanf.New(".")

	if path, _ := f.GetString("config"); path != "" {
		if err := ko.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}
	err := ko.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	if err := ko.Load(posflag.Provider(f, ".", ko), nil); err != nil {
		return nil, fmt.Errorf("loading flags: %w", err)
	}
	return ko, nil
}

// initLogger initializes logger instance.
func initLogger(ko *koanf.Koanf, w io.Writer) logf.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := logf.Opts{Writer: w, Level: logf.InfoLevel, EnableCaller: true}
	if ko.String("log") == "debug" {
		opts.Level = logf.DebugLevel
	}
	return logf.New(opts)
}
