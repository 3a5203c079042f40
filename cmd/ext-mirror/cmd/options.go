// Copyright 2024 The Update Framework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License
//
// SPDX-License-Identifier: Apache-2.0
//

package cmd

import (
	"time"

	"github.com/rdimitrov/ext-mirror/catalog/config"
	"github.com/spf13/cobra"
)

// mirrorOptions holds the values of the flags shared by the subcommands
type mirrorOptions struct {
	manifestURL string
	apkURL      string
	iconURL     string
	packages    []string
	langs       []string
	timeout     time.Duration

	index    string
	apkDir   string
	iconDir  string
	parallel int
	pretty   bool
}

var opts mirrorOptions

// bindRemoteFlags registers the flags describing what to fetch
func bindRemoteFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&opts.manifestURL, "manifest-url", config.DefaultManifestURL, "URL of the catalog index")
	f.StringVar(&opts.apkURL, "apk-url", config.DefaultAPKBaseURL, "base URL of the apk files")
	f.StringVar(&opts.iconURL, "icon-url", config.DefaultIconBaseURL, "base URL of the icon files")
	f.StringSliceVarP(&opts.packages, "package", "p", nil, "wanted package name, matched as a substring (repeatable)")
	f.StringSliceVarP(&opts.langs, "lang", "l", nil, "wanted source language (repeatable)")
	f.DurationVar(&opts.timeout, "timeout", 0, "timeout of every HTTP request, 0 waits forever")
}

// bindLocalFlags registers the flags describing where to write
func bindLocalFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&opts.index, "index", config.DefaultIndexPath, "path of the filtered index file")
	f.StringVar(&opts.apkDir, "apk-dir", config.DefaultAPKDir, "directory receiving the apk files")
	f.StringVar(&opts.iconDir, "icon-dir", config.DefaultIconDir, "directory receiving the icon files")
	f.IntVar(&opts.parallel, "parallel", 0, "maximum concurrent downloads per batch, 0 is unbounded")
	f.BoolVar(&opts.pretty, "pretty", false, "indent the written index")
}

// buildConfig layers the defaults, the config file, the environment and
// the flags explicitly set on cmd, in that order
func buildConfig(cmd *cobra.Command) (*config.MirrorConfig, error) {
	cfg := config.New()
	if ConfigFile != "" {
		if err := cfg.Load(ConfigFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("manifest-url") {
		cfg.ManifestURL = opts.manifestURL
	}
	if f.Changed("apk-url") {
		cfg.APKBaseURL = opts.apkURL
	}
	if f.Changed("icon-url") {
		cfg.IconBaseURL = opts.iconURL
	}
	if f.Changed("package") {
		cfg.Allow.Packages = opts.packages
	}
	if f.Changed("lang") {
		cfg.Allow.Langs = opts.langs
	}
	if f.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if f.Changed("index") {
		cfg.IndexPath = opts.index
	}
	if f.Changed("apk-dir") {
		cfg.APKDir = opts.apkDir
	}
	if f.Changed("icon-dir") {
		cfg.IconDir = opts.iconDir
	}
	if f.Changed("parallel") {
		cfg.MaxParallel = opts.parallel
	}
	if f.Changed("pretty") {
		cfg.PrettyIndex = opts.pretty
	}
	return cfg, cfg.Validate()
}
