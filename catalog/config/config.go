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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rdimitrov/ext-mirror/catalog"
	"github.com/rdimitrov/ext-mirror/catalog/fetcher"
)

// Defaults point at the published keiyoushi extension repository
const (
	DefaultManifestURL = "https://raw.githubusercontent.com/keiyoushi/extensions/refs/heads/repo/index.json"
	DefaultAPKBaseURL  = "https://raw.githubusercontent.com/keiyoushi/extensions/refs/heads/repo/apk/"
	DefaultIconBaseURL = "https://raw.githubusercontent.com/keiyoushi/extensions/refs/heads/repo/icon/"
	DefaultIndexPath   = "index.json"
	DefaultAPKDir      = "apk"
	DefaultIconDir     = "icon"
)

// Environment variables read by ApplyEnv
const (
	EnvManifestURL = "EXT_MIRROR_MANIFEST_URL"
	EnvAPKBaseURL  = "EXT_MIRROR_APK_URL"
	EnvIconBaseURL = "EXT_MIRROR_ICON_URL"
	EnvPackages    = "EXT_MIRROR_PACKAGES"
	EnvLangs       = "EXT_MIRROR_LANGS"
	EnvParallel    = "EXT_MIRROR_PARALLEL"
	EnvUserAgent   = "EXT_MIRROR_USER_AGENT"
)

type MirrorConfig struct {
	ManifestURL       string `validate:"required,url"`
	APKBaseURL        string `validate:"required,url"`
	IconBaseURL       string `validate:"required,url"`
	Allow             catalog.AllowList
	IndexPath         string        `validate:"required"`
	APKDir            string        `validate:"required"`
	IconDir           string        `validate:"required"`
	ManifestMaxLength int64         `validate:"gt=0"`
	MaxParallel       int           `validate:"gte=0"`
	Timeout           time.Duration `validate:"gte=0"`
	PrettyIndex       bool
	Fetcher           fetcher.Fetcher
}

// hclConfig is the on-disk shape of a mirror configuration file
type hclConfig struct {
	ManifestURL string   `hcl:"manifest_url,optional"`
	APKBaseURL  string   `hcl:"apk_url,optional"`
	IconBaseURL string   `hcl:"icon_url,optional"`
	Packages    []string `hcl:"packages,optional"`
	Langs       []string `hcl:"langs,optional"`
	IndexPath   string   `hcl:"index,optional"`
	APKDir      string   `hcl:"apk_dir,optional"`
	IconDir     string   `hcl:"icon_dir,optional"`
	MaxParallel int      `hcl:"max_parallel,optional"`
	Timeout     string   `hcl:"timeout,optional"`
	UserAgent   string   `hcl:"user_agent,optional"`
	PrettyIndex bool     `hcl:"pretty_index,optional"`
}

// New creates a new MirrorConfig instance used by the Mirror to
// store configuration
func New() *MirrorConfig {
	return &MirrorConfig{
		ManifestURL: DefaultManifestURL,
		APKBaseURL:  DefaultAPKBaseURL,
		IconBaseURL: DefaultIconBaseURL,
		Allow: catalog.AllowList{
			Packages: []string{"MangaDex"},
			Langs:    []string{"pt-BR"},
		},
		IndexPath:         DefaultIndexPath,
		APKDir:            DefaultAPKDir,
		IconDir:           DefaultIconDir,
		ManifestMaxLength: 32 << 20, // bytes
		MaxParallel:       0,
		Timeout:           0,
		PrettyIndex:       false,
		Fetcher:           fetcher.New(),
	}
}

// Load overlays the values set in an HCL configuration file onto cfg.
// Attributes missing from the file keep their current value.
func (cfg *MirrorConfig) Load(path string) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}
	var parsed hclConfig
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}

	setString(&cfg.ManifestURL, parsed.ManifestURL)
	setString(&cfg.APKBaseURL, parsed.APKBaseURL)
	setString(&cfg.IconBaseURL, parsed.IconBaseURL)
	setString(&cfg.IndexPath, parsed.IndexPath)
	setString(&cfg.APKDir, parsed.APKDir)
	setString(&cfg.IconDir, parsed.IconDir)
	if parsed.Packages != nil {
		cfg.Allow.Packages = parsed.Packages
	}
	if parsed.Langs != nil {
		cfg.Allow.Langs = parsed.Langs
	}
	if parsed.MaxParallel != 0 {
		cfg.MaxParallel = parsed.MaxParallel
	}
	if parsed.Timeout != "" {
		timeout, err := time.ParseDuration(parsed.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout in config file %s: %w", path, err)
		}
		cfg.Timeout = timeout
	}
	if parsed.UserAgent != "" {
		cfg.setUserAgent(parsed.UserAgent)
	}
	if parsed.PrettyIndex {
		cfg.PrettyIndex = true
	}
	return nil
}

// ApplyEnv overlays the EXT_MIRROR_* environment variables onto cfg
func (cfg *MirrorConfig) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvManifestURL); ok {
		cfg.ManifestURL = v
	}
	if v, ok := os.LookupEnv(EnvAPKBaseURL); ok {
		cfg.APKBaseURL = v
	}
	if v, ok := os.LookupEnv(EnvIconBaseURL); ok {
		cfg.IconBaseURL = v
	}
	if v, ok := os.LookupEnv(EnvPackages); ok {
		cfg.Allow.Packages = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvLangs); ok {
		cfg.Allow.Langs = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvParallel); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return catalog.ErrValue{Msg: fmt.Sprintf("%s must be an integer, got %q", EnvParallel, v)}
		}
		cfg.MaxParallel = n
	}
	if v, ok := os.LookupEnv(EnvUserAgent); ok {
		cfg.setUserAgent(v)
	}
	return nil
}

// Validate checks that every field holds a usable value
func (cfg *MirrorConfig) Validate() error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid mirror config: %w", err)
	}
	if cfg.Fetcher == nil {
		return catalog.ErrValue{Msg: "no fetcher configured"}
	}
	return nil
}

// EnsurePathsExist creates the asset directories and the parent of the
// index file if they are missing
func (cfg *MirrorConfig) EnsurePathsExist() error {
	for _, dir := range []string{cfg.APKDir, cfg.IconDir, filepath.Dir(cfg.IndexPath)} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return err
		}
	}
	return nil
}

// setUserAgent forwards the user agent to the built-in fetcher
func (cfg *MirrorConfig) setUserAgent(ua string) {
	if f, ok := cfg.Fetcher.(*fetcher.DefaultFetcher); ok {
		f.SetHTTPUserAgent(ua)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// splitList turns "a, b,,c" into [a b c]
func splitList(v string) []string {
	res := []string{}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			res = append(res, item)
		}
	}
	return res
}
