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

package simulator

import (
	"path/filepath"
	"testing"

	"github.com/rdimitrov/ext-mirror/catalog"
	"github.com/rdimitrov/ext-mirror/catalog/config"
)

// BaseURL is the location the simulated catalog pretends to be hosted at
// when it is used as a fetcher
var BaseURL = "https://catalog.example/repo"

// TestPackages returns the index published by NewCatalog: two packages
// matching "MangaDex" and one that does not
func TestPackages() []catalog.Package {
	return []catalog.Package{
		{
			Name:    "Tachiyomi: MangaDex",
			Pkg:     "eu.kanade.tachiyomi.extension.all.mangadex",
			APK:     "tachiyomi-all.mangadex-v1.4.190.apk",
			Lang:    "all",
			Code:    190,
			Version: "1.4.190",
			NSFW:    1,
			Sources: []catalog.Source{
				{Name: "MangaDex", Lang: "en", ID: "2499283573021220255", BaseURL: "https://mangadex.org"},
				{Name: "MangaDex", Lang: "pt-BR", ID: "2925808290284335009", BaseURL: "https://mangadex.org"},
			},
		},
		{
			Name:    "Tachiyomi: Comick",
			Pkg:     "eu.kanade.tachiyomi.extension.all.comickfun",
			APK:     "tachiyomi-all.comickfun-v1.4.60.apk",
			Lang:    "all",
			Code:    60,
			Version: "1.4.60",
			NSFW:    0,
			Sources: []catalog.Source{
				{Name: "Comick", Lang: "en", ID: "4410528266393104437", BaseURL: "https://comick.io"},
				{Name: "Comick", Lang: "pt-BR", ID: "5853430917488215302", BaseURL: "https://comick.io"},
			},
		},
		{
			Name:    "Tachiyomi: MangaDex Legacy",
			Pkg:     "eu.kanade.tachiyomi.extension.all.mangadexlegacy",
			APK:     "tachiyomi-all.mangadexlegacy-v1.0.1.apk",
			Lang:    "all",
			Code:    1,
			Version: "1.0.1",
			NSFW:    0,
			Sources: []catalog.Source{
				{Name: "MangaDex Legacy", Lang: "pt-BR", ID: "7000000000000000001", BaseURL: "https://legacy.example"},
			},
		},
	}
}

// APKContent is the body served for the apk of pkg
func APKContent(pkg catalog.Package) []byte {
	return []byte("apk " + pkg.APK)
}

// IconContent is the body served for the icon of pkg
func IconContent(pkg catalog.Package) []byte {
	return []byte("icon " + pkg.Pkg)
}

// InitLocalEnv returns a configuration pointing at baseURL and writing
// into fresh directories under t.TempDir(). The directories are created.
func InitLocalEnv(t testing.TB, baseURL string) *config.MirrorConfig {
	t.Helper()
	tmp := t.TempDir()
	cfg := config.New()
	cfg.ManifestURL = baseURL + IndexPath
	cfg.APKBaseURL = baseURL + APKPath
	cfg.IconBaseURL = baseURL + IconPath
	cfg.IndexPath = filepath.Join(tmp, "index.json")
	cfg.APKDir = filepath.Join(tmp, "apk")
	cfg.IconDir = filepath.Join(tmp, "icon")
	if err := cfg.EnsurePathsExist(); err != nil {
		t.Fatalf("failed to initialize environment: %v", err)
	}
	return cfg
}

// InitMirrorConfig is InitLocalEnv with the simulator installed as the
// fetcher
func InitMirrorConfig(t testing.TB, sim *CatalogSimulator) *config.MirrorConfig {
	t.Helper()
	cfg := InitLocalEnv(t, BaseURL)
	cfg.Fetcher = sim
	return cfg
}
