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
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rdimitrov/ext-mirror/catalog"
	"github.com/rdimitrov/ext-mirror/catalog/config"
	"github.com/rdimitrov/ext-mirror/catalog/mirror"
	"github.com/rdimitrov/ext-mirror/internal/testutils/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(simulator.NewCatalog())
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		catalog.SetLogger(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSyncCmd(t *testing.T) {
	server := newCatalogServer(t)
	tmp := t.TempDir()
	indexPath := filepath.Join(tmp, "out", "index.json")

	// the flag wins over the environment, the config file fills the rest
	t.Setenv(config.EnvLangs, "en")
	configPath := filepath.Join(tmp, "mirror.hcl")
	require.NoError(t, os.WriteFile(configPath, []byte(`packages = ["MangaDex"]`), 0644))
	t.Cleanup(func() { ConfigFile = "" })

	out, err := execute(t, "sync",
		"--config", configPath,
		"--manifest-url", server.URL+"/repo/index.json",
		"--apk-url", server.URL+"/repo/apk/",
		"--icon-url", server.URL+"/repo/icon/",
		"--lang", "pt-BR",
		"--index", indexPath,
		"--apk-dir", filepath.Join(tmp, "apk"),
		"--icon-dir", filepath.Join(tmp, "icon"),
		"--parallel", "2",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully mirrored 2 packages")

	pkgs, err := catalog.FromFile(indexPath)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "eu.kanade.tachiyomi.extension.all.mangadex", pkgs[0].Pkg)
	assert.Equal(t, "eu.kanade.tachiyomi.extension.all.mangadexlegacy", pkgs[1].Pkg)
	assert.Equal(t, []catalog.Source{{Name: "MangaDex", Lang: "pt-BR", ID: "2925808290284335009", BaseURL: "https://mangadex.org"}}, pkgs[0].Sources)

	apk, err := os.ReadFile(filepath.Join(tmp, "apk", "tachiyomi-all.mangadex-v1.4.190.apk"))
	require.NoError(t, err)
	assert.Equal(t, string(simulator.APKContent(pkgs[0])), string(apk))
	assert.FileExists(t, filepath.Join(tmp, "icon", "eu.kanade.tachiyomi.extension.all.mangadex.png"))
	assert.FileExists(t, indexPath+".lock")
}

func TestListCmd(t *testing.T) {
	server := newCatalogServer(t)

	out, err := execute(t, "list",
		"--manifest-url", server.URL+"/repo/index.json",
		"--apk-url", server.URL+"/repo/apk/",
		"--icon-url", server.URL+"/repo/icon/",
		"--package", "Comick",
		"--lang", "en",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Tachiyomi: Comick")
	assert.Contains(t, out, "Comick (en)")
	assert.Contains(t, out, server.URL+"/repo/apk/tachiyomi-all.comickfun-v1.4.60.apk")
	assert.Contains(t, out, "1 of 3 packages kept")
	assert.NotContains(t, out, "MangaDex")
}

func TestFormatSources(t *testing.T) {
	assert.Equal(t, "-", formatSources(nil))
	assert.Equal(t, "MangaDex (en), MangaDex (pt-BR)", formatSources([]catalog.Source{
		{Name: "MangaDex", Lang: "en"},
		{Name: "MangaDex", Lang: "pt-BR"},
	}))
}

func TestAssetColumns(t *testing.T) {
	cfg := config.New()
	cfg.APKBaseURL = "https://mirror.example/apk/"
	cfg.IconBaseURL = "https://mirror.example/icon/"
	m, err := mirror.New(cfg)
	require.NoError(t, err)

	// setup testing table (tt) and create subtest for each entry
	for _, tt := range []struct {
		name     string
		desc     string
		pkg      catalog.Package
		wantAPK  string
		wantIcon string
	}{
		{
			name:     "both derived",
			desc:     "No errors expected",
			pkg:      catalog.Package{Pkg: "eu.kanade.tachiyomi.extension.all.comickfun", APK: "tachiyomi-all.comickfun-v1.4.60.apk"},
			wantAPK:  "https://mirror.example/apk/tachiyomi-all.comickfun-v1.4.60.apk",
			wantIcon: "https://mirror.example/icon/eu.kanade.tachiyomi.extension.all.comickfun.png",
		},
		{
			name:     "invalid apk",
			desc:     "The icon is still listed when only the apk reference is broken",
			pkg:      catalog.Package{Pkg: "eu.kanade.tachiyomi.extension.all.broken", APK: "broken%zz.apk"},
			wantAPK:  "invalid asset url error",
			wantIcon: "https://mirror.example/icon/eu.kanade.tachiyomi.extension.all.broken.png",
		},
		{
			name:     "invalid icon",
			desc:     "The apk is still listed when only the icon reference is broken",
			pkg:      catalog.Package{Pkg: "broken%zz", APK: "ok.apk"},
			wantAPK:  "https://mirror.example/apk/ok.apk",
			wantIcon: "invalid asset url error",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			// this will only be printed if run in verbose mode or if test fails
			t.Logf("Desc: %s", tt.desc)
			cols := assetColumns(m, tt.pkg)
			assert.Contains(t, cols[catalog.APK], tt.wantAPK)
			assert.Contains(t, cols[catalog.ICON], tt.wantIcon)
		})
	}
}
