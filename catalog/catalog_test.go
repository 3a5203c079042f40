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

package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexJSON = `[
	{
		"name": "Tachiyomi: MangaDex",
		"pkg": "eu.kanade.tachiyomi.extension.all.mangadex",
		"apk": "tachiyomi-all.mangadex-v1.4.190.apk",
		"lang": "all",
		"code": 190,
		"version": "1.4.190",
		"nsfw": 1,
		"sources": [
			{"name": "MangaDex", "lang": "pt-BR", "id": "2925808290284335009", "baseUrl": "https://mangadex.org"}
		],
		"hasReadme": 0
	}
]`

func TestFromBytes(t *testing.T) {
	pkgs, err := FromBytes([]byte(indexJSON))
	require.NoError(t, err)
	require.Len(t, pkgs, 1)

	assert.Equal(t, "Tachiyomi: MangaDex", pkgs[0].Name)
	assert.Equal(t, "eu.kanade.tachiyomi.extension.all.mangadex", pkgs[0].Pkg)
	assert.Equal(t, "tachiyomi-all.mangadex-v1.4.190.apk", pkgs[0].APK)
	assert.Equal(t, "all", pkgs[0].Lang)
	assert.Equal(t, int64(190), pkgs[0].Code)
	assert.Equal(t, "1.4.190", pkgs[0].Version)
	assert.Equal(t, int64(1), pkgs[0].NSFW)
	assert.Equal(t, []Source{
		{Name: "MangaDex", Lang: "pt-BR", ID: "2925808290284335009", BaseURL: "https://mangadex.org"},
	}, pkgs[0].Sources)
}

func TestFromBytesEmptyArray(t *testing.T) {
	pkgs, err := FromBytes([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, pkgs)
	assert.Empty(t, pkgs)
}

func TestFromBytesErrors(t *testing.T) {
	// setup testing table (tt) and create subtest for each entry
	for _, tt := range []struct {
		name string
		data string
	}{
		{name: "not json", data: `<html>rate limited</html>`},
		{name: "truncated", data: `[{"name": "MangaDex"`},
		{name: "object instead of array", data: `{"name": "MangaDex"}`},
		{name: "null", data: `null`},
		{name: "null package", data: `[null]`},
		{name: "missing package field", data: `[{"name": "a", "pkg": "b", "apk": "c", "lang": "d", "code": 1, "version": "e", "sources": []}]`},
		{name: "missing source field", data: `[{"name": "a", "pkg": "b", "apk": "c", "lang": "d", "code": 1, "version": "e", "nsfw": 0, "sources": [{"name": "a", "lang": "en", "id": "1"}]}]`},
		{name: "type mismatch", data: `[{"name": "a", "pkg": "b", "apk": "c", "lang": "d", "code": "1", "version": "e", "nsfw": 0, "sources": []}]`},
		{name: "null string field", data: `[{"name": null, "pkg": "b", "apk": "c", "lang": "d", "code": 1, "version": "e", "nsfw": 0, "sources": []}]`},
		{name: "null number field", data: `[{"name": "a", "pkg": "b", "apk": "c", "lang": "d", "code": null, "version": "e", "nsfw": 0, "sources": []}]`},
		{name: "null sources", data: `[{"name": "a", "pkg": "b", "apk": "c", "lang": "d", "code": 1, "version": "e", "nsfw": 0, "sources": null}]`},
		{name: "null source field", data: `[{"name": "a", "pkg": "b", "apk": "c", "lang": "d", "code": 1, "version": "e", "nsfw": 0, "sources": [{"name": null, "lang": "en", "id": "1", "baseUrl": "https://a"}]}]`},
		{name: "null source", data: `[{"name": "a", "pkg": "b", "apk": "c", "lang": "d", "code": 1, "version": "e", "nsfw": 0, "sources": [null]}]`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			pkgs, err := FromBytes([]byte(tt.data))
			assert.Nil(t, pkgs)
			assert.ErrorIs(t, err, ErrManifestDecode{})
			var decodeErr ErrManifestDecode
			if assert.True(t, errors.As(err, &decodeErr)) {
				assert.NotNil(t, decodeErr.Cause)
			}
		})
	}
}

func TestToBytes(t *testing.T) {
	data, err := ToBytes(nil, false)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = ToBytes([]Package{{Name: "MangaDex"}}, false)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"MangaDex","pkg":"","apk":"","lang":"","code":0,"version":"","nsfw":0,"sources":[]}]`, string(data))

	pretty, err := ToBytes([]Package{{Name: "MangaDex"}}, true)
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n\t{")
}

func TestToFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	filtered := Filter(testIndex(), AllowList{Packages: []string{"MangaDex"}, Langs: []string{"pt-BR"}})

	require.NoError(t, ToFile(path, filtered, false))

	loaded, err := FromFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, len(filtered))
	for i := range filtered {
		assert.True(t, filtered[i].Equal(loaded[i]), "package %d differs after round trip", i)
	}
}

func TestToFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte("previous content that is longer than an empty list"), 0644))

	require.NoError(t, ToFile(path, []Package{}, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestToFileError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "index.json")
	err := ToFile(path, nil, false)

	var writeErr ErrManifestWrite
	if assert.True(t, errors.As(err, &writeErr)) {
		assert.Equal(t, path, writeErr.Path)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	}
}

func TestClone(t *testing.T) {
	orig := testIndex()[0]
	clone := orig.Clone()
	assert.True(t, orig.Equal(clone))

	clone.Sources[0].Name = "changed"
	assert.Equal(t, "MangaDex", orig.Sources[0].Name)
	assert.False(t, orig.Equal(clone))

	empty := Package{Name: "no sources"}.Clone()
	assert.NotNil(t, empty.Sources)
}
