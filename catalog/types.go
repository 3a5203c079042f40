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

// Define the file extension appended to a package id to name its icon
const (
	ICON_EXTENSION = ".png"
)

// Define the asset kinds published for every package
const (
	APK  = "apk"
	ICON = "icon"
)

// Package is a single extension entry of the catalog index
type Package struct {
	Name    string   `json:"name"`
	Pkg     string   `json:"pkg"`
	APK     string   `json:"apk"`
	Lang    string   `json:"lang"`
	Code    int64    `json:"code"`
	Version string   `json:"version"`
	NSFW    int64    `json:"nsfw"`
	Sources []Source `json:"sources"`
}

// Source is one content source shipped inside a package
type Source struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	ID      string `json:"id"`
	BaseURL string `json:"baseUrl"`
}

// AllowList holds the wanted package names and locales for a run
type AllowList struct {
	Packages []string `validate:"required,min=1,dive,required"`
	Langs    []string `validate:"required,min=1,dive,required"`
}
