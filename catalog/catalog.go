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
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/exp/slices"
)

var (
	packageFields = []string{"name", "pkg", "apk", "lang", "code", "version", "nsfw", "sources"}
	sourceFields  = []string{"name", "lang", "id", "baseUrl"}
)

// FromBytes decodes a catalog index into its package list. Any structural
// problem, including a missing field, is reported as ErrManifestDecode.
func FromBytes(data []byte) ([]Package, error) {
	var pkgs []Package
	if err := json.Unmarshal(data, &pkgs); err != nil {
		return nil, ErrManifestDecode{Cause: err}
	}
	if pkgs == nil {
		// a literal null is not a package list
		return nil, ErrManifestDecode{Cause: fmt.Errorf("expected a json array of packages")}
	}
	log.Info("Decoded catalog index", "packages", len(pkgs))
	return pkgs, nil
}

// FromFile loads a catalog index previously written with ToFile
func FromFile(name string) ([]Package, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return FromBytes(data)
}

// ToBytes serializes a package list. A nil list is written as an empty array.
func ToBytes(pkgs []Package, pretty bool) ([]byte, error) {
	if pkgs == nil {
		pkgs = []Package{}
	}
	if pretty {
		return json.MarshalIndent(pkgs, "", "\t")
	}
	return json.Marshal(pkgs)
}

// ToFile serializes a package list and writes it to name, replacing any
// existing content
func ToFile(name string, pkgs []Package, pretty bool) error {
	log.Info("Writing catalog index", "path", name, "packages", len(pkgs))
	data, err := ToBytes(pkgs, pretty)
	if err != nil {
		return ErrManifestWrite{Path: name, Cause: err}
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return ErrManifestWrite{Path: name, Cause: err}
	}
	return nil
}

// Clone returns a deep copy of the package
func (p Package) Clone() Package {
	p.Sources = slices.Clone(p.Sources)
	if p.Sources == nil {
		p.Sources = []Source{}
	}
	return p
}

// Equal reports whether two packages carry the same fields and sources
func (p Package) Equal(other Package) bool {
	return p.Name == other.Name &&
		p.Pkg == other.Pkg &&
		p.APK == other.APK &&
		p.Lang == other.Lang &&
		p.Code == other.Code &&
		p.Version == other.Version &&
		p.NSFW == other.NSFW &&
		slices.Equal(p.Sources, other.Sources)
}

func (p Package) MarshalJSON() ([]byte, error) {
	type Alias Package
	a := Alias(p)
	if a.Sources == nil {
		a.Sources = []Source{}
	}
	return json.Marshal(a)
}

func (p *Package) UnmarshalJSON(data []byte) error {
	if err := checkFields(data, packageFields); err != nil {
		return fmt.Errorf("package: %w", err)
	}
	type Alias Package
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Package(a)
	return nil
}

func (s *Source) UnmarshalJSON(data []byte) error {
	if err := checkFields(data, sourceFields); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	type Alias Source
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = Source(a)
	return nil
}

// checkFields verifies that every required key is present in the json object
// and holds a value. A null would otherwise decode as the zero value.
func checkFields(data []byte, required []string) error {
	var dict map[string]json.RawMessage
	if err := json.Unmarshal(data, &dict); err != nil {
		return err
	}
	for _, name := range required {
		raw, ok := dict[name]
		if !ok {
			return fmt.Errorf("missing field %q", name)
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return fmt.Errorf("field %q is null", name)
		}
	}
	return nil
}
