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
	"strings"

	"golang.org/x/exp/slices"
)

// Filter narrows a catalog index down to the packages and sources wanted by
// allow. A package is kept when its name contains any of the wanted package
// names. Its sources are then trimmed, on a copy, to those whose language is
// wanted and whose name is exactly one of the wanted package names. A kept
// package may end up with no sources. The input is left untouched and the
// order of the kept packages follows the input.
func Filter(pkgs []Package, allow AllowList) []Package {
	res := []Package{}
	for _, pkg := range pkgs {
		if !allow.WantsPackage(pkg.Name) {
			continue
		}
		kept := pkg.Clone()
		kept.Sources = kept.Sources[:0]
		for _, src := range pkg.Sources {
			if allow.WantsSource(src) {
				kept.Sources = append(kept.Sources, src)
			}
		}
		res = append(res, kept)
	}
	return res
}

// WantsPackage reports whether name contains at least one wanted package name
func (a AllowList) WantsPackage(name string) bool {
	return slices.IndexFunc(a.Packages, func(wanted string) bool {
		return strings.Contains(name, wanted)
	}) >= 0
}

// WantsSource reports whether the source language is wanted and the source
// name is exactly one of the wanted package names
func (a AllowList) WantsSource(src Source) bool {
	return slices.Contains(a.Langs, src.Lang) && slices.Contains(a.Packages, src.Name)
}
