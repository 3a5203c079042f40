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

package mirror

import (
	"net/url"
	"path"
	"strings"

	"github.com/rdimitrov/ext-mirror/catalog"
)

// DeriveURLs computes where the APK and the icon of pkg are published.
// Both references are resolved against their base the way a browser
// resolves a relative link, so the file name replaces the last path
// segment of a base without a trailing slash.
func DeriveURLs(apkBase, iconBase *url.URL, pkg catalog.Package) (apkURL, iconURL *url.URL, err error) {
	apkURL, err = resolve(apkBase, pkg.APK)
	if err != nil {
		return nil, nil, err
	}
	iconURL, err = resolve(iconBase, pkg.Pkg+catalog.ICON_EXTENSION)
	if err != nil {
		return nil, nil, err
	}
	return apkURL, iconURL, nil
}

func resolve(base *url.URL, name string) (*url.URL, error) {
	ref, err := url.Parse(name)
	if err != nil {
		return nil, catalog.ErrInvalidAssetURL{Ref: name, Cause: err}
	}
	return base.ResolveReference(ref), nil
}

// filename returns the last path segment of u, or "" if there is none
func filename(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	name, err := url.PathUnescape(path.Base(p))
	if err != nil || name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ""
	}
	return name
}
