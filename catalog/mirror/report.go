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
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Task is a single asset download derived from a package
type Task struct {
	Kind    string // catalog.APK or catalog.ICON
	Package string
	URL     *url.URL
	Dir     string
}

// Result is the outcome of one Task. Err is nil on success.
type Result struct {
	Task  Task
	Path  string
	Bytes int64
	Err   error
}

// Report collects the outcome of every download issued during a run
type Report struct {
	RunID uuid.UUID
	// Invalid lists packages whose asset URLs could not be derived
	Invalid []Result
	APKs    []Result
	Icons   []Result
}

func newReport() *Report {
	return &Report{
		RunID:   uuid.New(),
		Invalid: []Result{},
		APKs:    []Result{},
		Icons:   []Result{},
	}
}

// Failed returns every unsuccessful result, URL derivation failures first,
// then APKs, then icons
func (r *Report) Failed() []Result {
	failed := []Result{}
	for _, batch := range [][]Result{r.Invalid, r.APKs, r.Icons} {
		for _, res := range batch {
			if res.Err != nil {
				failed = append(failed, res)
			}
		}
	}
	return failed
}

// Succeeded counts the successful downloads of one batch
func Succeeded(batch []Result) int {
	n := 0
	for _, res := range batch {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Err aggregates every failure of the run into one error, or nil if
// everything was downloaded
func (r *Report) Err() error {
	var result *multierror.Error
	for _, res := range r.Failed() {
		result = multierror.Append(result, fmt.Errorf("%s %s: %w", res.Task.Kind, res.Task.Package, res.Err))
	}
	return result.ErrorOrNil()
}

// String summarizes the run in one line
func (r *Report) String() string {
	return fmt.Sprintf("run %s: apk %d/%d, icon %d/%d, invalid %d",
		r.RunID, Succeeded(r.APKs), len(r.APKs), Succeeded(r.Icons), len(r.Icons), len(r.Invalid))
}
