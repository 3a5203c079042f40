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
	"fmt"
)

// Define the error types used by the mirror.
// The names chosen for error types should start in 'Err' except where
// there is a good reason not to, and provide that reason in those cases.

// Manifest errors

// ErrRemoteManifest - the catalog index could not be fetched because the
// remote answered with a non-success status
type ErrRemoteManifest struct {
	StatusCode int
	URL        string
}

func (e ErrRemoteManifest) Error() string {
	return fmt.Sprintf("remote manifest error: %s answered with http status code %d", e.URL, e.StatusCode)
}

// ErrManifestDecode - the catalog index body is not a valid package list
type ErrManifestDecode struct {
	Cause error
}

func (e ErrManifestDecode) Error() string {
	return fmt.Sprintf("manifest decode error: %v", e.Cause)
}

func (e ErrManifestDecode) Unwrap() error {
	return e.Cause
}

// ErrManifestDecode matches any other ErrManifestDecode regardless of its cause
func (e ErrManifestDecode) Is(target error) bool {
	_, ok := target.(ErrManifestDecode)
	return ok
}

// ErrManifestWrite - the filtered index could not be serialized or persisted
type ErrManifestWrite struct {
	Path  string
	Cause error
}

func (e ErrManifestWrite) Error() string {
	return fmt.Sprintf("manifest write error: %s: %v", e.Path, e.Cause)
}

func (e ErrManifestWrite) Unwrap() error {
	return e.Cause
}

// Asset errors

// ErrMissingFilename - an asset URL has no path segment to name the local file after
type ErrMissingFilename struct {
	URL string
}

func (e ErrMissingFilename) Error() string {
	return fmt.Sprintf("missing filename error: no path segment in %q", e.URL)
}

// ErrInvalidAssetURL - an asset URL could not be derived for a package
type ErrInvalidAssetURL struct {
	Ref   string
	Cause error
}

func (e ErrInvalidAssetURL) Error() string {
	return fmt.Sprintf("invalid asset url error: %q: %v", e.Ref, e.Cause)
}

func (e ErrInvalidAssetURL) Unwrap() error {
	return e.Cause
}

// ErrAssetDownload - a single APK or icon could not be downloaded.
// StatusCode is zero when the failure happened below HTTP or while
// streaming the body, in which case Cause is set.
type ErrAssetDownload struct {
	StatusCode int
	URL        string
	Cause      error
}

func (e ErrAssetDownload) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("asset download error: %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("asset download error: %s, http status code: %d", e.URL, e.StatusCode)
}

func (e ErrAssetDownload) Unwrap() error {
	return e.Cause
}

// ErrAssetDownload matches any other ErrAssetDownload regardless of its fields
func (e ErrAssetDownload) Is(target error) bool {
	_, ok := target.(ErrAssetDownload)
	return ok
}

// Download errors

// ErrDownload - An error occurred while attempting to download a file
type ErrDownload struct {
	Msg string
}

func (e ErrDownload) Error() string {
	return fmt.Sprintf("download error: %s", e.Msg)
}

// ErrDownloadLengthMismatch - Indicate that a mismatch of lengths was seen while downloading a file
type ErrDownloadLengthMismatch struct {
	Msg string
}

func (e ErrDownloadLengthMismatch) Error() string {
	return fmt.Sprintf("download length mismatch error: %s", e.Msg)
}

// ErrDownloadLengthMismatch is a subset of ErrDownload
func (e ErrDownloadLengthMismatch) Is(target error) bool {
	return target == ErrDownload{} || target == ErrDownloadLengthMismatch{}
}

// ErrDownloadHTTP - Returned by Fetcher interface implementations for HTTP errors
type ErrDownloadHTTP struct {
	StatusCode int
	URL        string
}

func (e ErrDownloadHTTP) Error() string {
	return fmt.Sprintf("failed to download %s, http status code: %d", e.URL, e.StatusCode)
}

// ErrDownloadHTTP is a subset of ErrDownload
func (e ErrDownloadHTTP) Is(target error) bool {
	return target == ErrDownload{} || target == ErrDownloadHTTP{}
}

// ErrValue - a configuration value cannot be used
type ErrValue struct {
	Msg string
}

func (e ErrValue) Error() string {
	return fmt.Sprintf("value error: %s", e.Msg)
}
