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
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rdimitrov/ext-mirror/catalog"
	"github.com/rdimitrov/ext-mirror/catalog/config"
	"github.com/rdimitrov/ext-mirror/catalog/fetcher"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Mirror workflow implementation
// The "Mirror" keeps a local copy of a subset of an extension catalog.
// High-level description of "Mirror" functionality:
//   - "FetchManifest()" downloads and decodes the remote catalog index.
//   - "Filter()" narrows the index to the wanted packages and sources.
//   - "DownloadAssets()" fetches the APK and the icon of every kept package.
//     All APKs are downloaded concurrently first, then all icons. A failed
//     download is recorded in the returned Report and never stops the
//     others.
//   - "WriteManifest()" persists the filtered index.
//
// "Run()" chains the four steps. Only a manifest fetch, decode or write
// failure is fatal.
type Mirror struct {
	cfg      *config.MirrorConfig
	apkBase  *url.URL
	iconBase *url.URL
}

// New creates a new "Mirror" instance from a validated configuration
func New(cfg *config.MirrorConfig) (*Mirror, error) {
	// use the built-in download fetcher if nothing is provided
	if cfg.Fetcher == nil {
		cfg.Fetcher = fetcher.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	apkBase, err := url.Parse(cfg.APKBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid apk base url: %w", err)
	}
	iconBase, err := url.Parse(cfg.IconBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid icon base url: %w", err)
	}
	return &Mirror{
		cfg:      cfg,
		apkBase:  apkBase,
		iconBase: iconBase,
	}, nil
}

// Config returns the configuration the mirror was created with
func (m *Mirror) Config() *config.MirrorConfig {
	return m.cfg
}

// Run mirrors the catalog: fetch, filter, download assets, write the index.
// The report is nil only when the manifest could not be fetched or decoded.
func (m *Mirror) Run(ctx context.Context) ([]catalog.Package, *Report, error) {
	index, err := m.FetchManifest(ctx)
	if err != nil {
		return nil, nil, err
	}
	pkgs := m.Filter(index)
	log.Debugf("Kept %d of %d packages", len(pkgs), len(index))

	report := m.DownloadAssets(ctx, pkgs)

	if err := m.WriteManifest(pkgs); err != nil {
		return pkgs, report, err
	}
	return pkgs, report, nil
}

// FetchManifest downloads the catalog index with a single request and
// decodes it
func (m *Mirror) FetchManifest(ctx context.Context) ([]catalog.Package, error) {
	log.Debugf("Fetching manifest %s", m.cfg.ManifestURL)
	data, err := m.cfg.Fetcher.DownloadFile(ctx, m.cfg.ManifestURL, m.cfg.ManifestMaxLength, m.cfg.Timeout)
	if err != nil {
		var httpErr catalog.ErrDownloadHTTP
		if errors.As(err, &httpErr) {
			return nil, catalog.ErrRemoteManifest{StatusCode: httpErr.StatusCode, URL: m.cfg.ManifestURL}
		}
		return nil, fmt.Errorf("failed to fetch manifest %s: %w", m.cfg.ManifestURL, err)
	}
	return catalog.FromBytes(data)
}

// Filter applies the configured allow list to the index
func (m *Mirror) Filter(index []catalog.Package) []catalog.Package {
	return catalog.Filter(index, m.cfg.Allow)
}

// AssetURLs returns where the APK and the icon of pkg are published
func (m *Mirror) AssetURLs(pkg catalog.Package) (apkURL, iconURL *url.URL, err error) {
	return DeriveURLs(m.apkBase, m.iconBase, pkg)
}

// DeriveTasks builds one APK task and one icon task per package. An asset
// whose URL cannot be derived is returned as a failed result instead, so
// the other asset of the same package is still attempted.
func (m *Mirror) DeriveTasks(pkgs []catalog.Package) (apks, icons []Task, invalid []Result) {
	apks = make([]Task, 0, len(pkgs))
	icons = make([]Task, 0, len(pkgs))
	invalid = []Result{}
	for _, pkg := range pkgs {
		apk := Task{Kind: catalog.APK, Package: pkg.Pkg, Dir: m.cfg.APKDir}
		if u, err := resolve(m.apkBase, pkg.APK); err != nil {
			invalid = append(invalid, Result{Task: apk, Err: err})
		} else {
			apk.URL = u
			apks = append(apks, apk)
		}

		icon := Task{Kind: catalog.ICON, Package: pkg.Pkg, Dir: m.cfg.IconDir}
		if u, err := resolve(m.iconBase, pkg.Pkg+catalog.ICON_EXTENSION); err != nil {
			invalid = append(invalid, Result{Task: icon, Err: err})
		} else {
			icon.URL = u
			icons = append(icons, icon)
		}
	}
	return apks, icons, invalid
}

// DownloadAssets downloads every APK, waits for all of them to settle and
// only then downloads every icon. Failures are logged and collected in the
// report.
func (m *Mirror) DownloadAssets(ctx context.Context, pkgs []catalog.Package) *Report {
	report := newReport()
	apks, icons, invalid := m.DeriveTasks(pkgs)
	for _, res := range invalid {
		catalog.GetLogger().Error(res.Err, "Skipping asset", "run", report.RunID.String(), "kind", res.Task.Kind, "package", res.Task.Package)
	}
	report.Invalid = invalid

	log.Debugf("Downloading %d apks", len(apks))
	report.APKs = m.runBatch(ctx, report, apks)
	log.Debugf("Downloading %d icons", len(icons))
	report.Icons = m.runBatch(ctx, report, icons)
	return report
}

// runBatch downloads all tasks concurrently and returns their results in
// task order. Every goroutine writes its own slot of the result slice.
func (m *Mirror) runBatch(ctx context.Context, report *Report, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	g := new(errgroup.Group)
	if m.cfg.MaxParallel > 0 {
		g.SetLimit(m.cfg.MaxParallel)
	}
	for i, task := range tasks {
		g.Go(func() error {
			path, n, err := m.DownloadAsset(ctx, task.URL, task.Dir)
			results[i] = Result{Task: task, Path: path, Bytes: n, Err: err}
			if err != nil {
				catalog.GetLogger().Error(err, "Download failed", "run", report.RunID.String(), "kind", task.Kind, "package", task.Package, "url", task.URL.String())
			}
			// never fail the group, siblings keep running
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// DownloadAsset downloads u into dir, naming the file after the last path
// segment of u. The body is streamed to disk. If the transfer breaks
// half-way the partially written file is left in place.
func (m *Mirror) DownloadAsset(ctx context.Context, u *url.URL, dir string) (string, int64, error) {
	name := filename(u)
	if name == "" {
		return "", 0, catalog.ErrMissingFilename{URL: u.String()}
	}
	urlPath := u.String()

	body, err := m.cfg.Fetcher.Open(ctx, urlPath, m.cfg.Timeout)
	if err != nil {
		var httpErr catalog.ErrDownloadHTTP
		if errors.As(err, &httpErr) {
			return "", 0, catalog.ErrAssetDownload{StatusCode: httpErr.StatusCode, URL: urlPath}
		}
		return "", 0, catalog.ErrAssetDownload{URL: urlPath, Cause: err}
	}
	defer body.Close()

	dest := filepath.Join(dir, name)
	file, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", 0, catalog.ErrAssetDownload{URL: urlPath, Cause: err}
	}
	n, err := io.Copy(file, body)
	if err != nil {
		file.Close()
		return dest, n, catalog.ErrAssetDownload{URL: urlPath, Cause: err}
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return dest, n, catalog.ErrAssetDownload{URL: urlPath, Cause: err}
	}
	if err := file.Close(); err != nil {
		return dest, n, catalog.ErrAssetDownload{URL: urlPath, Cause: err}
	}
	log.Debugf("Downloaded %s to %s (%d bytes)", urlPath, dest, n)
	return dest, n, nil
}

// WriteManifest writes the filtered index to the configured path,
// replacing any previous file
func (m *Mirror) WriteManifest(pkgs []catalog.Package) error {
	return catalog.ToFile(m.cfg.IndexPath, pkgs, m.cfg.PrettyIndex)
}
