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

// Test utility to simulate an extension catalog

// CatalogSimulator hosts an extension catalog in memory and serves it the
// way the published repository does: the index at ".../index.json", apks
// under ".../apk/" and icons under ".../icon/". Only the last two path
// segments of a requested URL are looked at, so any base URL works.

// CatalogSimulator implements fetcher.Fetcher so a Mirror in tests can
// "download" from it without any network access, and http.Handler so it
// can be put behind an httptest server for code using the real fetcher.

// Example::

//     sim := simulator.NewCatalog()
//
//     // packages can be published at any time
//     sim.AddPackage(pkg)
//
//     // failures are injected per path
//     sim.SetStatus("/apk/"+pkg.APK, http.StatusNotFound)
//     sim.SetTruncated("/icon/"+pkg.Pkg+".png")

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/rdimitrov/ext-mirror/catalog"
	log "github.com/sirupsen/logrus"
)

const (
	IndexPath = "/index.json"
	APKPath   = "/apk/"
	IconPath  = "/icon/"
)

// Event is a single body being opened or closed
type Event struct {
	Kind string // "open" or "close"
	Path string
}

// FetchTracker records what was requested from the simulator
type FetchTracker struct {
	Requests []string
	Events   []Event
}

// CatalogSimulator simulates a catalog that can be used for testing
type CatalogSimulator struct {
	mu sync.Mutex

	// Index is encoded on every fetch unless RawIndex is set
	Index    []catalog.Package
	RawIndex []byte
	// Files maps "/apk/<name>" and "/icon/<name>" to their content
	Files map[string][]byte
	// status forces an HTTP status per path
	status map[string]int
	// truncated paths break after sending half of their body
	truncated map[string]bool
	// Delay is spent inside every Open to let downloads overlap
	Delay time.Duration

	FetchTracker FetchTracker
	inFlight     int
	peak         int
}

// NewCatalog initializes a CatalogSimulator holding the test index
func NewCatalog() *CatalogSimulator {
	cs := &CatalogSimulator{
		Index:     []catalog.Package{},
		Files:     map[string][]byte{},
		status:    map[string]int{},
		truncated: map[string]bool{},
		FetchTracker: FetchTracker{
			Requests: []string{},
			Events:   []Event{},
		},
	}
	for _, pkg := range TestPackages() {
		cs.AddPackage(pkg)
	}
	return cs
}

// AddPackage publishes pkg together with its apk and icon
func (cs *CatalogSimulator) AddPackage(pkg catalog.Package) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.Index = append(cs.Index, pkg)
	cs.Files[APKPath+pkg.APK] = APKContent(pkg)
	cs.Files[IconPath+pkg.Pkg+catalog.ICON_EXTENSION] = IconContent(pkg)
	log.Debugf("catalog simulator: published %s", pkg.Pkg)
}

// RemoveFile unpublishes a single apk or icon
func (cs *CatalogSimulator) RemoveFile(p string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.Files, p)
}

// SetRawIndex replaces the encoded index with data, served verbatim
func (cs *CatalogSimulator) SetRawIndex(data []byte) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.RawIndex = data
}

// SetStatus makes every request for p answer with code
func (cs *CatalogSimulator) SetStatus(p string, code int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.status[p] = code
}

// SetTruncated makes the body of p break half-way
func (cs *CatalogSimulator) SetTruncated(p string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.truncated[p] = true
}

// Requests returns the paths requested so far, in order
func (cs *CatalogSimulator) Requests() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]string{}, cs.FetchTracker.Requests...)
}

// Events returns the open and close events recorded by Open
func (cs *CatalogSimulator) Events() []Event {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]Event{}, cs.FetchTracker.Events...)
}

// Peak returns the highest number of bodies open at the same time
func (cs *CatalogSimulator) Peak() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.peak
}

// DownloadFile implements fetcher.Fetcher
func (cs *CatalogSimulator) DownloadFile(ctx context.Context, urlPath string, maxLength int64, timeout time.Duration) ([]byte, error) {
	data, _, err := cs.fetch(urlPath)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxLength {
		return nil, catalog.ErrDownloadLengthMismatch{
			Msg: fmt.Sprintf("Downloaded %d bytes exceeding the maximum allowed length of %d", len(data), maxLength),
		}
	}
	return data, nil
}

// Open implements fetcher.Fetcher
func (cs *CatalogSimulator) Open(ctx context.Context, urlPath string, timeout time.Duration) (io.ReadCloser, error) {
	data, truncated, err := cs.fetch(urlPath)
	if err != nil {
		return nil, err
	}
	key := resourcePath(urlPath)

	cs.mu.Lock()
	cs.inFlight++
	if cs.inFlight > cs.peak {
		cs.peak = cs.inFlight
	}
	cs.FetchTracker.Events = append(cs.FetchTracker.Events, Event{Kind: "open", Path: key})
	delay := cs.Delay
	cs.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}
	body := &simulatedBody{cs: cs, path: key, data: data}
	if truncated {
		body.data = data[:len(data)/2]
		body.broken = true
	}
	return body, nil
}

// ServeHTTP implements http.Handler
func (cs *CatalogSimulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, truncated, err := cs.fetch(r.URL.String())
	if err != nil {
		code := http.StatusInternalServerError
		if httpErr, ok := err.(catalog.ErrDownloadHTTP); ok {
			code = httpErr.StatusCode
		}
		w.WriteHeader(code)
		return
	}
	if !truncated {
		_, _ = w.Write(data)
		return
	}
	// promise the full body, send half of it and drop the connection
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data[:len(data)/2])
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	if hj, ok := w.(http.Hijacker); ok {
		if conn, _, err := hj.Hijack(); err == nil {
			conn.Close()
		}
	}
}

func (cs *CatalogSimulator) fetch(urlPath string) ([]byte, bool, error) {
	key := resourcePath(urlPath)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.FetchTracker.Requests = append(cs.FetchTracker.Requests, key)

	if code, ok := cs.status[key]; ok && (code < 200 || code > 299) {
		log.Debugf("catalog simulator: %s answers %d", key, code)
		return nil, false, catalog.ErrDownloadHTTP{StatusCode: code, URL: urlPath}
	}
	if key == IndexPath {
		if cs.RawIndex != nil {
			return cs.RawIndex, cs.truncated[key], nil
		}
		data, err := catalog.ToBytes(cs.Index, false)
		if err != nil {
			return nil, false, err
		}
		return data, cs.truncated[key], nil
	}
	data, ok := cs.Files[key]
	if !ok {
		log.Debugf("catalog simulator: no file %s", key)
		return nil, false, catalog.ErrDownloadHTTP{StatusCode: http.StatusNotFound, URL: urlPath}
	}
	return data, cs.truncated[key], nil
}

// resourcePath reduces a URL to "/index.json" or "/<dir>/<name>"
func resourcePath(urlPath string) string {
	p := urlPath
	if u, err := url.Parse(urlPath); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if name == path.Base(IndexPath) {
		return IndexPath
	}
	return "/" + path.Base(path.Dir(p)) + "/" + name
}

type simulatedBody struct {
	cs     *CatalogSimulator
	path   string
	data   []byte
	broken bool
	closed bool
}

func (b *simulatedBody) Read(p []byte) (int, error) {
	if len(b.data) == 0 {
		if b.broken {
			return 0, io.ErrUnexpectedEOF
		}
		return 0, io.EOF
	}
	n := copy(p, b.data)
	b.data = b.data[n:]
	return n, nil
}

func (b *simulatedBody) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.cs.mu.Lock()
	defer b.cs.mu.Unlock()
	b.cs.inFlight--
	b.cs.FetchTracker.Events = append(b.cs.FetchTracker.Events, Event{Kind: "close", Path: b.path})
	return nil
}
