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

package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rdimitrov/ext-mirror/catalog"
)

const DefaultUserAgent = "ext-mirror/1.0"

// Fetcher interface
type Fetcher interface {
	// DownloadFile reads the whole body of urlPath, up to maxLength bytes
	DownloadFile(ctx context.Context, urlPath string, maxLength int64, timeout time.Duration) ([]byte, error)
	// Open returns the body of urlPath for streaming. The caller closes it.
	Open(ctx context.Context, urlPath string, timeout time.Duration) (io.ReadCloser, error)
}

// DefaultFetcher implements Fetcher
type DefaultFetcher struct {
	httpUserAgent string
}

// New returns a DefaultFetcher announcing DefaultUserAgent
func New() *DefaultFetcher {
	return &DefaultFetcher{httpUserAgent: DefaultUserAgent}
}

// SetHTTPUserAgent changes the User-Agent header sent with every request
func (d *DefaultFetcher) SetHTTPUserAgent(ua string) {
	d.httpUserAgent = ua
}

// DownloadFile downloads a file from urlPath, errors out if it failed,
// its length is larger than maxLength or the timeout is reached.
// A zero timeout waits forever.
func (d *DefaultFetcher) DownloadFile(ctx context.Context, urlPath string, maxLength int64, timeout time.Duration) ([]byte, error) {
	res, err := d.get(ctx, urlPath, timeout)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var length int64
	// Get content length from header (might not be accurate, -1 or not set).
	if header := res.Header.Get("Content-Length"); header != "" {
		length, err = strconv.ParseInt(header, 10, 0)
		if err != nil {
			return nil, err
		}
		// Error if the reported size is greater than what is expected.
		if length > maxLength {
			return nil, catalog.ErrDownloadLengthMismatch{Msg: fmt.Sprintf("download failed for %s, length %d is larger than expected %d", urlPath, length, maxLength)}
		}
	}
	// Although the size has been checked above, use a LimitReader in case
	// the reported size is inaccurate, or size is -1 which indicates an
	// unknown length. We read maxLength + 1 in order to check if the read data
	// surpased our set limit.
	data, err := io.ReadAll(io.LimitReader(res.Body, maxLength+1))
	if err != nil {
		return nil, err
	}
	length = int64(len(data))
	if length > maxLength {
		return nil, catalog.ErrDownloadLengthMismatch{Msg: fmt.Sprintf("download failed for %s, length %d is larger than expected %d", urlPath, length, maxLength)}
	}

	return data, nil
}

// Open issues the request and hands back the response body once the
// status is known to be a success
func (d *DefaultFetcher) Open(ctx context.Context, urlPath string, timeout time.Duration) (io.ReadCloser, error) {
	res, err := d.get(ctx, urlPath, timeout)
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

// get performs a single GET and rejects any non-2xx answer
func (d *DefaultFetcher) get(ctx context.Context, urlPath string, timeout time.Duration) (*http.Response, error) {
	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlPath, nil)
	if err != nil {
		return nil, err
	}
	// Use in case of multiple sessions.
	if d.httpUserAgent != "" {
		req.Header.Set("User-Agent", d.httpUserAgent)
	}
	// Execute the request.
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	// Handle HTTP status codes.
	if res.StatusCode < 200 || res.StatusCode > 299 {
		res.Body.Close()
		return nil, catalog.ErrDownloadHTTP{StatusCode: res.StatusCode, URL: urlPath}
	}
	return res, nil
}
