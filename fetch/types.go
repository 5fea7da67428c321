// @license
// Copyright (C) 2025  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package fetch

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultBaseURL    = "https://plato.pusan.ac.kr/"
	LoginPath         = "login/index.php"
	QuizIndexPath     = "mod/quiz/index.php"
	QuizBasePath      = "mod/quiz/"
	VideoProgressPath = "report/ubcompletion/user_progress_a.php"
	AssignIndexPath   = "mod/assign/index.php"
	CourseIDParam     = "id"
)

// Options configure a single PLATO session.
type Options struct {
	// BaseURL is the platform root. Login succeeds only when the final redirect lands exactly here.
	BaseURL string
	// UserAgent overrides the random desktop User-Agent.
	UserAgent string
	// Timeout bounds every single request, zero means DefaultTimeout.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate validation. The PLATO host has a broken chain, do not
	// enable it for anything else.
	InsecureSkipVerify bool
}

// Client structure holds a single authenticated PLATO session. It is bound to one identity and must not be
// shared between concurrent callers.
//
//nolint:containedctx
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	ctx        context.Context
	userAgent  string
}
