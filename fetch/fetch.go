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

// Package fetch implements the HTTP session against the PLATO learning platform.
package fetch

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/corpix/uarand"
)

const (
	DefaultTimeout = 60 * time.Second // site can get really slow around deadlines
)

// NewClientWithContext creates a new PLATO session with its own cookie jar. The context is used for every
// request made through the client.
func NewClientWithContext(ctx context.Context, opts Options) (*Client, error) {
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	u, err := parseBaseURL(base)
	if err != nil {
		return nil, err
	}

	// Cookie Jar carries the Moodle session cookie between requests
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = uarand.GetRandom()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: transport,
		},
		baseURL:   u,
		ctx:       ctx,
		userAgent: userAgent,
	}

	return c, nil
}

// Login submits the credentials to the login form. The platform answers a failed login with a regular page,
// so success is decided only by the final URL after redirects being the platform root.
func (c *Client) Login(username, password string) error {
	return c.doLogin(username, password)
}

// GetDashboard fetches the root page listing enrolled courses.
func (c *Client) GetDashboard() (string, error) {
	return c.getPage(c.resolve(""))
}

// GetQuizIndex fetches the quiz listing page of a course.
func (c *Client) GetQuizIndex(courseID string) (string, error) {
	return c.getPage(c.courseURL(QuizIndexPath, courseID))
}

// GetQuiz fetches a quiz detail page, href being the link found in the quiz listing row.
func (c *Client) GetQuiz(href string) (string, error) {
	u, err := c.quizURL(href)
	if err != nil {
		return "", err
	}

	return c.getPage(u)
}

// GetVideoProgress fetches the video progress table of a course.
func (c *Client) GetVideoProgress(courseID string) (string, error) {
	return c.getPage(c.courseURL(VideoProgressPath, courseID))
}

// GetAssignIndex fetches the assignment listing page of a course.
func (c *Client) GetAssignIndex(courseID string) (string, error) {
	return c.getPage(c.courseURL(AssignIndexPath, courseID))
}

// BaseURL returns the platform root URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// CloseConnections closes idle connections of the underlying HTTP client.
func (c *Client) CloseConnections() {
	c.httpClient.CloseIdleConnections()
}
