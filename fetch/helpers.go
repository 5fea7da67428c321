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
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConnectionFailed   = errors.New("connection to PLATO failed")
	ErrFetch              = errors.New("error fetching page")
	ErrUnexpectedStatus   = errors.New("unexpected status code")
	ErrSessionExpired     = errors.New("session is not authenticated")
	ErrInvalidURL         = errors.New("invalid URL")
)

// parseBaseURL parses the platform root, making sure the path ends with a slash so that relative paths resolve
// under it.
func parseBaseURL(base string) (*url.URL, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, base)
	}

	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	u.RawQuery = ""
	u.Fragment = ""

	return u, nil
}

// resolve returns an absolute URL for a path relative to the platform root.
func (c *Client) resolve(path string) *url.URL {
	return c.baseURL.ResolveReference(&url.URL{Path: path})
}

// courseURL returns an absolute URL for a per-course page.
func (c *Client) courseURL(path, courseID string) *url.URL {
	u := c.resolve(path)
	u.RawQuery = url.Values{CourseIDParam: {courseID}}.Encode()

	return u
}

// quizURL resolves a quiz listing link against the quiz module directory.
func (c *Client) quizURL(href string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	return c.resolve(QuizBasePath).ResolveReference(ref), nil
}

// isRoot checks if u points exactly to the platform root.
func (c *Client) isRoot(u *url.URL) bool {
	if u == nil {
		return false
	}

	v := *u
	if v.Path == "" {
		v.Path = "/"
	}

	v.Fragment = ""

	return v.String() == c.baseURL.String()
}

// isLogin checks if u points to the login form.
func (c *Client) isLogin(u *url.URL) bool {
	if u == nil {
		return false
	}

	return u.Host == c.baseURL.Host && u.Path == c.resolve(LoginPath).Path
}

// setHeaders sets headers common to all requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
}

// doLogin posts the login form and checks where the redirect chain ends.
func (c *Client) doLogin(username, password string) error {
	u := c.resolve(LoginPath)

	// POST data struct corresponding to input form fields
	data := url.Values{
		"username": {username},
		"password": {password},
	}

	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, u.String(), strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}

	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", u.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		select {
		case <-c.ctx.Done():
			return fmt.Errorf("%w: %w", ErrConnectionFailed, c.ctx.Err())
		default:
			return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
		}
	}
	defer resp.Body.Close()

	// drain rest of the body
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	// failed login returns a regular HTTP 200 login page, only the landing URL tells
	if !c.isRoot(resp.Request.URL) {
		return fmt.Errorf("%w", ErrInvalidCredentials)
	}

	return nil
}

// getPage fetches u and returns the response body. Any failure is wrapped in ErrFetch.
func (c *Client) getPage(u *url.URL) (string, error) {
	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}

	c.setHeaders(req)
	req.Header.Set("Referer", c.baseURL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		select {
		case <-c.ctx.Done():
			return "", fmt.Errorf("%w: %w", ErrFetch, c.ctx.Err())
		default:
			return "", fmt.Errorf("%w: %w", ErrFetch, err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain rest of the body
		io.Copy(io.Discard, resp.Body) //nolint:errcheck

		return "", fmt.Errorf("%w: %w: %v", ErrFetch, ErrUnexpectedStatus, resp.StatusCode)
	}

	// Moodle redirects unauthenticated requests back to the login form
	if c.isLogin(resp.Request.URL) {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck

		return "", fmt.Errorf("%w: %w: %v", ErrFetch, ErrSessionExpired, u)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFetch, err)
	}

	return string(body), nil
}
