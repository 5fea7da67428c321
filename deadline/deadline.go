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

// Package deadline parses deadline text as shown on PLATO listing and detail pages.
package deadline

import (
	"strings"
	"time"

	"github.com/dkorunic/plato-bot/logger"
)

const (
	Layout       = "2006-01-02 15:04" // YYYY-MM-DD HH:MM
	NoDeadline   = "-"                // placeholder used in listing tables
	altSeparator = "T"                // ISO-8601 date/time separator
)

// Parse converts deadline text into a timestamp in the local time zone, see ParseInLocation.
func Parse(text string) *time.Time {
	return ParseInLocation(text, time.Local)
}

// ParseInLocation converts deadline text into a timestamp in loc. It never fails: empty text and "-" are
// returned as nil, and so is any text that does not match the layout, with a warning logged.
//
// Malformed deadlines are indistinguishable from missing ones for the caller.
func ParseInLocation(text string, loc *time.Location) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" || text == NoDeadline {
		return nil
	}

	if loc == nil {
		loc = time.Local
	}

	normalized := strings.Replace(text, altSeparator, " ", 1)

	t, err := time.ParseInLocation(Layout, normalized, loc)
	if err != nil {
		logger.Warn().Msgf("Unable to parse deadline %q, treating as no deadline: %v", text, err)

		return nil
	}

	return &t
}
