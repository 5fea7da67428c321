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

//nolint:godot
package config

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var discordTokenRegex = regexp.MustCompile(`^[MNO][a-zA-Z\d_-]{23,25}\.[a-zA-Z\d_-]{6}\.[a-zA-Z\d_-]{27,38}$`)

// isValidBaseURL checks if the given string is an absolute http or https URL.
func isValidBaseURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// isValidTimezone checks if the given IANA timezone name can be loaded.
//
// Parameters:
// - tz: the timezone name to validate
//
// Returns:
// - true if the timezone is known, false otherwise
func isValidTimezone(tz string) bool {
	if tz == "" {
		return false
	}

	_, err := time.LoadLocation(tz)

	return err == nil
}

// isValidDiscordToken checks if the given string is a valid Discord token.
//
// Parameters:
// - token: the Discord token to validate
//
// Returns:
// - true if the Discord token is valid, false otherwise
func isValidDiscordToken(token string) bool {
	return discordTokenRegex.MatchString(token)
}

// isValidCommand checks if the given bot command is a single non-empty word.
func isValidCommand(cmd string) bool {
	return cmd != "" && len(strings.Fields(cmd)) == 1 && strings.TrimSpace(cmd) == cmd
}

// isValidListen checks if the given string is a host:port listen address.
func isValidListen(addr string) bool {
	_, port, err := net.SplitHostPort(addr)

	return err == nil && port != ""
}
