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

package config

import "time"

// Plato struct holds PLATO session configuration.
type Plato struct {
	BaseURL            string        `toml:"base_url"`
	UserAgent          string        `toml:"user_agent"`
	Timezone           string        `toml:"timezone"`
	Timeout            time.Duration `toml:"timeout"`
	InsecureSkipVerify bool          `toml:"insecure_skip_verify"`
}

// Discord struct holds Discord bot configuration.
type Discord struct {
	Token         string        `toml:"token"`
	Command       string        `toml:"command"`
	PromptTimeout time.Duration `toml:"prompt_timeout"`
	Retries       uint          `toml:"retries"`
}

// HTTP struct holds REST server configuration.
type HTTP struct {
	Listen string `toml:"listen"`
}

// TomlConfig struct holds all other configuration structures.
type TomlConfig struct {
	Plato          Plato   `toml:"plato"`
	Discord        Discord `toml:"discord"`
	HTTP           HTTP    `toml:"http"`
	DiscordEnabled bool    `toml:"-"`
}
