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

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const pauseMsg = "계속하려면 아무 키나 누르십시오 . . ."

var ErrEmptyInput = errors.New("empty input")

// promptLine prints a prompt and reads a single trimmed line.
func promptLine(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)

	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return "", ErrEmptyInput
	}

	return line, nil
}

// promptPassword reads a password without echo when f is a terminal, falling back to a plain line read from in
// for pipes and redirects.
func promptPassword(in *bufio.Reader, f *os.File, out io.Writer, prompt string) (string, error) {
	fd := int(f.Fd()) //nolint:gosec
	if !term.IsTerminal(fd) {
		return promptLine(in, out, prompt)
	}

	fmt.Fprint(out, prompt)

	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)

	if err != nil {
		return "", err
	}

	if len(b) == 0 {
		return "", ErrEmptyInput
	}

	return string(b), nil
}

// waitForKey waits for a single keypress on a terminal before the window running the program closes.
func waitForKey(f *os.File, out io.Writer) {
	fd := int(f.Fd()) //nolint:gosec
	if !term.IsTerminal(fd) {
		return
	}

	fmt.Fprint(out, pauseMsg)

	state, err := term.MakeRaw(fd)
	if err != nil {
		return
	}

	defer func() {
		_ = term.Restore(fd, state)

		fmt.Fprintln(out)
	}()

	b := make([]byte, 1)
	_, _ = f.Read(b)
}
