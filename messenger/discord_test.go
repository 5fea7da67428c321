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

package messenger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dkorunic/plato-bot/fetch"
	"github.com/dkorunic/plato-bot/format"
	"github.com/dkorunic/plato-bot/msgtypes"
	"go.uber.org/ratelimit"
)

const (
	testChannel = "chan-1"
	testUser    = "user-1"
	waitFor     = 2 * time.Second
)

// fakeChat records sent and deleted messages.
type fakeChat struct {
	sent    chan string
	deleted []string
	failing int
	mu      sync.Mutex
}

func newFakeChat() *fakeChat {
	return &fakeChat{sent: make(chan string, 64)}
}

func (f *fakeChat) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing > 0 {
		f.failing--

		return nil, errors.New("temporary failure")
	}

	f.sent <- content

	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeChat) ChannelMessageDelete(_, messageID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, messageID)

	return nil
}

func (f *fakeChat) next(t *testing.T) string {
	t.Helper()

	select {
	case m := <-f.sent:
		return m
	case <-time.After(waitFor):
		t.Fatal("Timed out waiting for a bot message")
	}

	return ""
}

func (f *fakeChat) expect(t *testing.T, expected ...string) {
	t.Helper()

	for _, e := range expected {
		if m := f.next(t); m != e {
			t.Fatalf("Expected message %q, got %q", e, m)
		}
	}
}

func message(id, author, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        id,
		ChannelID: testChannel,
		Content:   content,
		Author:    &discordgo.User{ID: author},
	}
}

func newTestDiscord(t *testing.T, chat *fakeChat, report msgtypes.ReportFunc, timeout time.Duration) *Discord {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	d := newDiscord(ctx, chat, report, DiscordOptions{PromptTimeout: timeout, Retries: 2}, ratelimit.NewUnlimited())

	t.Cleanup(func() {
		cancel()
		d.wg.Wait()
	})

	return d
}

func TestDiscordDialog(t *testing.T) {
	t.Parallel()

	chat := newFakeChat()
	due := time.Date(2024, 5, 10, 23, 59, 0, 0, time.UTC)
	left := 9

	var gotUser, gotPass string

	r := msgtypes.Report{
		Courses: []msgtypes.CourseReport{{
			Course: msgtypes.Course{ID: "101", Name: "Data Structures"},
			Assignments: []msgtypes.Entry{
				{Material: msgtypes.Material{Title: "Essay", Kind: msgtypes.Assignment, Due: &due}, RemainingDays: &left},
			},
		}},
	}

	d := newTestDiscord(t, chat, func(_ context.Context, username, password string) (msgtypes.Report, error) {
		gotUser, gotPass = username, password

		return r, nil
	}, waitFor)

	d.handleMessage(message("1", testUser, DefaultCommand))
	chat.expect(t, PromptIntro, PromptUsername)

	// other users and bots do not answer the prompt
	d.handleMessage(message("2", "someone-else", "intruder"))
	d.handleMessage(&discordgo.Message{ID: "3", ChannelID: testChannel, Content: "bot", Author: &discordgo.User{ID: testUser, Bot: true}})

	d.handleMessage(message("4", testUser, " student "))
	chat.expect(t, PromptPassword)

	d.handleMessage(message("5", testUser, "secret pw"))
	chat.expect(t, LoggingIn, format.MarkupMsg(r.Courses[0]), format.Cheer)

	if gotUser != "student" || gotPass != "secret pw" {
		t.Errorf("Unexpected credentials %q/%q", gotUser, gotPass)
	}

	chat.mu.Lock()
	defer chat.mu.Unlock()

	if len(chat.deleted) != 1 || chat.deleted[0] != "5" {
		t.Errorf("Expected password message to be deleted, got %v", chat.deleted)
	}
}

func TestDiscordDialogTimeout(t *testing.T) {
	t.Parallel()

	chat := newFakeChat()

	d := newTestDiscord(t, chat, func(context.Context, string, string) (msgtypes.Report, error) {
		t.Error("Report must not be fetched after a timeout")

		return msgtypes.Report{}, nil
	}, 50*time.Millisecond)

	d.handleMessage(message("1", testUser, DefaultCommand))
	chat.expect(t, PromptIntro, PromptUsername, TimeoutNotice)

	// a new dialog can be started afterwards
	d.wg.Wait()
	d.handleMessage(message("2", testUser, DefaultCommand))
	chat.expect(t, PromptIntro, PromptUsername)
}

func TestDiscordDialogErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		report   msgtypes.Report
		err      error
		expected []string
	}{
		{
			name:     "InvalidCredentials",
			err:      fmt.Errorf("%w", fetch.ErrInvalidCredentials),
			expected: []string{LoginFailed},
		},
		{
			name:     "ConnectionFailed",
			err:      fmt.Errorf("%w: refused", fetch.ErrConnectionFailed),
			expected: []string{ConnectionFailed},
		},
		{
			name:     "DashboardFailed",
			err:      fmt.Errorf("%w: boom", fetch.ErrFetch),
			expected: []string{FetchFailed},
		},
		{
			name:     "Empty",
			expected: []string{format.NothingPending, format.Cheer},
		},
		{
			name: "AllCoursesFailed",
			report: msgtypes.Report{Failures: []msgtypes.CourseFailure{
				{Course: msgtypes.Course{ID: "1", Name: "A"}},
				{Course: msgtypes.Course{ID: "2", Name: "B"}},
			}},
			err:      errors.New("course failed"),
			expected: []string{FailedCoursesNote + "A, B", format.Cheer},
		},
	}

	for _, tc := range testCases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			chat := newFakeChat()
			d := newTestDiscord(t, chat, func(context.Context, string, string) (msgtypes.Report, error) {
				return tc.report, tc.err
			}, waitFor)

			d.handleMessage(message("1", testUser, DefaultCommand))
			chat.expect(t, PromptIntro, PromptUsername)
			d.handleMessage(message("2", testUser, "student"))
			chat.expect(t, PromptPassword)
			d.handleMessage(message("3", testUser, "pw"))
			chat.expect(t, LoggingIn)
			chat.expect(t, tc.expected...)
		})
	}
}

func TestDiscordIgnoresDuplicateCommand(t *testing.T) {
	t.Parallel()

	chat := newFakeChat()
	d := newTestDiscord(t, chat, func(context.Context, string, string) (msgtypes.Report, error) {
		return msgtypes.Report{}, nil
	}, waitFor)

	d.handleMessage(message("1", testUser, DefaultCommand))
	chat.expect(t, PromptIntro, PromptUsername)

	// the command is taken as the username answer while a prompt is pending
	d.handleMessage(message("2", testUser, DefaultCommand))
	chat.expect(t, PromptPassword)

	d.mu.Lock()
	n := len(d.active)
	d.mu.Unlock()

	if n != 1 {
		t.Errorf("Expected a single dialog, got %d", n)
	}
}

func TestDiscordSendRetries(t *testing.T) {
	t.Parallel()

	chat := newFakeChat()
	chat.failing = 1

	d := newTestDiscord(t, chat, nil, waitFor)
	d.opts.Retries = 2

	// retry delay is DiscordMinDelay
	d.send(testChannel, strings.Repeat("가", DiscordMaxLen+10))

	m := chat.next(t)
	if n := len([]rune(m)); n != DiscordMaxLen || !strings.HasSuffix(m, "...") {
		t.Errorf("Expected truncated message of %d runes, got %d", DiscordMaxLen, n)
	}
}

func TestNewDiscordEmptyToken(t *testing.T) {
	t.Parallel()

	if _, err := NewDiscord(context.Background(), DiscordOptions{}, nil); !errors.Is(err, ErrDiscordEmptyAPIKey) {
		t.Errorf("Expected %v, got %v", ErrDiscordEmptyAPIKey, err)
	}
}
