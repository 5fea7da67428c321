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

// Package messenger implements the Discord chat front end.
package messenger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/bwmarrin/discordgo"
	"github.com/dkorunic/plato-bot/fetch"
	"github.com/dkorunic/plato-bot/format"
	"github.com/dkorunic/plato-bot/logger"
	"github.com/dkorunic/plato-bot/msgtypes"
	"go.uber.org/ratelimit"
)

const (
	DiscordAPILimit       = 5 // 5 messages per 5s per channel
	DiscordWindow         = 5 * time.Second
	DiscordMinDelay       = DiscordWindow / DiscordAPILimit
	DiscordMaxLen         = 2000
	DefaultCommand        = "!plato"
	DefaultPromptTimeout  = 30 * time.Second
	DefaultDiscordRetries = 3
)

// Bot replies, in the language of the platform.
const (
	PromptIntro       = "PLATO 정보를 가져오기 위해 아이디와 비밀번호를 입력해주세요."
	PromptUsername    = "PLATO 아이디를 입력하세요."
	PromptPassword    = "PLATO 비밀번호를 입력하세요."
	TimeoutNotice     = "입력 시간이 초과되었습니다."
	LoggingIn         = "로그인 중... 학습 자료를 불러오는 중입니다."
	LoginFailed       = "로그인에 실패했습니다."
	ConnectionFailed  = "PLATO에 연결할 수 없습니다. 잠시 후 다시 시도해주세요."
	FetchFailed       = "학습 자료를 불러오지 못했습니다."
	FailedCoursesNote = "다음 강좌의 학습 자료를 불러오지 못했습니다: "
)

var (
	ErrDiscordEmptyAPIKey     = errors.New("empty Discord API key")
	ErrDiscordCreatingSession = errors.New("error creating Discord session")
	ErrDiscordSendingMessage  = errors.New("error sending Discord message")
	ErrDiscordDeleting        = errors.New("error deleting Discord message")
)

// DiscordOptions configure the chat front end.
type DiscordOptions struct {
	Token         string
	Command       string
	PromptTimeout time.Duration
	Retries       uint
}

// chatAPI is the subset of *discordgo.Session used by the dialog.
type chatAPI interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// dialogKey identifies a single user in a single channel.
type dialogKey struct {
	channelID string
	authorID  string
}

// reply is a message answering a prompt.
type reply struct {
	content   string
	messageID string
}

// Discord is a command bot asking for PLATO credentials and answering with pending materials.
//
//nolint:containedctx
type Discord struct {
	ctx     context.Context
	api     chatAPI
	session *discordgo.Session
	report  msgtypes.ReportFunc
	rl      ratelimit.Limiter
	pending map[dialogKey]chan reply
	active  map[dialogKey]struct{}
	opts    DiscordOptions
	wg      sync.WaitGroup
	mu      sync.Mutex
}

// NewDiscord creates a Discord session and registers the command handler. The session is not connected until Run.
func NewDiscord(ctx context.Context, opts DiscordOptions, report msgtypes.ReportFunc) (*Discord, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("%w", ErrDiscordEmptyAPIKey)
	}

	s, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscordCreatingSession, err)
	}

	s.ShouldReconnectOnError = true
	s.ShouldRetryOnRateLimit = true
	s.MaxRestRetries = 1
	s.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentDirectMessages | discordgo.IntentMessageContent

	d := newDiscord(ctx, s, report, opts, ratelimit.New(DiscordAPILimit, ratelimit.Per(DiscordWindow)))
	d.session = s

	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		d.handleMessage(m.Message)
	})

	return d, nil
}

func newDiscord(ctx context.Context, api chatAPI, report msgtypes.ReportFunc, opts DiscordOptions, rl ratelimit.Limiter) *Discord {
	if opts.Command == "" {
		opts.Command = DefaultCommand
	}

	if opts.PromptTimeout <= 0 {
		opts.PromptTimeout = DefaultPromptTimeout
	}

	if opts.Retries == 0 {
		opts.Retries = DefaultDiscordRetries
	}

	return &Discord{
		ctx:     ctx,
		api:     api,
		report:  report,
		rl:      rl,
		opts:    opts,
		pending: make(map[dialogKey]chan reply),
		active:  make(map[dialogKey]struct{}),
	}
}

// Run opens the gateway connection and serves commands until the context is cancelled. Dialogs in progress are
// cancelled and waited for before the session is closed.
func (d *Discord) Run() error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("%w: %w", ErrDiscordCreatingSession, err)
	}

	logger.Info().Msgf("Started Discord bot, listening for %q", d.opts.Command)

	<-d.ctx.Done()

	d.wg.Wait()

	return d.session.Close()
}

// handleMessage either answers a pending prompt or starts a new dialog on command.
func (d *Discord) handleMessage(m *discordgo.Message) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return
	}

	key := dialogKey{channelID: m.ChannelID, authorID: m.Author.ID}

	d.mu.Lock()
	defer d.mu.Unlock()

	// prompt replies have priority, so a password equal to the command still works
	if ch, ok := d.pending[key]; ok {
		delete(d.pending, key)
		ch <- reply{content: m.Content, messageID: m.ID}

		return
	}

	if strings.TrimSpace(m.Content) != d.opts.Command {
		return
	}

	if _, ok := d.active[key]; ok {
		logger.Debug().Msgf("Dialog for user %v in channel %v already running", m.Author.ID, m.ChannelID)

		return
	}

	d.active[key] = struct{}{}
	d.wg.Add(1)

	go func() {
		defer d.wg.Done()
		defer d.finish(key)

		d.dialog(key)
	}()
}

// finish releases the user for a new dialog.
func (d *Discord) finish(key dialogKey) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.active, key)
	delete(d.pending, key)
}

// dialog asks for credentials, fetches the report and sends one message per course.
func (d *Discord) dialog(key dialogKey) {
	d.send(key.channelID, PromptIntro)

	username, ok := d.ask(key, PromptUsername)
	if !ok {
		d.send(key.channelID, TimeoutNotice)

		return
	}

	password, ok := d.ask(key, PromptPassword)
	if !ok {
		d.send(key.channelID, TimeoutNotice)

		return
	}

	d.deleteMessage(key.channelID, password.messageID)
	d.send(key.channelID, LoggingIn)

	start := time.Now()

	r, err := d.report(d.ctx, strings.TrimSpace(username.content), password.content)

	switch {
	case errors.Is(err, fetch.ErrInvalidCredentials):
		d.send(key.channelID, LoginFailed)

		return
	case errors.Is(err, fetch.ErrConnectionFailed):
		logger.Warn().Msgf("Connection to PLATO failed for Discord user %v: %v", key.authorID, err)
		d.send(key.channelID, ConnectionFailed)

		return
	case err != nil && r.Empty() && len(r.Failures) == 0:
		logger.Warn().Msgf("Unable to fetch report for Discord user %v: %v", key.authorID, err)
		d.send(key.channelID, FetchFailed)

		return
	case err != nil:
		logger.Warn().Msgf("Partial report for Discord user %v: %v", key.authorID, err)
	}

	logger.Info().Msgf("Sending %d materials in %d courses to Discord user %v, fetched in %v", r.Count(),
		len(r.Courses), key.authorID, time.Since(start).Round(time.Millisecond))

	for _, m := range reportMessages(r) {
		d.send(key.channelID, m)
	}
}

// reportMessages renders the report as a sequence of chat messages, one per course.
func reportMessages(r msgtypes.Report) []string {
	msgs := make([]string, 0, len(r.Courses)+2)

	if r.Empty() && len(r.Failures) == 0 {
		msgs = append(msgs, format.NothingPending)
	}

	for _, c := range r.Courses {
		msgs = append(msgs, format.MarkupMsg(c))
	}

	if len(r.Failures) > 0 {
		names := make([]string, 0, len(r.Failures))
		for _, f := range r.Failures {
			names = append(names, f.Course.Name)
		}

		msgs = append(msgs, FailedCoursesNote+strings.Join(names, ", "))
	}

	msgs = append(msgs, format.Cheer)

	return msgs
}

// ask sends a prompt and waits for the next message of the same user in the same channel.
func (d *Discord) ask(key dialogKey, prompt string) (reply, bool) {
	ch := make(chan reply, 1)

	// register before prompting, the answer can arrive before send returns
	d.mu.Lock()
	d.pending[key] = ch
	d.mu.Unlock()

	d.send(key.channelID, prompt)

	timer := time.NewTimer(d.opts.PromptTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r, true
	case <-timer.C:
	case <-d.ctx.Done():
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending[key] == ch {
		delete(d.pending, key)
	}

	select {
	case r := <-ch:
		return r, true
	default:
		return reply{}, false
	}
}

// send posts a message, truncated to the Discord limit, with rate limiting and retries.
func (d *Discord) send(channelID, content string) {
	content = truncateWithEllipsis(content, DiscordMaxLen)

	d.rl.Take()

	// retryable and cancellable attempt to send a message
	err := retry.Do(
		func() error {
			_, err := d.api.ChannelMessageSend(channelID, content, discordgo.WithContext(d.ctx))

			return err
		},
		retry.Attempts(d.opts.Retries),
		retry.Context(d.ctx),
		retry.Delay(DiscordMinDelay),
	)
	if err != nil {
		logger.Error().Msgf("%v: %v", ErrDiscordSendingMessage, err)
	}
}

// deleteMessage removes the password message, which needs the Manage Messages permission in guild channels and
// is not possible in direct messages.
func (d *Discord) deleteMessage(channelID, messageID string) {
	if messageID == "" {
		return
	}

	if err := d.api.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(d.ctx)); err != nil {
		logger.Warn().Msgf("%v %q: %v", ErrDiscordDeleting, messageID, err)
	}
}
