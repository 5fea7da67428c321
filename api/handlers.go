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

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dkorunic/plato-bot/fetch"
	"github.com/dkorunic/plato-bot/format"
	"github.com/dkorunic/plato-bot/logger"
	"github.com/dkorunic/plato-bot/msgtypes"
	"github.com/gin-gonic/gin"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"

	MsgSuccess            = "성공하였습니다."
	MsgPartial            = "일부 강좌의 학습 자료를 불러오지 못했습니다."
	MsgMissingCredentials = "아이디와 비밀번호를 입력해주세요."
	MsgLoginFailed        = "로그인 실패"
	MsgUpstreamFailed     = "PLATO에 연결할 수 없습니다."
	MsgInternal           = "내부 서버 오류"

	iCalContentType = "text/calendar; charset=utf-8"
)

// Response is the JSON envelope of every API answer.
type Response struct {
	Status   string               `json:"status"`
	Message  string               `json:"message"`
	Data     []format.CourseView  `json:"data"`
	Failures []format.FailureView `json:"failures,omitempty"`
}

// credentials reads username and password from the query string or a submitted form.
func credentials(c *gin.Context) (string, string, bool) {
	username := strings.TrimSpace(c.Query("username"))
	password := c.Query("password")

	if username == "" {
		username = strings.TrimSpace(c.PostForm("username"))
	}

	if password == "" {
		password = c.PostForm("password")
	}

	return username, password, username != "" && password != ""
}

// fetchReport runs the report function and maps errors to HTTP status codes. It writes the error response itself
// and returns false when the caller should stop.
func (s *Server) fetchReport(c *gin.Context) (msgtypes.Report, bool) {
	username, password, ok := credentials(c)
	if !ok {
		c.JSON(http.StatusBadRequest, Response{Status: StatusError, Message: MsgMissingCredentials})

		return msgtypes.Report{}, false
	}

	r, err := s.opts.Report(c.Request.Context(), username, password)

	switch {
	case err == nil:
		return r, true
	case errors.Is(err, fetch.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, Response{Status: StatusError, Message: MsgLoginFailed})

		return r, false
	case errors.Is(err, fetch.ErrConnectionFailed), r.Empty() && len(r.Failures) == 0 && errors.Is(err, fetch.ErrFetch):
		logger.Warn().Str("request_id", c.GetString(requestIDKey)).Msgf("PLATO unreachable: %v", err)
		c.JSON(http.StatusBadGateway, Response{Status: StatusError, Message: MsgUpstreamFailed})

		return r, false
	case r.Empty() && len(r.Failures) == 0:
		logger.Error().Str("request_id", c.GetString(requestIDKey)).Msgf("Unable to build report: %v", err)
		c.JSON(http.StatusInternalServerError, Response{Status: StatusError, Message: MsgInternal})

		return r, false
	}

	// course failures are reported next to the partial result
	logger.Warn().Str("request_id", c.GetString(requestIDKey)).Msgf("Partial report: %v", err)

	return r, true
}

func (s *Server) plato(c *gin.Context) {
	r, ok := s.fetchReport(c)
	if !ok {
		return
	}

	data, failures := format.JSONView(r)

	msg := MsgSuccess
	if len(failures) > 0 {
		msg = MsgPartial
	}

	c.JSON(http.StatusOK, Response{
		Status:   StatusOK,
		Message:  msg,
		Data:     data,
		Failures: failures,
	})
}

func (s *Server) platoICal(c *gin.Context) {
	r, ok := s.fetchReport(c)
	if !ok {
		return
	}

	c.Header("Content-Disposition", `inline; filename="plato.ics"`)
	c.Data(http.StatusOK, iCalContentType, []byte(format.ICalMsg(r)))
}

func healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": StatusOK})
}
