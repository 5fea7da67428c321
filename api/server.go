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

// Package api implements the REST front end returning pending PLATO materials as JSON or iCalendar.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dkorunic/plato-bot/logger"
	"github.com/dkorunic/plato-bot/msgtypes"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	DefaultAddress    = "127.0.0.1:8000"
	RequestIDHeader   = "X-Request-ID"
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	requestIDKey      = "request_id"
)

var ErrServer = errors.New("HTTP server error")

// Options configure the REST server.
type Options struct {
	Report         msgtypes.ReportFunc
	Address        string
	DisableReqLogs bool
}

// Server wraps a gin engine serving report endpoints.
type Server struct {
	engine *gin.Engine
	opts   Options
}

// NewServer creates a Server with all routes registered.
func NewServer(opts Options) *Server {
	if opts.Address == "" {
		opts.Address = DefaultAddress
	}

	s := &Server{
		engine: gin.New(),
		opts:   opts,
	}
	s.setup()

	return s
}

func (s *Server) setup() {
	s.engine.Use(requestID())

	if !s.opts.DisableReqLogs {
		s.engine.Use(accessLog())
	}

	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", healthz)

	a := s.engine.Group("/api")
	a.GET("/plato", s.plato)
	a.POST("/plato", s.plato)
	a.GET("/plato.ics", s.platoICal)
	a.POST("/plato.ics", s.platoICal)
}

// ServeHTTP implements http.Handler, mostly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// Serve listens on the configured address until the context is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info().Msgf("Listening on http://%v", s.opts.Address)

		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("%w: %w", ErrServer, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info().Msg("Shutting down HTTP server")

	return srv.Shutdown(shutdownCtx) //nolint:contextcheck
}

// requestID tags every request with a random ID, reusing a well-formed incoming one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// accessLog logs every request through the global logger. Query strings are never logged since they can carry
// credentials.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info().
			Str("request_id", c.GetString(requestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("client", c.ClientIP()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}
