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

// Package scrape discovers enrolled courses and extracts outstanding quizzes, videos and assignments.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkorunic/plato-bot/deadline"
	"github.com/dkorunic/plato-bot/fetch"
	"github.com/dkorunic/plato-bot/logger"
	"github.com/dkorunic/plato-bot/msgtypes"
	"github.com/dkorunic/plato-bot/report"
	"github.com/hako/durafmt"
)

var ErrCourse = errors.New("error extracting course materials")

// Fetcher returns raw pages of one authenticated session. *fetch.Client implements it.
type Fetcher interface {
	GetDashboard() (string, error)
	GetQuizIndex(courseID string) (string, error)
	GetQuiz(href string) (string, error)
	GetVideoProgress(courseID string) (string, error)
	GetAssignIndex(courseID string) (string, error)
}

// Extractor turns pages of one session into courses and filtered materials. Calls are sequential and must not
// be made concurrently on the same Extractor.
type Extractor struct {
	fetcher Fetcher
	loc     *time.Location
	now     func() time.Time
}

// NewExtractor creates an Extractor reading pages through f. Deadlines are interpreted in loc and compared
// against now (time.Now when nil) at extraction time.
func NewExtractor(f Fetcher, loc *time.Location, now func() time.Time) *Extractor {
	if loc == nil {
		loc = time.Local
	}

	if now == nil {
		now = time.Now
	}

	return &Extractor{fetcher: f, loc: loc, now: now}
}

// Discover fetches the dashboard and returns enrolled courses.
func (e *Extractor) Discover() (msgtypes.Courses, error) {
	rawCourses, err := e.fetcher.GetDashboard()
	if err != nil {
		return msgtypes.Courses{}, err
	}

	courses, err := parseCourses(rawCourses)
	if err != nil {
		return msgtypes.Courses{}, err
	}

	if len(courses) == 0 {
		logger.Info().Msg("No courses found in the scraped content")
	}

	return courses, nil
}

// ExtractQuizzes fetches the quiz listing of a course and every quiz detail page, one at a time. A quiz is
// retained when it is not completed and its deadline is absent or in the future. A failed detail fetch aborts
// the whole extraction.
func (e *Extractor) ExtractQuizzes(courseID string) (msgtypes.Extraction, error) {
	ex := msgtypes.Extraction{Kind: msgtypes.Quiz}

	rawQuizzes, err := e.fetcher.GetQuizIndex(courseID)
	if err != nil {
		return ex, err
	}

	rows, err := parseQuizIndex(rawQuizzes)
	if err != nil {
		return ex, err
	}

	for _, q := range rows {
		r := msgtypes.Row{
			Index:    q.index,
			Reason:   q.reason,
			Material: msgtypes.Material{Title: q.title, Kind: msgtypes.Quiz},
		}

		if r.Reason == msgtypes.ReasonNone {
			// requires additional fetch
			rawQuiz, err := e.fetcher.GetQuiz(q.href)
			if err != nil {
				return ex, err
			}

			completed, dueText, err := parseQuizDetail(rawQuiz)
			if err != nil {
				return ex, err
			}

			r.Material.Due = deadline.ParseInLocation(dueText, e.loc)

			switch {
			case completed:
				r.Reason = msgtypes.ReasonCompleted
			case isPastDue(r.Material.Due, e.now()):
				r.Reason = msgtypes.ReasonExpired
			}
		}

		ex.Rows = append(ex.Rows, logRow(courseID, r))
	}

	return ex, nil
}

// ExtractVideos fetches the video progress table of a course. A video is retained when it has a title and is
// not marked as watched.
func (e *Extractor) ExtractVideos(courseID string) (msgtypes.Extraction, error) {
	ex := msgtypes.Extraction{Kind: msgtypes.Video}

	rawVideos, err := e.fetcher.GetVideoProgress(courseID)
	if err != nil {
		return ex, err
	}

	rows, err := parseVideos(rawVideos)
	if err != nil {
		return ex, err
	}

	for _, r := range rows {
		ex.Rows = append(ex.Rows, logRow(courseID, r))
	}

	return ex, nil
}

// ExtractAssignments fetches the assignment listing of a course. An assignment is retained when it has not been
// submitted and its deadline is absent or in the future.
func (e *Extractor) ExtractAssignments(courseID string) (msgtypes.Extraction, error) {
	ex := msgtypes.Extraction{Kind: msgtypes.Assignment}

	rawAssignments, err := e.fetcher.GetAssignIndex(courseID)
	if err != nil {
		return ex, err
	}

	rows, err := parseAssignments(rawAssignments)
	if err != nil {
		return ex, err
	}

	for _, a := range rows {
		r := msgtypes.Row{
			Index:    a.index,
			Reason:   a.reason,
			Material: msgtypes.Material{Title: a.title, Kind: msgtypes.Assignment},
		}

		if r.Reason == msgtypes.ReasonNone {
			r.Material.Due = deadline.ParseInLocation(a.due, e.loc)

			switch {
			case a.status != NotSubmitted:
				r.Reason = msgtypes.ReasonSubmitted
			case isPastDue(r.Material.Due, e.now()):
				r.Reason = msgtypes.ReasonExpired
			}
		}

		ex.Rows = append(ex.Rows, logRow(courseID, r))
	}

	return ex, nil
}

// ExtractCourse runs all three extractors for a single course, stopping at the first error.
func (e *Extractor) ExtractCourse(c msgtypes.Course) (msgtypes.CourseMaterials, error) {
	quizzes, err := e.ExtractQuizzes(c.ID)
	if err != nil {
		return msgtypes.CourseMaterials{}, err
	}

	videos, err := e.ExtractVideos(c.ID)
	if err != nil {
		return msgtypes.CourseMaterials{}, err
	}

	assignments, err := e.ExtractAssignments(c.ID)
	if err != nil {
		return msgtypes.CourseMaterials{}, err
	}

	return msgtypes.CourseMaterials{
		Course:      c,
		Quizzes:     quizzes.Materials(),
		Videos:      videos.Materials(),
		Assignments: assignments.Materials(),
	}, nil
}

// GetReport logs in, discovers courses and extracts materials of every course, one at a time. Authentication
// errors are returned right away. A course whose extraction fails is left out of the report and recorded as a
// failure, and the remaining courses are still processed; the returned error then joins all course errors.
func GetReport(ctx context.Context, opts fetch.Options, loc *time.Location, username, password string) (msgtypes.Report, error) {
	start := time.Now()

	client, err := fetch.NewClientWithContext(ctx, opts)
	if err != nil {
		return msgtypes.Report{}, err
	}

	defer client.CloseConnections()

	if err := client.Login(username, password); err != nil {
		return msgtypes.Report{}, err
	}

	logger.Debug().Msg("Logged in to PLATO")

	e := NewExtractor(client, loc, nil)

	courses, err := e.Discover()
	if err != nil {
		return msgtypes.Report{}, err
	}

	logger.Debug().Msgf("Found %d courses: %+v", len(courses), courses)

	extracted := make([]msgtypes.CourseMaterials, 0, len(courses))

	var (
		failures []msgtypes.CourseFailure
		errs     []error
	)

	for _, c := range courses {
		select {
		case <-ctx.Done():
			return msgtypes.Report{}, ctx.Err()
		default:
		}

		logger.Debug().Msgf("Fetching quizzes, videos and assignments for course %v, course ID %v", c.Name, c.ID)

		m, err := e.ExtractCourse(c)
		if err != nil {
			logger.Warn().Msgf("%v %v (%v): %v", ErrCourse, c.Name, c.ID, err)

			failures = append(failures, msgtypes.CourseFailure{Course: c, Err: err})
			errs = append(errs, fmt.Errorf("%w %v (%v): %w", ErrCourse, c.Name, c.ID, err))

			continue
		}

		extracted = append(extracted, m)
	}

	r := report.Aggregate(extracted, time.Now())
	r.Failures = failures

	logger.Info().Msgf("Extracted %d pending materials in %d of %d courses in %v", r.Count(), len(r.Courses),
		len(courses), durafmt.Parse(time.Since(start)).LimitFirstN(2))

	return r, errors.Join(errs...)
}

// isPastDue checks if a deadline exists and is not strictly in the future.
func isPastDue(due *time.Time, now time.Time) bool {
	return due != nil && !now.Before(*due)
}

// logRow logs skipped rows, structural problems as warnings and filtered rows for debugging only.
func logRow(courseID string, r msgtypes.Row) msgtypes.Row {
	switch {
	case r.Retained():
	case r.Reason.Structural():
		logger.Warn().Msgf("Skipping %v row %d in course %v: %v", r.Material.Kind, r.Index, courseID, r.Reason)
	default:
		logger.Debug().Msgf("Filtered %v %q in course %v: %v", r.Material.Kind, r.Material.Title, courseID,
			r.Reason)
	}

	return r
}
