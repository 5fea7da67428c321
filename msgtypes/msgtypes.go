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

// Package msgtypes holds the data model shared between the scraping core and the front ends.
package msgtypes

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind is a category of course material.
type Kind int

const (
	Quiz Kind = iota
	Video
	Assignment
)

var ErrUnknownKind = errors.New("unknown material kind")

var kindNames = [...]string{
	Quiz:       "quiz",
	Video:      "video",
	Assignment: "assignment",
}

// String returns a lowercase kind name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}

	return kindNames[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}

	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, n := range kindNames {
		if n == string(text) {
			*k = Kind(i)

			return nil
		}
	}

	return fmt.Errorf("%w: %q", ErrUnknownKind, text)
}

// Course is a single enrolled course.
type Course struct {
	ID   string
	Name string
}

// Courses is a slice of Course structure.
type Courses []Course

// Material is a quiz, video lecture or assignment. Nil Due means no deadline.
type Material struct {
	Due   *time.Time
	Title string
	Kind  Kind
}

// Reason tells why a listing row was not retained.
type Reason int

const (
	ReasonNone        Reason = iota // retained
	ReasonMissingCell               // row has fewer cells than expected
	ReasonMissingLink               // row has no detail link
	ReasonCompleted                 // quiz detail page shows a completion marker
	ReasonExpired                   // deadline already passed
	ReasonSubmitted                 // assignment status is not "not submitted"
	ReasonWatched                   // video marked as complete
	ReasonEmptyTitle                // video row without a title
)

var reasonNames = [...]string{
	ReasonNone:        "retained",
	ReasonMissingCell: "missing cell",
	ReasonMissingLink: "missing link",
	ReasonCompleted:   "completed",
	ReasonExpired:     "past due",
	ReasonSubmitted:   "already submitted",
	ReasonWatched:     "already watched",
	ReasonEmptyTitle:  "empty title",
}

func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return fmt.Sprintf("reason(%d)", int(r))
	}

	return reasonNames[r]
}

// Structural reports whether the row was skipped because of page structure rather than filtering.
func (r Reason) Structural() bool {
	return r == ReasonMissingCell || r == ReasonMissingLink
}

// Row is the outcome of processing a single listing row.
type Row struct {
	Material Material
	Index    int
	Reason   Reason
}

// Retained reports whether the row produced a material.
func (r Row) Retained() bool {
	return r.Reason == ReasonNone
}

// Extraction holds all processed rows of one listing page.
type Extraction struct {
	Rows []Row
	Kind Kind
}

// Materials returns retained materials in row order.
func (e Extraction) Materials() []Material {
	var m []Material

	for _, r := range e.Rows {
		if r.Retained() {
			m = append(m, r.Material)
		}
	}

	return m
}

// Skipped returns rows that were filtered out or could not be parsed.
func (e Extraction) Skipped() []Row {
	var s []Row

	for _, r := range e.Rows {
		if !r.Retained() {
			s = append(s, r)
		}
	}

	return s
}

// CourseMaterials is a course together with its extracted materials.
type CourseMaterials struct {
	Course      Course
	Quizzes     []Material
	Videos      []Material
	Assignments []Material
}

// Empty reports whether all material lists are empty.
func (c CourseMaterials) Empty() bool {
	return len(c.Quizzes) == 0 && len(c.Videos) == 0 && len(c.Assignments) == 0
}

// Entry is a retained material with the number of whole days left until its deadline.
type Entry struct {
	RemainingDays *int
	Material
}

// CourseReport is a single course in the final report.
type CourseReport struct {
	Course      Course
	Quizzes     []Entry
	Videos      []Entry
	Assignments []Entry
}

// CourseFailure is a course whose extraction was aborted.
type CourseFailure struct {
	Err    error
	Course Course
}

// Report is the final aggregated structure handed to a front end.
type Report struct {
	GeneratedAt time.Time
	Courses     []CourseReport
	Failures    []CourseFailure
}

// Empty reports whether the report has no courses.
func (r Report) Empty() bool {
	return len(r.Courses) == 0
}

// Count returns the total number of materials in the report.
func (r Report) Count() int {
	var n int

	for _, c := range r.Courses {
		n += len(c.Quizzes) + len(c.Videos) + len(c.Assignments)
	}

	return n
}

// ReportFunc logs in with the given credentials and builds a report. Front ends call it once per request.
type ReportFunc func(ctx context.Context, username, password string) (Report, error)
