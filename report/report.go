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

// Package report merges per-course extraction results into the final report.
package report

import (
	"math"
	"time"

	"github.com/dkorunic/plato-bot/msgtypes"
)

const day = 24 * time.Hour

// Aggregate builds a report from extracted courses. Courses without any material are dropped, course and
// material order is preserved, and every material with a deadline gets the number of whole days left until it
// relative to now.
func Aggregate(courses []msgtypes.CourseMaterials, now time.Time) msgtypes.Report {
	r := msgtypes.Report{GeneratedAt: now}

	for _, c := range courses {
		if c.Empty() {
			continue
		}

		r.Courses = append(r.Courses, msgtypes.CourseReport{
			Course:      c.Course,
			Quizzes:     entries(c.Quizzes, now),
			Videos:      entries(c.Videos, now),
			Assignments: entries(c.Assignments, now),
		})
	}

	return r
}

// RemainingDays returns floor((due - now) / 24h), so anything due within the next day counts as 0 days left and
// an overdue item yields a negative count.
func RemainingDays(due, now time.Time) int {
	return int(math.Floor(float64(due.Sub(now)) / float64(day)))
}

func entries(materials []msgtypes.Material, now time.Time) []msgtypes.Entry {
	if len(materials) == 0 {
		return nil
	}

	e := make([]msgtypes.Entry, 0, len(materials))

	for _, m := range materials {
		entry := msgtypes.Entry{Material: m}

		if m.Due != nil {
			days := RemainingDays(*m.Due, now)
			entry.RemainingDays = &days
		}

		e = append(e, entry)
	}

	return e
}
