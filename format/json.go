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

package format

import (
	"time"

	"github.com/dkorunic/plato-bot/msgtypes"
)

// MaterialView is the JSON form of a single pending material.
type MaterialView struct {
	Due           *time.Time `json:"due,omitempty"`
	RemainingDays *int       `json:"remaining_days,omitempty"`
	Title         string     `json:"title"`
}

// CourseView is the JSON form of a single course.
type CourseView struct {
	CourseID    string         `json:"course_id"`
	CourseName  string         `json:"course_name"`
	Quizzes     []MaterialView `json:"quizzes"`
	Videos      []MaterialView `json:"videos"`
	Assignments []MaterialView `json:"assignments"`
}

// FailureView is the JSON form of a course that could not be extracted.
type FailureView struct {
	CourseID   string `json:"course_id"`
	CourseName string `json:"course_name"`
	Error      string `json:"error"`
}

// JSONView converts a report into serializable course and failure lists. Material lists are never nil so they
// encode as empty arrays.
func JSONView(r msgtypes.Report) ([]CourseView, []FailureView) {
	courses := make([]CourseView, 0, len(r.Courses))

	for _, c := range r.Courses {
		courses = append(courses, CourseView{
			CourseID:    c.Course.ID,
			CourseName:  c.Course.Name,
			Quizzes:     materialViews(c.Quizzes),
			Videos:      materialViews(c.Videos),
			Assignments: materialViews(c.Assignments),
		})
	}

	var failures []FailureView

	for _, f := range r.Failures {
		fv := FailureView{CourseID: f.Course.ID, CourseName: f.Course.Name}
		if f.Err != nil {
			fv.Error = f.Err.Error()
		}

		failures = append(failures, fv)
	}

	return courses, failures
}

func materialViews(entries []msgtypes.Entry) []MaterialView {
	v := make([]MaterialView, 0, len(entries))

	for _, e := range entries {
		v = append(v, MaterialView{
			Title:         e.Title,
			Due:           e.Due,
			RemainingDays: e.RemainingDays,
		})
	}

	return v
}
