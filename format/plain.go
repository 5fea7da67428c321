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

// Package format renders reports for the terminal, chat, REST and calendar front ends.
package format

import (
	"strings"

	"github.com/dkorunic/plato-bot/deadline"
	"github.com/dkorunic/plato-bot/msgtypes"
	"github.com/dustin/go-humanize"
)

// Labels used by the cleartext renderer.
const (
	CoursePrefix   = "---------- 과목 : "
	QuizHeader     = "[Quiz]"
	VideoHeader    = "[Videos]"
	AssignHeader   = "[Homeworks]"
	DuePrefix      = "   * 마감 : "
	NothingPending = "완료하지 않은 학습 활동이 없습니다."
	Cheer          = "화이팅٩( ᐛ )و"
)

// PlainMsg formats the whole report as cleartext, one block per course with materials grouped by kind.
func PlainMsg(r msgtypes.Report) string {
	sb := &strings.Builder{}

	if r.Empty() {
		sb.WriteString(NothingPending)
		sb.WriteString("\n")

		return sb.String()
	}

	for _, c := range r.Courses {
		plainAddHeader(sb, c.Course.Name)
		plainFormatSection(sb, QuizHeader, c.Quizzes, r)
		plainFormatSection(sb, VideoHeader, c.Videos, r)
		plainFormatSection(sb, AssignHeader, c.Assignments, r)
		sb.WriteString("\n")
	}

	return sb.String()
}

// plainFormatSection adds a titled list of materials, deadlines are printed with a relative time next to them.
//
//nolint:interfacer
func plainFormatSection(sb *strings.Builder, title string, entries []msgtypes.Entry, r msgtypes.Report) {
	if len(entries) == 0 {
		return
	}

	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")

	for _, e := range entries {
		sb.WriteString(" - ")
		sb.WriteString(e.Title)
		sb.WriteString("\n")

		if e.Due == nil {
			continue
		}

		sb.WriteString(DuePrefix)
		sb.WriteString(e.Due.Format(deadline.Layout))
		sb.WriteString(" (")
		sb.WriteString(humanize.RelTime(*e.Due, r.GeneratedAt, "ago", "from now"))
		sb.WriteString(")\n")
	}
}

// plainAddHeader adds cleartext course header.
func plainAddHeader(sb *strings.Builder, course string) {
	sb.WriteString(CoursePrefix)
	sb.WriteString(course)
	sb.WriteString("\n")
}
