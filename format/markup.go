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
	"strconv"
	"strings"

	"github.com/dkorunic/plato-bot/msgtypes"
)

const (
	markupCoursePrefix = "---------- 과목: "
	markupCourseSuffix = " ----------"
	daysLeftPrefix     = " - 마감까지 "
	daysLeftSuffix     = "일 남음"
)

// MarkupMsg formats a single course as bold Markup header followed by a preformatted block.
func MarkupMsg(c msgtypes.CourseReport) string {
	sb := &strings.Builder{}

	markupAddHeader(sb, c.Course.Name)

	sb.WriteString("```\n")
	markupFormatSection(sb, QuizHeader, c.Quizzes)
	markupFormatSection(sb, VideoHeader, c.Videos)
	markupFormatSection(sb, AssignHeader, c.Assignments)
	sb.WriteString("```\n")

	return sb.String()
}

// markupFormatSection lists materials of one kind with the whole days left until their deadline.
func markupFormatSection(sb *strings.Builder, title string, entries []msgtypes.Entry) {
	if len(entries) == 0 {
		return
	}

	sb.WriteString(title)
	sb.WriteString("\n")

	for _, e := range entries {
		sb.WriteString(e.Title)

		if e.RemainingDays != nil {
			sb.WriteString(daysLeftPrefix)
			sb.WriteString(strconv.Itoa(*e.RemainingDays))
			sb.WriteString(daysLeftSuffix)
		}

		sb.WriteString("\n")
	}
}

// markupAddHeader adds Markup bold header containing course name.
func markupAddHeader(sb *strings.Builder, course string) {
	sb.WriteString("**")
	sb.WriteString(markupCoursePrefix)
	sb.WriteString(course)
	sb.WriteString(markupCourseSuffix)
	sb.WriteString("**\n")
}
