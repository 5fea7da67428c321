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
	"bytes"
	"strings"
	"time"

	"github.com/dkorunic/plato-bot/msgtypes"
	"github.com/google/uuid"
	"github.com/jordic/goics"
)

const (
	ICalProdID    = "-//plato-bot//PLATO deadlines//KO"
	iCalUTCLayout = "20060102T150405Z"
	iCalEventLen  = 30 * time.Minute
)

var iCalEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)

// Calendar wraps a report as an iCalendar feed with one event per material that has a deadline.
type Calendar struct {
	Report msgtypes.Report
}

// EmitICal implements goics.ICalEmiter.
func (c Calendar) EmitICal() goics.Componenter {
	cal := goics.NewComponent()
	cal.SetType("VCALENDAR")
	cal.AddProperty("VERSION", "2.0")
	cal.AddProperty("PRODID", ICalProdID)
	cal.AddProperty("CALSCALE", "GREGORIAN")
	cal.AddProperty("X-WR-CALNAME", "PLATO")

	stamp := c.Report.GeneratedAt.UTC().Format(iCalUTCLayout)

	for _, course := range c.Report.Courses {
		for _, group := range [][]msgtypes.Entry{course.Quizzes, course.Videos, course.Assignments} {
			for _, e := range group {
				if e.Due == nil {
					continue
				}

				cal.AddComponent(iCalEvent(course.Course, e, stamp))
			}
		}
	}

	return cal
}

// iCalEvent builds a VEVENT ending at the deadline. UID is derived from course, kind, title and deadline so
// repeated exports keep the same identity.
func iCalEvent(c msgtypes.Course, e msgtypes.Entry, stamp string) *goics.Component {
	due := e.Due.UTC()
	uid := uuid.NewSHA1(uuid.NameSpaceURL,
		[]byte(strings.Join([]string{c.ID, e.Kind.String(), e.Title, due.Format(iCalUTCLayout)}, "/")))

	ev := goics.NewComponent()
	ev.SetType("VEVENT")
	ev.AddProperty("UID", uid.String())
	ev.AddProperty("DTSTAMP", stamp)
	ev.AddProperty("DTSTART", due.Add(-iCalEventLen).Format(iCalUTCLayout))
	ev.AddProperty("DTEND", due.Format(iCalUTCLayout))
	ev.AddProperty("SUMMARY", iCalEscaper.Replace("["+e.Kind.String()+"] "+e.Title))
	ev.AddProperty("DESCRIPTION", iCalEscaper.Replace(c.Name))
	ev.AddProperty("CATEGORIES", strings.ToUpper(e.Kind.String()))

	return ev
}

// ICalMsg encodes the report as an iCalendar document.
func ICalMsg(r msgtypes.Report) string {
	var b bytes.Buffer

	goics.NewICalEncode(&b).Encode(Calendar{Report: r})

	return b.String()
}
