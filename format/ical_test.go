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
	"strings"
	"testing"
	"time"
)

func TestICalMsg(t *testing.T) {
	t.Parallel()

	result := ICalMsg(testReport())

	expected := []string{
		"BEGIN:VCALENDAR",
		"PRODID:" + ICalProdID,
		"DTEND:20240510T235900Z",
		"DTSTART:20240510T232900Z",
		"DTEND:20240502T180000Z",
		"DTSTAMP:20240501T120000Z",
		`SUMMARY:[assignment] Essay`,
		"DESCRIPTION:Data Structures",
		"END:VCALENDAR",
	}

	for _, e := range expected {
		if !strings.Contains(result, e) {
			t.Errorf("ICalMsg() missing %q in:\n%s", e, result)
		}
	}

	// undated materials have no event
	if n := strings.Count(result, "BEGIN:VEVENT"); n != 2 {
		t.Errorf("Expected 2 events, got %d", n)
	}
}

func TestICalStableUID(t *testing.T) {
	t.Parallel()

	uid := func(s string) string {
		i := strings.Index(s, "UID:")
		if i < 0 {
			return ""
		}

		return s[i : i+len("UID:")+36]
	}

	a := uid(ICalMsg(testReport()))
	if a == "" {
		t.Fatal("Missing UID")
	}

	r := testReport()
	r.GeneratedAt = r.GeneratedAt.Add(time.Hour)

	if b := uid(ICalMsg(r)); a != b {
		t.Errorf("Expected stable UID, got %q and %q", a, b)
	}
}

func TestICalEscape(t *testing.T) {
	t.Parallel()

	if got := iCalEscaper.Replace("a,b;c\nd"); got != `a\,b\;c\nd` {
		t.Errorf("Unexpected escaping %q", got)
	}
}
