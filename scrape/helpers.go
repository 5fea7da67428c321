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

package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dkorunic/plato-bot/logger"
	"github.com/dkorunic/plato-bot/msgtypes"
)

const (
	CompleteMarker = "O"        // video progress cell for a fully watched lecture
	NotSubmitted   = "미제출"    // assignment status for missing submission
	QuizDueLabel   = "종료일시"   // quiz info line carrying the closing time
	courseIDParam  = "id"       // course link query parameter
	videoBareCells = 4          // video row without a leading section cell
	textNode       = "#text"    // goquery.NodeName of a text node
	commentNode    = "#comment" // goquery.NodeName of a comment node
)

const (
	courseLinkSelector   = ".course-link"
	courseTitleSelector  = ".course-title > h3"
	listingRowSelector   = ".generaltable > tbody > tr"
	quizLinkSelector     = "td > a"
	quizDoneSelector     = "div[role=main] > h3"
	quizInfoSelector     = ".quizinfo > p"
	videoRowSelector     = ".user_progress_table > tbody > tr"
	assignTitleCell      = 1
	assignDueCell        = 2
	assignStatusCell     = 3
	videoWatchedCellDiff = 3
)

// quizRow is a single quiz listing row before its detail page is fetched.
type quizRow struct {
	title  string
	href   string
	index  int
	reason msgtypes.Reason
}

// assignRow is a single assignment listing row before deadline filtering.
type assignRow struct {
	title  string
	due    string
	status string
	index  int
	reason msgtypes.Reason
}

// parseCourses extracts enrolled courses from raw string (dashboard response body). Duplicate course IDs are
// dropped, and no matches at all yields an empty list.
func parseCourses(rawCourses string) (msgtypes.Courses, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawCourses))
	if err != nil {
		return msgtypes.Courses{}, err
	}

	courses := msgtypes.Courses{}
	seen := make(map[string]struct{})

	doc.Find(courseLinkSelector).
		Each(func(i int, link *goquery.Selection) {
			href, hrefOK := link.Attr("href")
			if !hrefOK {
				logger.Warn().Msgf("Course link %d has no href, skipping", i)

				return
			}

			id := courseID(href)
			if id == "" {
				logger.Warn().Msgf("Course link %q has no course ID, skipping", href)

				return
			}

			if _, ok := seen[id]; ok {
				logger.Debug().Msgf("Duplicate course ID %v, skipping", id)

				return
			}

			seen[id] = struct{}{}

			// course name is in nested title, fall back to the whole link text
			title := link.Find(courseTitleSelector).First()
			if title.Length() == 0 {
				title = link
			}

			courses = append(courses, msgtypes.Course{
				ID:   id,
				Name: courseName(title.Text()),
			})
		})

	return courses, nil
}

// courseID returns the trailing query parameter value of a course link.
func courseID(href string) string {
	if u, err := url.Parse(href); err == nil {
		if id := u.Query().Get(courseIDParam); id != "" {
			return id
		}
	}

	if i := strings.LastIndex(href, "="); i >= 0 {
		return strings.TrimSpace(href[i+1:])
	}

	return ""
}

// courseName strips the parenthetical section/semester suffix from a course title.
func courseName(title string) string {
	name, _, _ := strings.Cut(title, "(")

	return trimAllSpace(name)
}

// parseQuizIndex extracts quiz titles and detail links from the quiz listing page.
func parseQuizIndex(rawQuizzes string) ([]quizRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawQuizzes))
	if err != nil {
		return nil, err
	}

	var rows []quizRow

	doc.Find(listingRowSelector).
		Each(func(i int, row *goquery.Selection) {
			q := quizRow{index: i}

			a := row.Find(quizLinkSelector).First()
			href, hrefOK := a.Attr("href")

			if a.Length() == 0 || !hrefOK || strings.TrimSpace(href) == "" {
				q.reason = msgtypes.ReasonMissingLink
			} else {
				q.title = trimAllSpace(a.Text())
				q.href = href
			}

			rows = append(rows, q)
		})

	return rows, nil
}

// parseQuizDetail checks the quiz detail page for a completion marker and returns the raw closing time text
// (empty when there is none).
func parseQuizDetail(rawQuiz string) (bool, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawQuiz))
	if err != nil {
		return false, "", err
	}

	completed := doc.Find(quizDoneSelector).Length() > 0

	var due string

	doc.Find(quizInfoSelector).
		EachWithBreak(func(_ int, p *goquery.Selection) bool {
			txt := strings.TrimSpace(p.Text())
			if !strings.HasPrefix(txt, QuizDueLabel) {
				return true
			}

			// "종료일시 : 2024-05-01 23:59"
			txt = strings.TrimSpace(strings.TrimPrefix(txt, QuizDueLabel))
			due = strings.TrimSpace(strings.TrimPrefix(txt, ":"))

			return false
		})

	return completed, due, nil
}

// parseVideos extracts video rows from the progress table. Rows with a leading section cell shift title and
// watched marker one column to the right.
func parseVideos(rawVideos string) ([]msgtypes.Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawVideos))
	if err != nil {
		return nil, err
	}

	var rows []msgtypes.Row

	doc.Find(videoRowSelector).
		Each(func(i int, tr *goquery.Selection) {
			r := msgtypes.Row{
				Index:    i,
				Material: msgtypes.Material{Kind: msgtypes.Video},
			}

			offset := 1
			if childNodes(tr) == videoBareCells {
				offset = 0
			}

			tds := tr.Find("td")
			if tds.Length() <= offset+videoWatchedCellDiff {
				r.Reason = msgtypes.ReasonMissingCell
				rows = append(rows, r)

				return
			}

			r.Material.Title = trimAllSpace(tds.Eq(offset).Text())
			watched := strings.TrimSpace(tds.Eq(offset + videoWatchedCellDiff).Text())

			switch {
			case r.Material.Title == "":
				r.Reason = msgtypes.ReasonEmptyTitle
			case watched == CompleteMarker:
				r.Reason = msgtypes.ReasonWatched
			}

			rows = append(rows, r)
		})

	return rows, nil
}

// parseAssignments extracts title, deadline text and submission status from the assignment listing page.
func parseAssignments(rawAssignments string) ([]assignRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawAssignments))
	if err != nil {
		return nil, err
	}

	var rows []assignRow

	doc.Find(listingRowSelector).
		Each(func(i int, tr *goquery.Selection) {
			a := assignRow{index: i}

			tds := tr.Find("td")
			if tds.Length() <= assignStatusCell {
				a.reason = msgtypes.ReasonMissingCell
				rows = append(rows, a)

				return
			}

			a.title = trimAllSpace(tds.Eq(assignTitleCell).Text())
			a.due = strings.TrimSpace(tds.Eq(assignDueCell).Text())
			a.status = strings.TrimSpace(tds.Eq(assignStatusCell).Text())

			rows = append(rows, a)
		})

	return rows, nil
}

// childNodes counts direct child nodes, ignoring comments and whitespace-only text between cells.
func childNodes(s *goquery.Selection) int {
	var n int

	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case commentNode:
			return
		case textNode:
			if strings.TrimSpace(c.Text()) == "" {
				return
			}
		}

		n++
	})

	return n
}

// trimAllSpace collapses all whitespace runs, newlines included, into single spaces.
func trimAllSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
