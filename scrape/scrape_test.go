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
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dkorunic/plato-bot/fetch"
	"github.com/dkorunic/plato-bot/msgtypes"
)

var (
	testNow   = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	errServer = errors.New("server went away")
)

const (
	dashboardHTML = `
	<div class="course-list">
		<a class="course-link" href="https://plato.pusan.ac.kr/course/view.php?id=101">
			<div class="course-title"><h3>Data Structures (001) [2024-1]</h3></div>
		</a>
		<a class="course-link" href="/course/view.php?id=202">
			<div class="course-title"><h3>
				Operating Systems
			</h3></div>
		</a>
		<a class="course-link" href="/course/view.php?id=101">
			<div class="course-title"><h3>Data Structures (001)</h3></div>
		</a>
		<a class="course-link"><div class="course-title"><h3>No link</h3></div></a>
	</div>`

	quizIndexHTML = `
	<table class="generaltable"><tbody>
		<tr><td>1</td><td><a href="view.php?id=1">Yesterday quiz</a></td></tr>
		<tr><td>2</td><td><a href="view.php?id=2">Open quiz</a></td></tr>
		<tr><td>3</td><td><a href="view.php?id=3">Done quiz</a></td></tr>
	</tbody></table>`

	quizYesterdayHTML = `
	<div role="main"><div class="quizinfo">
		<p>시작일시 : 2024-04-01 00:00</p>
		<p>종료일시 : 2024-04-30 23:59</p>
	</div></div>`

	quizOpenHTML = `<div role="main"><div class="quizinfo"><p>제한시간 : 30분</p></div></div>`

	quizDoneHTML = `
	<div role="main">
		<h3>이전 시도 요약</h3>
		<div class="quizinfo"><p>종료일시 : 2024-06-01 23:59</p></div>
	</div>`

	videoHTML = `
	<table class="user_progress_table"><tbody>
		<tr><td rowspan="3">Week 1</td><td>Intro lecture</td><td>10:00</td><td>10:00</td><td>O</td></tr>
		<tr><td>Second lecture</td><td>20:00</td><td>05:00</td><td>X</td></tr>
		<tr><td></td><td>20:00</td><td>05:00</td><td>X</td></tr>
		<tr><td>Week 2</td><td>Third lecture</td><td>15:00</td><td>00:00</td><td></td></tr>
		<tr><td>Broken</td></tr>
	</tbody></table>`

	assignHTML = `
	<table class="generaltable"><tbody>
		<tr><td>1</td><td>Essay</td><td>2024-05-10 23:59</td><td>미제출</td></tr>
		<tr><td>2</td><td>Lab report</td><td>2024-04-10 23:59</td><td>미제출</td></tr>
		<tr><td>3</td><td>Homework</td><td>2024-05-10T23:59</td><td>제출 완료</td></tr>
		<tr><td>4</td><td>Reading</td><td>-</td><td>미제출</td></tr>
		<tr><td>5</td><td>Garbled</td><td>soon</td><td>미제출</td></tr>
		<tr><td>6</td><td>Too short</td></tr>
	</tbody></table>`
)

// fakeFetcher serves canned pages keyed by course ID or quiz link.
type fakeFetcher struct {
	dashboard string
	quizIndex map[string]string
	quizzes   map[string]string
	videos    map[string]string
	assigns   map[string]string
	fail      map[string]bool
	calls     []string
}

func (f *fakeFetcher) page(kind, key string, pages map[string]string) (string, error) {
	f.calls = append(f.calls, kind+":"+key)

	if f.fail[kind+":"+key] {
		return "", fmt.Errorf("%w: %w", fetch.ErrFetch, errServer)
	}

	return pages[key], nil
}

func (f *fakeFetcher) GetDashboard() (string, error) {
	return f.page("dashboard", "", map[string]string{"": f.dashboard})
}

func (f *fakeFetcher) GetQuizIndex(courseID string) (string, error) {
	return f.page("quizindex", courseID, f.quizIndex)
}

func (f *fakeFetcher) GetQuiz(href string) (string, error) {
	return f.page("quiz", href, f.quizzes)
}

func (f *fakeFetcher) GetVideoProgress(courseID string) (string, error) {
	return f.page("video", courseID, f.videos)
}

func (f *fakeFetcher) GetAssignIndex(courseID string) (string, error) {
	return f.page("assign", courseID, f.assigns)
}

func newFake() *fakeFetcher {
	return &fakeFetcher{
		dashboard: dashboardHTML,
		quizIndex: map[string]string{"101": quizIndexHTML},
		quizzes: map[string]string{
			"view.php?id=1": quizYesterdayHTML,
			"view.php?id=2": quizOpenHTML,
			"view.php?id=3": quizDoneHTML,
		},
		videos:  map[string]string{"101": videoHTML},
		assigns: map[string]string{"101": assignHTML},
		fail:    map[string]bool{},
	}
}

func newTestExtractor(f Fetcher) *Extractor {
	return NewExtractor(f, time.UTC, func() time.Time { return testNow })
}

func titles(m []msgtypes.Material) []string {
	var t []string
	for _, x := range m {
		t = append(t, x.Title)
	}

	return t
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	courses, err := newTestExtractor(newFake()).Discover()
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	expected := msgtypes.Courses{
		{ID: "101", Name: "Data Structures"},
		{ID: "202", Name: "Operating Systems"},
	}

	if !reflect.DeepEqual(courses, expected) {
		t.Errorf("Expected %+v, got %+v", expected, courses)
	}
}

func TestDiscoverNoCourses(t *testing.T) {
	t.Parallel()

	f := newFake()
	f.dashboard = `<html><body><p>Welcome</p></body></html>`

	courses, err := newTestExtractor(f).Discover()
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	if courses == nil || len(courses) != 0 {
		t.Errorf("Expected empty non-nil courses, got %#v", courses)
	}
}

func TestCourseID(t *testing.T) {
	t.Parallel()

	testCases := map[string]string{
		"https://plato.pusan.ac.kr/course/view.php?id=123": "123",
		"/course/view.php?foo=bar&id=77":                   "77",
		"view.php?section=2&cid=55":                        "55",
		"/course/view.php":                                 "",
	}

	for href, expected := range testCases {
		if got := courseID(href); got != expected {
			t.Errorf("courseID(%q) = %q, want %q", href, got, expected)
		}
	}
}

func TestExtractQuizzes(t *testing.T) {
	t.Parallel()

	f := newFake()

	ex, err := newTestExtractor(f).ExtractQuizzes("101")
	if err != nil {
		t.Fatalf("ExtractQuizzes() failed: %v", err)
	}

	materials := ex.Materials()
	if len(materials) != 1 {
		t.Fatalf("Expected exactly 1 quiz, got %+v", materials)
	}

	if materials[0].Title != "Open quiz" || materials[0].Due != nil || materials[0].Kind != msgtypes.Quiz {
		t.Errorf("Unexpected quiz %+v", materials[0])
	}

	reasons := []msgtypes.Reason{ex.Rows[0].Reason, ex.Rows[1].Reason, ex.Rows[2].Reason}
	expected := []msgtypes.Reason{msgtypes.ReasonExpired, msgtypes.ReasonNone, msgtypes.ReasonCompleted}

	if !reflect.DeepEqual(reasons, expected) {
		t.Errorf("Expected reasons %v, got %v", expected, reasons)
	}

	// one detail fetch per row, in listing order
	expectedCalls := []string{"quizindex:101", "quiz:view.php?id=1", "quiz:view.php?id=2", "quiz:view.php?id=3"}
	if !reflect.DeepEqual(f.calls, expectedCalls) {
		t.Errorf("Expected calls %v, got %v", expectedCalls, f.calls)
	}
}

func TestExtractQuizzesFutureDeadline(t *testing.T) {
	t.Parallel()

	f := newFake()
	f.quizIndex["101"] = `<table class="generaltable"><tbody>
		<tr><td><a href="view.php?id=9">Tomorrow quiz</a></td></tr>
		<tr><td>no link here</td></tr>
	</tbody></table>`
	f.quizzes["view.php?id=9"] = `<div class="quizinfo"><p>종료일시 : 2024-05-02T12:00</p></div>`

	ex, err := newTestExtractor(f).ExtractQuizzes("101")
	if err != nil {
		t.Fatalf("ExtractQuizzes() failed: %v", err)
	}

	materials := ex.Materials()
	if len(materials) != 1 || materials[0].Due == nil {
		t.Fatalf("Expected one dated quiz, got %+v", materials)
	}

	if !materials[0].Due.Equal(time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected deadline %v", *materials[0].Due)
	}

	skipped := ex.Skipped()
	if len(skipped) != 1 || skipped[0].Reason != msgtypes.ReasonMissingLink || skipped[0].Index != 1 {
		t.Errorf("Expected one row skipped for missing link, got %+v", skipped)
	}
}

func TestExtractQuizzesDetailFailure(t *testing.T) {
	t.Parallel()

	f := newFake()
	f.fail["quiz:view.php?id=2"] = true

	_, err := newTestExtractor(f).ExtractQuizzes("101")
	if !errors.Is(err, fetch.ErrFetch) {
		t.Fatalf("Expected %v, got %v", fetch.ErrFetch, err)
	}

	// no further rows are fetched after a failure
	if last := f.calls[len(f.calls)-1]; last != "quiz:view.php?id=2" {
		t.Errorf("Expected extraction to stop at the failed row, last call %v", last)
	}
}

func TestExtractVideos(t *testing.T) {
	t.Parallel()

	ex, err := newTestExtractor(newFake()).ExtractVideos("101")
	if err != nil {
		t.Fatalf("ExtractVideos() failed: %v", err)
	}

	expected := []msgtypes.Reason{
		msgtypes.ReasonWatched,
		msgtypes.ReasonNone,
		msgtypes.ReasonEmptyTitle,
		msgtypes.ReasonNone,
		msgtypes.ReasonMissingCell,
	}

	var reasons []msgtypes.Reason
	for _, r := range ex.Rows {
		reasons = append(reasons, r.Reason)
	}

	if !reflect.DeepEqual(reasons, expected) {
		t.Errorf("Expected reasons %v, got %v", expected, reasons)
	}

	materials := ex.Materials()
	if !reflect.DeepEqual(titles(materials), []string{"Second lecture", "Third lecture"}) {
		t.Errorf("Unexpected videos %+v", materials)
	}

	for _, m := range materials {
		if m.Due != nil || m.Kind != msgtypes.Video {
			t.Errorf("Unexpected video %+v", m)
		}
	}
}

func TestParseVideosWhitespace(t *testing.T) {
	t.Parallel()

	// pretty-printed rows have whitespace text nodes between cells
	raw := `<table class="user_progress_table"><tbody>
		<tr>
			<td>Plain lecture</td>
			<td>10:00</td>
			<td>01:00</td>
			<td>O</td>
		</tr>
		<tr>
			<td>Week 3</td>
			<td>Section lecture</td>
			<td>10:00</td>
			<td>01:00</td>
			<td>X</td>
		</tr>
	</tbody></table>`

	rows, err := parseVideos(raw)
	if err != nil {
		t.Fatalf("parseVideos() failed: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}

	if rows[0].Material.Title != "Plain lecture" || rows[0].Reason != msgtypes.ReasonWatched {
		t.Errorf("Unexpected first row %+v", rows[0])
	}

	if rows[1].Material.Title != "Section lecture" || rows[1].Reason != msgtypes.ReasonNone {
		t.Errorf("Unexpected second row %+v", rows[1])
	}
}

func TestExtractAssignments(t *testing.T) {
	t.Parallel()

	ex, err := newTestExtractor(newFake()).ExtractAssignments("101")
	if err != nil {
		t.Fatalf("ExtractAssignments() failed: %v", err)
	}

	expected := []msgtypes.Reason{
		msgtypes.ReasonNone,
		msgtypes.ReasonExpired,
		msgtypes.ReasonSubmitted,
		msgtypes.ReasonNone,
		msgtypes.ReasonNone,
		msgtypes.ReasonMissingCell,
	}

	var reasons []msgtypes.Reason
	for _, r := range ex.Rows {
		reasons = append(reasons, r.Reason)
	}

	if !reflect.DeepEqual(reasons, expected) {
		t.Errorf("Expected reasons %v, got %v", expected, reasons)
	}

	materials := ex.Materials()
	if !reflect.DeepEqual(titles(materials), []string{"Essay", "Reading", "Garbled"}) {
		t.Fatalf("Unexpected assignments %+v", materials)
	}

	if materials[0].Due == nil || !materials[0].Due.Equal(time.Date(2024, 5, 10, 23, 59, 0, 0, time.UTC)) {
		t.Errorf("Unexpected deadline for %+v", materials[0])
	}

	// malformed deadline collapses into no deadline
	if materials[1].Due != nil || materials[2].Due != nil {
		t.Errorf("Expected no deadline, got %+v and %+v", materials[1], materials[2])
	}
}

func TestExtractCourse(t *testing.T) {
	t.Parallel()

	f := newFake()

	m, err := newTestExtractor(f).ExtractCourse(msgtypes.Course{ID: "101", Name: "Data Structures"})
	if err != nil {
		t.Fatalf("ExtractCourse() failed: %v", err)
	}

	if len(m.Quizzes) != 1 || len(m.Videos) != 2 || len(m.Assignments) != 3 {
		t.Errorf("Unexpected materials %+v", m)
	}

	// an empty course yields empty lists, not an error
	empty, err := newTestExtractor(f).ExtractCourse(msgtypes.Course{ID: "202"})
	if err != nil {
		t.Fatalf("ExtractCourse() failed: %v", err)
	}

	if !empty.Empty() {
		t.Errorf("Expected empty course, got %+v", empty)
	}
}

// newPlatoServer serves fixture pages behind a cookie-checked login, course 202 has a broken assignment page.
func newPlatoServer(t *testing.T) *httptest.Server {
	t.Helper()

	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if _, err := r.Cookie("MoodleSession"); err != nil {
				http.Redirect(w, r, "/login/index.php", http.StatusSeeOther)

				return
			}

			h(w, r)
		}
	}

	page := func(pages map[string]string) http.HandlerFunc {
		return authed(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(pages[r.URL.Query().Get("id")]))
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login/index.php", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.PostFormValue("username") == "student" && r.PostFormValue("password") == "pw" {
			http.SetCookie(w, &http.Cookie{Name: "MoodleSession", Value: "1", Path: "/"})
			http.Redirect(w, r, "/", http.StatusFound)

			return
		}

		_, _ = w.Write([]byte(`<form><input name="username"></form>`))
	})
	mux.HandleFunc("/mod/quiz/index.php", page(map[string]string{"101": quizIndexHTML}))
	mux.HandleFunc("/mod/quiz/view.php", page(map[string]string{
		"1": strings.ReplaceAll(quizYesterdayHTML, "2024-04-30", "2000-01-01"),
		"2": quizOpenHTML,
		"3": quizDoneHTML,
	}))
	mux.HandleFunc("/report/ubcompletion/user_progress_a.php", page(map[string]string{"101": videoHTML}))
	mux.HandleFunc("/mod/assign/index.php", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "202" {
			w.WriteHeader(http.StatusBadGateway)

			return
		}

		_, _ = w.Write([]byte(`<table class="generaltable"><tbody></tbody></table>`))
	}))
	mux.HandleFunc("/", authed(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(dashboardHTML))
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestGetReport(t *testing.T) {
	t.Parallel()

	srv := newPlatoServer(t)
	opts := fetch.Options{BaseURL: srv.URL, Timeout: 5 * time.Second}

	r, err := GetReport(context.Background(), opts, time.UTC, "student", "pw")
	if !errors.Is(err, ErrCourse) || !errors.Is(err, fetch.ErrUnexpectedStatus) {
		t.Fatalf("Expected course error, got %v", err)
	}

	if len(r.Failures) != 1 || r.Failures[0].Course.ID != "202" {
		t.Fatalf("Expected course 202 to fail, got %+v", r.Failures)
	}

	if len(r.Courses) != 1 || r.Courses[0].Course.ID != "101" {
		t.Fatalf("Expected only course 101, got %+v", r.Courses)
	}

	c := r.Courses[0]
	if len(c.Quizzes) != 1 || c.Quizzes[0].Title != "Open quiz" {
		t.Errorf("Unexpected quizzes %+v", c.Quizzes)
	}

	if len(c.Videos) != 2 || len(c.Assignments) != 0 {
		t.Errorf("Unexpected materials %+v", c)
	}
}

func TestGetReportInvalidCredentials(t *testing.T) {
	t.Parallel()

	srv := newPlatoServer(t)
	opts := fetch.Options{BaseURL: srv.URL, Timeout: 5 * time.Second}

	r, err := GetReport(context.Background(), opts, time.UTC, "student", "wrong")
	if !errors.Is(err, fetch.ErrInvalidCredentials) {
		t.Fatalf("Expected %v, got %v", fetch.ErrInvalidCredentials, err)
	}

	if !r.Empty() {
		t.Errorf("Expected empty report, got %+v", r)
	}
}
