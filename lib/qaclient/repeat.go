package qaclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const repeatComment = "Consistency check"

// Comparison holds the outcome of replaying one historical session:
// the session it was built from, the newly created session, and one row
// per decoded historical result.
type Comparison struct {
	PreviousSession Session
	NewSession      Session
	Rows            []ComparisonRow
}

type ComparisonRow struct {
	Test     string
	Previous any
	New      any
	Equal    bool
}

// Table renders the comparison as rows of strings suitable for CSV
// export: session metadata first, then a header, then one row per test.
func (c Comparison) Table() [][]string {
	rows := [][]string{
		{"Previous Session Link", c.PreviousSession.Url},
		{"Previous Session Date", c.PreviousSession.WorkCompleted},
		{"New Session Link", c.NewSession.Url},
		{"New Session Date", c.NewSession.WorkCompleted},
		{"Test", "Previous Result", "New Result", "Equal"},
	}
	for _, row := range c.Rows {
		rows = append(rows, []string{
			row.Test,
			formatValue(row.Previous),
			formatValue(row.New),
			strconv.FormatBool(row.Equal),
		})
	}
	return rows
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Repeat re-performs the numSessions most recent completed QA sessions
// of this assignment, submitting each one's historical input values as
// a new session, and returns one comparison per replayed session (most
// recent first). The first failure aborts the whole batch; sessions
// already replayed at that point stay on the server.
func (c *Client) Repeat(ctx context.Context, numSessions int) ([]Comparison, error) {
	ctx, span := tracer.Start(ctx, "Repeat")
	defer span.End()
	span.SetAttributes(attribute.Int("num_sessions", numSessions))

	tests, err := c.Tests(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve tests")
		return nil, err
	}
	slugToTest := map[string]Test{}
	for _, t := range tests {
		slugToTest[t.Slug] = t
	}

	previous, err := c.PreviousSessions(ctx, numSessions)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch previous sessions")
		return nil, err
	}

	comparisons := []Comparison{}
	for _, previousSession := range previous {
		previousResults, err := c.SessionResults(ctx, previousSession)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to decode previous session")
			return nil, err
		}

		values, err := c.buildSubmission(ctx, tests, slugToTest, previousResults)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to build submission")
			return nil, err
		}

		newSession, err := c.PerformSession(ctx, values)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to perform session")
			return nil, err
		}
		newResults, err := c.SessionResults(ctx, *newSession)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to decode new session")
			return nil, err
		}

		comparisons = append(comparisons, newComparison(
			previousSession, previousResults,
			*newSession, newResults,
			slugToTest,
		))
	}
	return comparisons, nil
}

// PreviousSessions returns the n most recently completed sessions of
// this assignment, newest first. A single limited page is enough.
func (c *Client) PreviousSessions(ctx context.Context, n int) ([]Session, error) {
	query := url.Values{}
	query.Set("ordering", "-work_completed")
	query.Set("unit_test_collection", strconv.Itoa(c.assignmentId))
	query.Set("limit", strconv.Itoa(n))
	sessions, err := getList[Session](ctx, c, "qa/testlistinstances/", query, false)
	if err != nil {
		return nil, fmt.Errorf("fetch previous sessions: %w", err)
	}
	return sessions, nil
}

// SessionResults decodes every instance of a session into slug/value
// pairs, in instance order. Instances whose test is no longer part of
// the assignment's test list are dropped.
func (c *Client) SessionResults(ctx context.Context, session Session) ([]TestResult, error) {
	tests, err := c.Tests(ctx)
	if err != nil {
		return nil, err
	}
	infos, err := c.UnitTestInfos(ctx)
	if err != nil {
		return nil, err
	}

	testByUrl := map[string]Test{}
	for _, t := range tests {
		testByUrl[t.Url] = t
	}
	// instances reference the test through its unit test info
	infoToTestUrl := map[string]string{}
	for _, uti := range infos {
		infoToTestUrl[uti.Url] = uti.Test
	}

	results := []TestResult{}
	for _, instance := range session.TestInstances {
		test, ok := testByUrl[infoToTestUrl[instance.UnitTestInfo]]
		if !ok {
			continue
		}
		value, err := InstanceValue(test, instance)
		if err != nil {
			return nil, err
		}
		results = append(results, TestResult{Slug: test.Slug, Value: value})
	}
	return results, nil
}

// buildSubmission turns the decoded results of a historical session
// into a POST payload. Every currently assigned non-calculated test
// starts out skipped, which covers tests added to the list since the
// historical session; historical values then overwrite those entries.
func (c *Client) buildSubmission(ctx context.Context, tests []Test, slugToTest map[string]Test, previousResults []TestResult) (map[string]any, error) {
	values := map[string]any{}
	for _, t := range tests {
		if !t.Type.Calculated() {
			values[t.Slug] = map[string]any{"skipped": true}
		}
	}

	for _, result := range previousResults {
		test, ok := slugToTest[result.Slug]
		if !ok || test.Type.Calculated() || result.Value == nil {
			continue
		}

		if test.Type == TestTypeUpload {
			attachmentId := fmt.Sprint(result.Value)
			if attachmentId == "" {
				continue
			}
			attachment, content, err := c.FetchAttachment(ctx, attachmentId)
			if err != nil {
				return nil, err
			}
			values[test.Slug] = map[string]any{
				"value":    base64.StdEncoding.EncodeToString(content),
				"filename": attachment.Label,
				"encoding": "base64",
			}
		} else {
			values[test.Slug] = map[string]any{"value": result.Value}
		}
	}
	return values, nil
}

// PerformSession submits a new QA session with the given test values
// and returns the created session, re-fetched from the API so its
// instances have the same shape as any other fetched session.
func (c *Client) PerformSession(ctx context.Context, values map[string]any) (*Session, error) {
	ctx, span := tracer.Start(ctx, "PerformSession")
	defer span.End()

	assignment, err := c.Assignment(ctx)
	if err != nil {
		return nil, err
	}

	err = c.limiter.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"unit_test_collection": assignment.Url,
			"work_started":         time.Now().Format(time.RFC3339),
			"comment":              repeatComment,
			"tests":                values,
		}).
		Post("qa/testlistinstances/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session POST failed")
		return nil, err
	}
	if res.StatusCode() != http.StatusCreated {
		submissionErr := &SubmissionError{StatusCode: res.StatusCode(), Body: string(res.Body())}
		span.RecordError(submissionErr)
		span.SetStatus(codes.Error, "session POST rejected")
		return nil, submissionErr
	}

	var created struct {
		Url string `json:"url"`
	}
	err = json.Unmarshal(res.Body(), &created)
	if err != nil {
		return nil, fmt.Errorf("decode created session: %w", err)
	}

	var session Session
	err = c.getJson(ctx, created.Url, nil, &session)
	if err != nil {
		return nil, fmt.Errorf("fetch created session: %w", err)
	}
	return &session, nil
}

func newComparison(previousSession Session, previousResults []TestResult, newSession Session, newResults []TestResult, slugToTest map[string]Test) Comparison {
	newBySlug := map[string]any{}
	for _, r := range newResults {
		newBySlug[r.Slug] = r.Value
	}

	rows := make([]ComparisonRow, 0, len(previousResults))
	for _, prev := range previousResults {
		newValue := newBySlug[prev.Slug]
		rows = append(rows, ComparisonRow{
			Test:     slugToTest[prev.Slug].Name,
			Previous: prev.Value,
			New:      newValue,
			Equal:    reflect.DeepEqual(prev.Value, newValue),
		})
	}
	return Comparison{
		PreviousSession: previousSession,
		NewSession:      newSession,
		Rows:            rows,
	}
}
