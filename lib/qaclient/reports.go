package qaclient

import (
	"context"
	"fmt"
	"net/url"
)

// ReportFormat selects the rendering of a server-generated report.
type ReportFormat string

const (
	ReportPdf  ReportFormat = "pdf"
	ReportXlsx ReportFormat = "xlsx"
	ReportCsv  ReportFormat = "csv"
)

// Units lists every unit known to the service.
func (c *Client) Units(ctx context.Context) ([]Unit, error) {
	units, err := getList[Unit](ctx, c, "units/units/", nil, true)
	if err != nil {
		return nil, fmt.Errorf("fetch units: %w", err)
	}
	return units, nil
}

// TestResults returns all non-skipped results of one test on one unit,
// newest first, across every page.
func (c *Client) TestResults(ctx context.Context, unitName, testName string) ([]TestInstance, error) {
	query := url.Values{}
	query.Set("unit_test_info__unit__name", unitName)
	query.Set("unit_test_info__test__name", testName)
	query.Set("skipped", "false")
	query.Set("ordering", "-work_completed")
	instances, err := getList[TestInstance](ctx, c, "qa/testinstances/", query, true)
	if err != nil {
		return nil, fmt.Errorf("fetch test results: %w", err)
	}
	return instances, nil
}

// LastSession returns the assignment's most recent completed session,
// or nil when none has been performed yet.
func (c *Client) LastSession(ctx context.Context) (*Session, error) {
	sessions, err := c.PreviousSessions(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// SessionReport generates and downloads a report for one session. The
// server names the file through a filename header.
func (c *Client) SessionReport(ctx context.Context, sessionUrl string, format ReportFormat) (filename string, content []byte, err error) {
	err = c.limiter.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("report_format", string(format)).
		Get(sessionUrl + "report/")
	if err != nil {
		return "", nil, fmt.Errorf("fetch session report: %w", err)
	}
	if res.IsError() {
		return "", nil, fmt.Errorf("fetch session report: %s", res.Status())
	}
	return res.Header().Get("filename"), res.Body(), nil
}

// SavedReports lists stored report definitions, optionally filtered to
// the user who created them.
func (c *Client) SavedReports(ctx context.Context, username string) ([]SavedReport, error) {
	var query url.Values
	if username != "" {
		query = url.Values{}
		query.Set("created_by__username", username)
	}
	reports, err := getList[SavedReport](ctx, c, "reports/savedreports/", query, true)
	if err != nil {
		return nil, fmt.Errorf("fetch saved reports: %w", err)
	}
	return reports, nil
}

// RunSavedReport executes a saved report and downloads the result.
func (c *Client) RunSavedReport(ctx context.Context, report SavedReport, format ReportFormat) (filename string, content []byte, err error) {
	err = c.limiter.Acquire(ctx)
	if err != nil {
		return "", nil, err
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("report_format", string(format)).
		Get(report.RunReportUrl)
	if err != nil {
		return "", nil, fmt.Errorf("run saved report %q: %w", report.Title, err)
	}
	if res.IsError() {
		return "", nil, fmt.Errorf("run saved report %q: %s", report.Title, res.Status())
	}
	filename = res.Header().Get("filename")
	if filename == "" {
		filename = fmt.Sprintf("%s.%s", report.Title, format)
	}
	return filename, res.Body(), nil
}
