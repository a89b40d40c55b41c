package qaclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"qareplay/lib/restyutil"
	"qareplay/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("qaclient")

// DefaultRequestInterval is the minimum spacing between API calls.
// The service throttles aggressively, do not lower this without reason.
const DefaultRequestInterval = 400 * time.Millisecond

// pageDelay is the extra pause between successive page fetches of one
// paginated listing, on top of the limiter interval.
const pageDelay = time.Second

type Options struct {
	ApiKey       string
	ApiUrl       string
	AssignmentId int
	// RequestInterval overrides DefaultRequestInterval when positive.
	RequestInterval time.Duration
	// DebugOutput, when set, receives a dump of every HTTP exchange.
	DebugOutput restyutil.InstrumentOutput
}

// Client talks to the QA service on behalf of a single assignment. It
// issues one request at a time and is not safe for concurrent use.
type Client struct {
	http         *resty.Client
	root         string
	assignmentId int
	limiter      *Limiter

	// references resolved once and memoized for the client's lifetime
	assignment    *Assignment
	unit          *Unit
	testList      *TestList
	unitTestInfos []UnitTestInfo
}

// NewClient validates the root URL shape, probes the service root and
// returns a client bound to the given assignment.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	ctx, span := tracer.Start(ctx, "NewClient")
	defer span.End()

	root := strings.TrimRight(opts.ApiUrl, "/") + "/"
	if !strings.HasSuffix(root, "/api/") {
		span.SetStatus(codes.Error, ErrInvalidApiUrl.Error())
		return nil, ErrInvalidApiUrl
	}

	interval := opts.RequestInterval
	if interval <= 0 {
		interval = DefaultRequestInterval
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(root)
	httpClient.SetHeader("RadAuthorization", fmt.Sprintf("Token %s", opts.ApiKey))
	httpClient.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(httpClient, "qaclient/http")
	if opts.DebugOutput != nil {
		restyutil.DumpClient(httpClient, opts.DebugOutput)
	}

	c := &Client{
		http:         httpClient,
		root:         root,
		assignmentId: opts.AssignmentId,
		limiter:      NewLimiter(interval),
	}

	var probe map[string]json.RawMessage
	err := c.getJson(ctx, "", nil, &probe)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "service probe failed")
		return nil, fmt.Errorf("%w: %s", ErrServiceUnreachable, err)
	}
	if _, ok := probe["qa"]; !ok {
		span.SetStatus(codes.Error, "service probe returned an unrecognized payload")
		return nil, ErrServiceUnreachable
	}

	return c, nil
}

// getJson issues one throttled GET and decodes the response body.
// path may be relative to the API root or a full URL (pagination links
// and session urls come back absolute).
func (c *Client) getJson(ctx context.Context, path string, query url.Values, out any) error {
	err := c.limiter.Acquire(ctx)
	if err != nil {
		return err
	}
	req := c.http.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	res, err := req.Get(path)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("GET %s: %s", res.Request.URL, res.Status())
	}
	err = json.Unmarshal(res.Body(), out)
	if err != nil {
		return fmt.Errorf("GET %s: decode response: %w", res.Request.URL, err)
	}
	return nil
}

// Assignment returns the assignment details, fetching them on first use.
func (c *Client) Assignment(ctx context.Context) (*Assignment, error) {
	if c.assignment != nil {
		return c.assignment, nil
	}
	var assignment Assignment
	err := c.getJson(ctx, fmt.Sprintf("qa/unittestcollections/%d/", c.assignmentId), nil, &assignment)
	if err != nil {
		return nil, fmt.Errorf("fetch assignment %d: %w", c.assignmentId, err)
	}
	c.assignment = &assignment
	return c.assignment, nil
}

// Unit returns the unit this assignment belongs to.
func (c *Client) Unit(ctx context.Context) (*Unit, error) {
	if c.unit != nil {
		return c.unit, nil
	}
	assignment, err := c.Assignment(ctx)
	if err != nil {
		return nil, err
	}
	var unit Unit
	err = c.getJson(ctx, fmt.Sprintf("units/units/%s/", objectIdFromUrl(assignment.Unit)), nil, &unit)
	if err != nil {
		return nil, fmt.Errorf("fetch unit: %w", err)
	}
	c.unit = &unit
	return c.unit, nil
}

// TestList returns the assignment's test list. The details endpoint is
// used because it inlines full test definitions, which saves a request
// per test.
func (c *Client) TestList(ctx context.Context) (*TestList, error) {
	if c.testList != nil {
		return c.testList, nil
	}
	assignment, err := c.Assignment(ctx)
	if err != nil {
		return nil, err
	}
	var testList TestList
	err = c.getJson(ctx, fmt.Sprintf("qa/testlists-details/%s/", objectIdFromUrl(assignment.TestsObject)), nil, &testList)
	if err != nil {
		return nil, fmt.Errorf("fetch test list: %w", err)
	}
	c.testList = &testList
	return c.testList, nil
}

func (c *Client) Tests(ctx context.Context) ([]Test, error) {
	testList, err := c.TestList(ctx)
	if err != nil {
		return nil, err
	}
	return testList.Tests, nil
}

// UnitTestInfos returns the test/unit link objects for every test in
// this assignment's test list. The endpoint cannot filter by test list,
// so the whole unit's links are fetched and filtered client-side.
func (c *Client) UnitTestInfos(ctx context.Context) ([]UnitTestInfo, error) {
	if c.unitTestInfos != nil {
		return c.unitTestInfos, nil
	}
	assignment, err := c.Assignment(ctx)
	if err != nil {
		return nil, err
	}
	tests, err := c.Tests(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("unit", objectIdFromUrl(assignment.Unit))
	all, err := getList[UnitTestInfo](ctx, c, "qa/unittestinfos/", query, true)
	if err != nil {
		return nil, fmt.Errorf("fetch unit test infos: %w", err)
	}

	testUrls := map[string]bool{}
	for _, t := range tests {
		testUrls[t.Url] = true
	}
	infos := []UnitTestInfo{}
	for _, uti := range all {
		if testUrls[uti.Test] {
			infos = append(infos, uti)
		}
	}
	c.unitTestInfos = infos
	return c.unitTestInfos, nil
}

// objectIdFromUrl returns the trailing id of a resource URL like
// https://qa.example.com/clinic/api/qa/testlists/123/.
func objectIdFromUrl(rawUrl string) string {
	trimmed := strings.Trim(rawUrl, "/")
	i := strings.LastIndex(trimmed, "/")
	return trimmed[i+1:]
}
