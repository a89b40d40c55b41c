package qaclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeAPI is a minimal in-memory rendition of the QA service, just
// enough surface for the client to talk to.
type fakeAPI struct {
	srv *httptest.Server
	mux *http.ServeMux

	mu       sync.Mutex
	requests map[string]int
}

func newFakeAPI(t *testing.T) *fakeAPI {
	api := &fakeAPI{
		mux:      http.NewServeMux(),
		requests: map[string]int{},
	}
	api.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.requests[r.URL.Path]++
		api.mu.Unlock()
		api.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(api.srv.Close)

	// service root probe
	api.mux.HandleFunc("/clinic/api/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/clinic/api/" {
			http.NotFound(w, r)
			return
		}
		writeJson(w, map[string]string{"qa": api.url("qa/"), "units": api.url("units/")})
	})
	return api
}

func (a *fakeAPI) root() string { return a.srv.URL + "/clinic/api/" }

func (a *fakeAPI) url(path string) string { return a.root() + path }

func (a *fakeAPI) requestCount(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests["/clinic/api/"+path]
}

func (a *fakeAPI) handleJson(path string, v any) {
	a.mux.HandleFunc("/clinic/api/"+path, func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, v)
	})
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// fixture wires a full assignment into the fake API: three tests
// (temperature, pressure and the server-calculated ktp), their unit
// test infos, and one completed historical session.
type fixture struct {
	api   *fakeAPI
	tests []Test
	utis  []UnitTestInfo

	previousSessions []Session
	newSession       Session
	failSubmission   bool

	mu          sync.Mutex
	submissions []map[string]any
}

func newFixture(t *testing.T, api *fakeAPI) *fixture {
	f := &fixture{api: api}

	f.tests = []Test{
		{Url: api.url("qa/tests/1/"), Slug: "temperature", Name: "Temperature", Type: TestTypeSimple},
		{Url: api.url("qa/tests/2/"), Slug: "pressure", Name: "Pressure", Type: TestTypeSimple},
		{Url: api.url("qa/tests/3/"), Slug: "ktp", Name: "T&P Correction", Type: TestTypeComposite},
	}
	f.utis = []UnitTestInfo{
		{Url: api.url("qa/unittestinfos/101/"), Unit: api.url("units/units/7/"), Test: api.url("qa/tests/1/")},
		{Url: api.url("qa/unittestinfos/102/"), Unit: api.url("units/units/7/"), Test: api.url("qa/tests/2/")},
		{Url: api.url("qa/unittestinfos/103/"), Unit: api.url("units/units/7/"), Test: api.url("qa/tests/3/")},
	}
	f.previousSessions = []Session{{
		Url:           api.url("qa/testlistinstances/800/"),
		WorkCompleted: "2024-01-02T10:01:00Z",
		TestInstances: []TestInstance{
			{UnitTestInfo: api.url("qa/unittestinfos/101/"), Value: floatPtr(22)},
			{UnitTestInfo: api.url("qa/unittestinfos/102/"), Value: floatPtr(750)},
			{UnitTestInfo: api.url("qa/unittestinfos/103/"), Value: floatPtr(56.8)},
		},
	}}
	f.newSession = Session{
		Url:           api.url("qa/testlistinstances/900/"),
		WorkCompleted: "2024-05-06T09:00:00Z",
		TestInstances: []TestInstance{
			{UnitTestInfo: api.url("qa/unittestinfos/101/"), Value: floatPtr(22)},
			{UnitTestInfo: api.url("qa/unittestinfos/102/"), Value: floatPtr(750)},
			{UnitTestInfo: api.url("qa/unittestinfos/103/"), Value: floatPtr(56.9)},
		},
	}

	api.handleJson("qa/unittestcollections/123/", Assignment{
		Url:         api.url("qa/unittestcollections/123/"),
		Name:        "Daily Output",
		Unit:        api.url("units/units/7/"),
		TestsObject: api.url("qa/testlists/5/"),
	})
	api.handleJson("units/units/7/", Unit{Url: api.url("units/units/7/"), Name: "TrueBeam 1", Active: true})
	api.mux.HandleFunc("/clinic/api/qa/testlists-details/5/", func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, TestList{Url: api.url("qa/testlists/5/"), Name: "Daily Output", Tests: f.tests})
	})
	api.mux.HandleFunc("/clinic/api/qa/unittestinfos/", func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, page[UnitTestInfo]{Results: f.utis})
	})

	api.mux.HandleFunc("/clinic/api/qa/testlistinstances/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if f.failSubmission {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"tests": "invalid value"})
				return
			}
			var body struct {
				UnitTestCollection string         `json:"unit_test_collection"`
				WorkStarted        string         `json:"work_started"`
				Comment            string         `json:"comment"`
				Tests              map[string]any `json:"tests"`
			}
			err := json.NewDecoder(r.Body).Decode(&body)
			if err != nil {
				t.Errorf("bad submission body: %s", err)
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			f.mu.Lock()
			f.submissions = append(f.submissions, body.Tests)
			f.mu.Unlock()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"url": f.newSession.Url})
			return
		}

		limit := len(f.previousSessions)
		if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n < limit {
			limit = n
		}
		writeJson(w, page[Session]{Results: f.previousSessions[:limit]})
	})
	api.mux.HandleFunc("/clinic/api/qa/testlistinstances/900/", func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, f.newSession)
	})

	return f
}

func (f *fixture) submitted(t *testing.T) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.submissions)
	return f.submissions
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	client, err := NewClient(ctx, Options{
		ApiKey:          "test-key",
		ApiUrl:          api.root(),
		AssignmentId:    123,
		RequestInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return client
}
