package qaclient

import (
	"context"
	"net/http"
	"testing"
	"time"

	"qareplay/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestNewClientInvalidUrl(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:qaclient")
	defer cleanup()

	_, err := NewClient(context.Background(), Options{
		ApiKey:       "key",
		ApiUrl:       "https://qa.example.com/clinic/",
		AssignmentId: 1,
	})
	require.ErrorIs(t, err, ErrInvalidApiUrl)
}

func TestNewClientUnrecognizedProbe(t *testing.T) {
	api := newFakeAPI(t)
	// a server that answers, but not with a QA service root
	api.mux.HandleFunc("/other/api/", func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, map[string]string{"hello": "world"})
	})
	_, err := NewClient(context.Background(), Options{
		ApiKey:          "key",
		ApiUrl:          api.srv.URL + "/other/api/",
		AssignmentId:    1,
		RequestInterval: time.Millisecond,
	})
	require.ErrorIs(t, err, ErrServiceUnreachable)
}

func TestNewClientUnreachable(t *testing.T) {
	api := newFakeAPI(t)
	url := api.root()
	api.srv.Close()

	_, err := NewClient(context.Background(), Options{
		ApiKey:          "key",
		ApiUrl:          url,
		AssignmentId:    1,
		RequestInterval: time.Millisecond,
	})
	require.ErrorIs(t, err, ErrServiceUnreachable)
}

func TestReferenceCaching(t *testing.T) {
	api := newFakeAPI(t)
	newFixture(t, api)
	client := newTestClient(t, api)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := client.Assignment(ctx)
		require.NoError(t, err)
		_, err = client.Unit(ctx)
		require.NoError(t, err)
		_, err = client.Tests(ctx)
		require.NoError(t, err)
		_, err = client.UnitTestInfos(ctx)
		require.NoError(t, err)
	}

	require.Equal(t, 1, api.requestCount("qa/unittestcollections/123/"))
	require.Equal(t, 1, api.requestCount("units/units/7/"))
	require.Equal(t, 1, api.requestCount("qa/testlists-details/5/"))
	require.Equal(t, 1, api.requestCount("qa/unittestinfos/"))
}

func TestUnitTestInfoFiltering(t *testing.T) {
	api := newFakeAPI(t)
	f := newFixture(t, api)
	// a link for some other test list's test on the same unit
	f.utis = append(f.utis, UnitTestInfo{
		Url:  api.url("qa/unittestinfos/999/"),
		Unit: api.url("units/units/7/"),
		Test: api.url("qa/tests/999/"),
	})
	client := newTestClient(t, api)

	infos, err := client.UnitTestInfos(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 3)
	for _, uti := range infos {
		require.NotEqual(t, api.url("qa/tests/999/"), uti.Test)
	}
}
