package qaclient

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func handleUnitPages(api *fakeAPI) {
	pageTwo := api.url("units/units/?offset=2")
	api.mux.HandleFunc("/clinic/api/units/units/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "2" {
			writeJson(w, page[Unit]{Results: []Unit{{Name: "TrueBeam 3"}}})
			return
		}
		writeJson(w, page[Unit]{
			Results: []Unit{{Name: "TrueBeam 1"}, {Name: "TrueBeam 2"}},
			Next:    &pageTwo,
		})
	})
}

func TestGetListFollowsPages(t *testing.T) {
	api := newFakeAPI(t)
	newFixture(t, api)
	handleUnitPages(api)
	client := newTestClient(t, api)

	units, err := getList[Unit](context.Background(), client, "units/units/", nil, true)
	require.NoError(t, err)
	require.Len(t, units, 3)
	require.Equal(t, "TrueBeam 3", units[2].Name)
}

func TestGetListSinglePage(t *testing.T) {
	api := newFakeAPI(t)
	newFixture(t, api)
	handleUnitPages(api)
	client := newTestClient(t, api)

	units, err := getList[Unit](context.Background(), client, "units/units/", nil, false)
	require.NoError(t, err)
	require.Len(t, units, 2)
}
