package wordpress

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFetchLeadsSendsAuthAndParams(t *testing.T) {
	var gotAuth, gotSince, gotLimit, gotOffset string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSince = r.URL.Query().Get("since")
		gotLimit = r.URL.Query().Get("limit")
		gotOffset = r.URL.Query().Get("offset")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"leads":[{"id":"wp-1","email":"a@b.com"}],"total":1}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sync-bot", "app-pass")
	since := time.Date(2024, 7, 14, 9, 30, 0, 0, time.UTC)

	leads, err := client.FetchLeads(context.Background(), since, 100, 200)

	assert.NoError(t, err)
	assert.Len(t, leads, 1)
	assert.Equal(t, "a@b.com", leads[0]["email"])

	expected := "Basic " + base64.StdEncoding.EncodeToString([]byte("sync-bot:app-pass"))
	assert.Equal(t, expected, gotAuth)
	assert.Equal(t, "2024-07-14 09:30:00", gotSince)
	assert.Equal(t, "100", gotLimit)
	assert.Equal(t, "200", gotOffset)
}

func TestFetchLeadsZeroSinceOmitsParam(t *testing.T) {
	var hasSince bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasSince = r.URL.Query().Has("since")
		w.Write([]byte(`{"leads":[],"total":0}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "u", "p")
	leads, err := client.FetchLeads(context.Background(), time.Time{}, 10, 0)

	assert.NoError(t, err)
	assert.Empty(t, leads)
	assert.False(t, hasSince)
}

func TestFetchLeadsRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"leads":[{"id":"wp-1","email":"a@b.com"}],"total":1}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "u", "p")
	leads, err := client.FetchLeads(context.Background(), time.Time{}, 10, 0)

	assert.NoError(t, err)
	assert.Len(t, leads, 1)
	assert.Equal(t, 3, calls)
}

func TestFetchLeadsDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"code":"rest_forbidden"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "u", "p")
	_, err := client.FetchLeads(context.Background(), time.Time{}, 10, 0)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestHealthcheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wp/v2/users/me", r.URL.Path)
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "u", "p")
	assert.NoError(t, client.Healthcheck(context.Background()))
}

func TestHealthcheckFailsOnBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "u", "wrong")
	assert.Error(t, client.Healthcheck(context.Background()))
}
