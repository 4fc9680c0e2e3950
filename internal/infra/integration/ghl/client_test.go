package ghl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateOrUpdateContactSuccess(t *testing.T) {
	var gotAuth, gotVersion string
	var gotPayload contactPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Version")
		json.NewDecoder(r.Body).Decode(&gotPayload)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"contact":{"id":"ghl-123"}}`))
	}))
	defer server.Close()

	client := NewClient("tok-abc", "loc-1", server.URL)
	result, err := client.CreateOrUpdateContact(context.Background(), ContactInput{
		Email:     "maria@corp.com",
		Phone:     "3055550182",
		FirstName: "Maria",
		Tags:      []string{"high-quality"},
	})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ghl-123", result.ContactID)
	assert.Equal(t, http.StatusCreated, result.ResponseStatus)
	assert.NotEmpty(t, result.RequestBody)
	assert.NotEmpty(t, result.ResponseBody)

	assert.Equal(t, "Bearer tok-abc", gotAuth)
	assert.Equal(t, "2021-07-28", gotVersion)
	assert.Equal(t, "loc-1", gotPayload.LocationID)
	assert.Equal(t, "maria@corp.com", gotPayload.Email)
	assert.Equal(t, "WordPress Lead Form", gotPayload.Source)
}

func TestCreateOrUpdateContactDuplicateIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"msg":"This location does not allow duplicated contacts","contact":{"id":"ghl-existing"}}`))
	}))
	defer server.Close()

	client := NewClient("tok", "loc", server.URL)
	result, err := client.CreateOrUpdateContact(context.Background(), ContactInput{Email: "dup@corp.com"})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ghl-existing", result.ContactID)
	assert.Equal(t, "duplicate contact", result.ErrorMessage)
}

func TestCreateOrUpdateContactValidationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"msg":"email is invalid"}`))
	}))
	defer server.Close()

	client := NewClient("tok", "loc", server.URL)
	result, err := client.CreateOrUpdateContact(context.Background(), ContactInput{Email: "bad"})

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Empty(t, result.ContactID)
}

func TestCreateOrUpdateContactAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("expired", "loc", server.URL)
	result, err := client.CreateOrUpdateContact(context.Background(), ContactInput{Email: "a@b.com"})

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "authentication failed")
}

func TestCreateOrUpdateContactNetworkErrorIsRecorded(t *testing.T) {
	// A closed server simulates the CRM being unreachable.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient("tok", "loc", server.URL)
	result, err := client.CreateOrUpdateContact(context.Background(), ContactInput{Email: "a@b.com"})

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.ErrorMessage)
	assert.NotEmpty(t, result.RequestBody)
}

func TestTestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "loc-1", r.URL.Query().Get("locationId"))
		w.Write([]byte(`{"contacts":[]}`))
	}))
	defer server.Close()

	client := NewClient("tok", "loc-1", server.URL)
	assert.NoError(t, client.TestConnection(context.Background()))
}
