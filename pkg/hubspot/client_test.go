package hubspot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) Client {
	// Rate limiting off so retry tests only measure backoff.
	return NewClient("test-token", WithBaseURL(url), WithRateLimit(0))
}

func decodeBody(t *testing.T, r *http.Request, out any) {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestSearchContacts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crm/v3/objects/contacts/search", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]any
		decodeBody(t, r, &body)
		groups := body["filterGroups"].([]any)
		require.Len(t, groups, 2)
		filter := groups[0].(map[string]any)["filters"].([]any)[0].(map[string]any)
		assert.Equal(t, "email", filter["propertyName"])
		assert.Equal(t, "EQ", filter["operator"])
		assert.Equal(t, "ada@example.com", filter["value"])

		_, _ = w.Write([]byte(`{"total": 1, "results": [{"id": "101"}]}`))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).SearchContacts(context.Background(), &SearchRequest{
		FilterGroups: []FilterGroup{
			EqFilter("email", "ada@example.com"),
			EqFilter("aex_id", "5001"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "101", resp.Results[0].ID)
}

func TestCreateContact(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/crm/v3/objects/contacts", r.URL.Path)

		var body map[string]any
		decodeBody(t, r, &body)
		props := body["properties"].(map[string]any)
		assert.Equal(t, "ada@example.com", props["email"])
		// No associations key on contact creates.
		assert.NotContains(t, body, "associations")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "101"}`))
	}))
	defer server.Close()

	contact, err := newTestClient(server.URL).CreateContact(context.Background(), map[string]any{
		"email": "ada@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "101", contact.ID)
}

func TestUpdateContact(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/crm/v3/objects/contacts/101", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "101"}`))
	}))
	defer server.Close()

	err := newTestClient(server.URL).UpdateContact(context.Background(), "101", map[string]any{
		"city": "Austin",
	})
	require.NoError(t, err)
}

func TestCreateTicket_WithAssociations(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/crm/v3/objects/tickets", r.URL.Path)

		var body map[string]any
		decodeBody(t, r, &body)
		assocs := body["associations"].([]any)
		require.Len(t, assocs, 1)
		assoc := assocs[0].(map[string]any)
		assert.Equal(t, "101", assoc["to"].(map[string]any)["id"])
		assocType := assoc["types"].([]any)[0].(map[string]any)
		assert.Equal(t, "USER_DEFINED", assocType["associationCategory"])
		assert.Equal(t, float64(81), assocType["associationTypeId"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "900"}`))
	}))
	defer server.Close()

	ticket, err := newTestClient(server.URL).CreateTicket(context.Background(),
		map[string]any{"subject": "12 Main St - Fiber Ready"},
		[]Association{ContactAssociation("101", 81)},
	)
	require.NoError(t, err)
	assert.Equal(t, "900", ticket.ID)
}

func TestConflictError(t *testing.T) {
	t.Parallel()

	const body = `{"message":"Contact already exists. Existing ID: 555"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	err := newTestClient(server.URL).UpdateContact(context.Background(), "101", map[string]any{})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, body, ErrorBody(err))
}

func TestNonConflictError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CreateContact(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.False(t, IsConflict(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestRetryOnRateLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"total": 0, "results": []}`))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).SearchTickets(context.Background(), &SearchRequest{})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNoRetryOnConflict(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	err := newTestClient(server.URL).UpdateContact(context.Background(), "101", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
