// ABOUTME: Tests for the back-office API client against httptest servers
// ABOUTME: Covers decoding, retries for reads, single-shot creation, and auth headers
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/harperreed/podium/config"
	"github.com/harperreed/podium/matching"
	"github.com/harperreed/podium/metrics"
	"github.com/harperreed/podium/models"
	"github.com/harperreed/podium/proposal"
)

func testClient(srv *httptest.Server, opts ...Option) *Client {
	all := append([]Option{
		WithHTTPClient(srv.Client()),
		WithLogger(log.New(io.Discard)),
		WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}, opts...)
	return NewClient(srv.URL, all...)
}

func TestListDeals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/deals", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"id": "d1", "client_name": "Ada", "status": "qualified", "priority": "high", "deal_value": 40000, "attendee_count": 250},
			{"id": "d2", "status": "won", "deal_value": "1250.50"}
		]`)
	}))
	defer srv.Close()

	deals, err := testClient(srv).ListDeals(context.Background())
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, "Ada", deals[0].ClientName)
	assert.Equal(t, models.FromMajor(40000), deals[0].DealValue)
	assert.Equal(t, 250, deals[0].AttendeeCount)
	assert.Equal(t, models.Cents(125050), deals[1].DealValue)
}

func TestListDealsRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	m := metrics.New()
	deals, err := testClient(srv, WithRetries(3), WithMetrics(m)).ListDeals(context.Background())
	require.NoError(t, err)
	assert.Empty(t, deals)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.APIRetries.WithLabelValues(OpListDeals)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.APIRequests.WithLabelValues(OpListDeals, "503")))
}

func TestListDealsGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv, WithRetries(2)).ListDeals(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient(srv, WithRetries(5)).ListDeals(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "forbidden", apiErr.Body)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMalformedResponseIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"not": "a list"`)
	}))
	defer srv.Close()

	_, err := testClient(srv, WithRetries(5)).ListDeals(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMatchSpeakers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/speakers/match", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "d1", body["dealId"])
		criteria := body["criteria"].(map[string]any)
		assert.Equal(t, "conference", criteria["event_type"])
		assert.Equal(t, 25000.0, criteria["budget"])
		assert.Equal(t, []any{}, criteria["topics"])

		_, _ = io.WriteString(w, `{"speakers": [{"id": "s1", "name": "Grace", "speaking_fee_range": "$5,000 - $10,000", "match_score": 91}]}`)
	}))
	defer srv.Close()

	criteria := matching.Criteria{EventType: "conference", Budget: models.FromMajor(25000), Topics: []string{}}
	speakers, err := testClient(srv).MatchSpeakers(context.Background(), "d1", criteria)
	require.NoError(t, err)
	require.Len(t, speakers, 1)
	assert.Equal(t, 91, speakers[0].MatchScore)
}

func TestMatchSpeakersWithoutDealOmitsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasDeal := body["dealId"]
		assert.False(t, hasDeal)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	speakers, err := testClient(srv).MatchSpeakers(context.Background(), "", matching.Criteria{})
	require.NoError(t, err)
	assert.NotNil(t, speakers)
	assert.Empty(t, speakers)
}

func TestCreateProposalIsSentOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv, WithRetries(5)).CreateProposal(context.Background(), proposal.Payload{Title: "x"}, "k")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Temporary())
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateProposal(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/proposals", r.URL.Path)
		assert.Equal(t, "sess:sent", r.Header.Get("Idempotency-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Summit - Proposal", body["title"])
		assert.Equal(t, "sent", body["status"])
		assert.Equal(t, 1.0, body["version"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": "p-42", "status": "sent", "version": 1, "total_investment": 15000}`)
	}))
	defer srv.Close()

	data := models.NewWizardData()
	data.EventTitle = "Summit"
	data.TotalInvestment = models.FromMajor(15000)

	created, err := testClient(srv).CreateProposal(context.Background(), proposal.Build(data, "sent", now), "sess:sent")
	require.NoError(t, err)
	assert.Equal(t, "p-42", created.ID)
	assert.Equal(t, models.FromMajor(15000), created.TotalInvestment)
}

func TestCanceledContextStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv, WithRetries(10)).ListDeals(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHTTPClientSendsStaticToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	client := FromConfig(context.Background(), config.API{BaseURL: srv.URL, Token: "secret", Timeout: time.Second}, nil,
		WithLogger(log.New(io.Discard)))
	_, err := client.ListDeals(context.Background())
	require.NoError(t, err)
}

func TestHTTPClientUsesStoredLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer stored", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	stored := &oauth2.Token{AccessToken: "stored", TokenType: "Bearer"}
	client := FromConfig(context.Background(), config.API{BaseURL: srv.URL, Timeout: time.Second}, stored,
		WithLogger(log.New(io.Discard)))
	_, err := client.ListDeals(context.Background())
	require.NoError(t, err)
}

func TestHTTPClientClientCredentials(t *testing.T) {
	var tokenCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token": "minted", "token_type": "Bearer", "expires_in": 3600}`)
	})
	mux.HandleFunc("/deals", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer minted", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := config.API{
		BaseURL:      srv.URL,
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/oauth/token",
		Timeout:      time.Second,
	}
	client := FromConfig(context.Background(), cfg, nil, WithLogger(log.New(io.Discard)))

	_, err := client.ListDeals(context.Background())
	require.NoError(t, err)
	_, err = client.ListDeals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), tokenCalls.Load())
}
