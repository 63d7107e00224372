package hrstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fakeStore(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /persons", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode([]Person{{ID: 1, FirstName: "Ada", LastName: "Lovelace"}})
	})
	mux.HandleFunc("GET /entities", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]Entity{{ID: 3, Name: "CRM", RiskScore: 0.4}})
	})
	mux.HandleFunc("GET /psychometric_assessments", func(w http.ResponseWriter, r *http.Request) {
		out := []Assessment{
			{ID: 1, PersonID: 1, Stress: 0.8},
			{ID: 2, PersonID: 2, Stress: 0.2},
		}
		if r.URL.Query().Get("person_id") == "1" {
			out = out[:1]
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("DELETE /persons/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProxyCachesReads(t *testing.T) {
	var hits atomic.Int64
	srv := fakeStore(t, &hits)
	proxy := NewProxy(NewClient(srv.URL, zap.NewNop()), time.Minute)

	ctx := context.Background()
	first, err := proxy.Persons(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "Ada Lovelace", first[0].FullName())

	_, err = proxy.Persons(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load(), "second read within TTL must not hit the store")
}

func TestProxyExpiryRefetches(t *testing.T) {
	var hits atomic.Int64
	srv := fakeStore(t, &hits)

	now := time.Unix(1000, 0)
	proxy := NewProxyWithClock(NewClient(srv.URL, zap.NewNop()), time.Minute, func() time.Time { return now })

	ctx := context.Background()
	_, err := proxy.Persons(ctx)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = proxy.Persons(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestProxyMutationInvalidates(t *testing.T) {
	var hits atomic.Int64
	srv := fakeStore(t, &hits)
	proxy := NewProxy(NewClient(srv.URL, zap.NewNop()), time.Minute)

	ctx := context.Background()
	_, err := proxy.Persons(ctx)
	require.NoError(t, err)

	require.NoError(t, proxy.DeletePerson(ctx, 1))

	_, err = proxy.Persons(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load(), "delete must invalidate the cache")
}

func TestProxyAssessmentKeysPerPerson(t *testing.T) {
	var hits atomic.Int64
	srv := fakeStore(t, &hits)
	proxy := NewProxy(NewClient(srv.URL, zap.NewNop()), time.Minute)

	ctx := context.Background()
	all, err := proxy.Assessments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := proxy.AssessmentsFor(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, 1, one[0].PersonID)
}

func TestClientPropagatesStoreErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	proxy := NewProxy(NewClient(srv.URL, zap.NewNop()), time.Minute)
	_, err := proxy.Persons(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
