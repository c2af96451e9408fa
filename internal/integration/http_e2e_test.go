//go:build integration || !unit

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "review_insights/internal/adapters/http_server"
	"review_insights/internal/adapters/llm"
	"review_insights/internal/adapters/memcache"
	"review_insights/internal/app"
	"review_insights/internal/domain"
	"review_insights/internal/prompts"
)

// ---------- helpers ----------

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// upstream is a fake OpenAI-compatible endpoint whose reply is chosen per call.
type upstream struct {
	hits  int32
	reply func(n int32) string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := atomic.AddInt32(&u.hits, 1)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": u.reply(n)}}},
	})
}

type stack struct {
	api   *httptest.Server
	up    *upstream
	clock *clock
}

var t0 = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newStack(t *testing.T, reply func(n int32) string) *stack {
	t.Helper()
	up := &upstream{reply: reply}
	upSrv := httptest.NewServer(up)
	t.Cleanup(upSrv.Close)

	clk := &clock{now: t0}
	svc := app.NewReportService(
		llm.NewOpenRouter(upSrv.URL, "test-key", ""),
		memcache.New(domain.ReportTTL),
		prompts.New(),
		clk,
	)
	srv := server.New(server.Options{RequestTimeout: 5 * time.Second, CORSOrigins: []string{"*"}})
	srv.MountHandlers(&server.Handlers{Reports: svc})
	api := httptest.NewServer(srv.Mux())
	t.Cleanup(api.Close)

	return &stack{api: api, up: up, clock: clk}
}

func (s *stack) get(t *testing.T, path string) (int, string, []byte) {
	t.Helper()
	resp, err := http.Get(s.api.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf []byte
	buf, err = readAll(resp)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get("Content-Type"), buf
}

func readAll(resp *http.Response) ([]byte, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// ---------- scenarios ----------

func TestReviews_FencedReplyIsNormalisedAndCached(t *testing.T) {
	s := newStack(t, func(int32) string {
		return "Here are the reviews:\n```json\n[{\"id\": 1, \"text\": \"Great\", \"rating\": 5, \"date\": \"2024-01-01\", \"author\": \"A\"}]\n```"
	})

	code, ct, body := s.get(t, "/api/reviews")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "application/json", ct)
	assert.JSONEq(t, `[{"id":"1","text":"Great","rating":5,"date":"2024-01-01","author":"A"}]`, string(body))

	s.clock.Set(t0.Add(10 * time.Minute))
	code, _, again := s.get(t, "/api/reviews")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, string(body), string(again))
	assert.Equal(t, int32(1), atomic.LoadInt32(&s.up.hits), "second call must be served from cache")
}

func TestFeatures_EmptyReplyFailsAndKeepsPreviousEntry(t *testing.T) {
	s := newStack(t, func(n int32) string {
		if n == 1 {
			return `[{"feature": "Mobile app", "count": 5, "percentage": 50}]`
		}
		return "   "
	})

	code, _, first := s.get(t, "/api/features")
	require.Equal(t, http.StatusOK, code)

	// expired: the refetch gets an empty reply
	s.clock.Set(t0.Add(domain.ReportTTL))
	code, ct, body := s.get(t, "/api/features")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "application/problem+json", ct)
	assert.Contains(t, string(body), "Failed to fetch report data")
	assert.Equal(t, int32(2), atomic.LoadInt32(&s.up.hits))

	// the old entry was not overwritten: within its window it is still served
	s.clock.Set(t0.Add(time.Minute))
	code, _, again := s.get(t, "/api/features")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, string(first), string(again))
	assert.Equal(t, int32(2), atomic.LoadInt32(&s.up.hits))
}

func TestStatistics_ConcurrentColdRequestsBothSucceed(t *testing.T) {
	const stats = `{"totalReviews": 50, "averageRating": 4.8, "reviewsOverTime": [{"month": "May 2024", "count": 50}], "ratingsDistribution": [{"rating": 5, "count": 40}, {"rating": 4, "count": 10}]}`

	// hold every upstream call until both requests have arrived
	var arrived sync.WaitGroup
	arrived.Add(2)
	s := newStack(t, func(int32) string {
		arrived.Done()
		done := make(chan struct{})
		go func() { arrived.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
		}
		return stats
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	codes := make([]int, 2)
	bodies := make([][]byte, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.api.URL+"/api/statistics", nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer resp.Body.Close()
			codes[i] = resp.StatusCode
			bodies[i], _ = readAll(resp)
		}(i)
	}
	wg.Wait()

	for i := range codes {
		require.Equal(t, http.StatusOK, codes[i], "request %d", i)
		assert.JSONEq(t, stats, string(bodies[i]))
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&s.up.hits), "both cold requests call upstream")

	// whichever write landed last is what the cache now serves
	code, _, body := s.get(t, "/api/statistics")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, stats, string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&s.up.hits))
}

func TestMissingCredential_Is500(t *testing.T) {
	svc := app.NewReportService(llm.NewOpenRouter("http://127.0.0.1:1", "", ""), memcache.New(domain.ReportTTL), prompts.New(), nil)
	srv := server.New(server.Options{})
	srv.MountHandlers(&server.Handlers{Reports: svc})

	rr := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/trends", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "credential")
}
