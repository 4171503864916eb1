package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiwebsocket "github.com/ramonehamilton/palico-bot/internal/api/websocket"
	"github.com/ramonehamilton/palico-bot/internal/metrics"
	"github.com/ramonehamilton/palico-bot/internal/mhw"
	"github.com/ramonehamilton/palico-bot/internal/mhw/catalog"
	"github.com/ramonehamilton/palico-bot/internal/mhw/query"
	"github.com/ramonehamilton/palico-bot/internal/storage"
)

type fakeCatalog struct {
	notReady bool
	sets     []query.SetResult
	pieces   []query.PieceResult
	last     struct {
		thing, thingType string
		rank             mhw.Rank
	}
}

func (f *fakeCatalog) Resolve(thing, thingType string, rank mhw.Rank) (catalog.Response, error) {
	f.last.thing, f.last.thingType, f.last.rank = thing, thingType, rank
	if f.notReady {
		return catalog.Response{}, mhw.ErrUninitialized
	}
	resp := catalog.Response{Thing: thing, ThingType: thingType, Rank: rank}
	switch {
	case thingType == "set" && len(f.sets) > 0:
		resp.Kind, resp.Sets = catalog.KindSets, f.sets
	case thingType == "head" && len(f.pieces) > 0:
		resp.Kind, resp.Pieces = catalog.KindPieces, f.pieces
	case thingType == "set" || thingType == "head":
		resp.Kind, resp.Suggestions = catalog.KindNoResults, []string{"Kulu-Ya-Ku"}
	case mhw.IsWeaponType(thingType):
		resp.Kind = catalog.KindUnsupported
	default:
		resp.Kind = catalog.KindNone
	}
	return resp, nil
}

func (f *fakeCatalog) Status() catalog.Status {
	if f.notReady {
		return catalog.Status{State: "pending"}
	}
	return catalog.Status{State: "ready", Sets: len(f.sets)}
}

type fakeQueryLog struct {
	limit int
	err   error
}

func (f *fakeQueryLog) RecentQueries(_ context.Context, limit int) ([]*storage.QueryRecord, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []*storage.QueryRecord{{ID: 1, Command: "set kulu", ResultCount: 1}}, nil
}

func newTestServer(t *testing.T, c *fakeCatalog, q *fakeQueryLog) *Server {
	t.Helper()
	deps := Deps{Catalog: c}
	if q != nil {
		deps.Queries = q
	}
	s, err := NewServer(nil, deps)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func kulu() query.SetResult {
	return query.SetResult{Name: "Kulu-Ya-Ku Alpha", Rank: mhw.RankHigh, Pieces: []string{"Kulu Headdress"}}
}

func TestNewServer(t *testing.T) {
	s, err := NewServer(nil, Deps{Catalog: &fakeCatalog{}})
	require.NoError(t, err)
	assert.Equal(t, 8080, s.Port())
	assert.NotNil(t, s.WebSocketHub())

	_, err = NewServer(&Config{Port: 9999}, Deps{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{}, nil)
	rec, body := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ready", body["data"])
}

func TestGetSets(t *testing.T) {
	c := &fakeCatalog{sets: []query.SetResult{kulu()}}
	s := newTestServer(t, c, nil)

	rec, body := do(t, s, http.MethodGet, "/api/v1/sets?q=kulu&rank=hr", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "kulu", c.last.thing)
	assert.Equal(t, mhw.RankHigh, c.last.rank)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "sets", data["kind"])
	sets := data["sets"].([]interface{})
	require.Len(t, sets, 1)
	assert.Equal(t, "Kulu-Ya-Ku Alpha", sets[0].(map[string]interface{})["name"])
}

func TestGetSets_BadRank(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{}, nil)
	rec, _ := do(t, s, http.MethodGet, "/api/v1/sets?q=kulu&rank=g", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSets_NoResults(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{}, nil)
	rec, body := do(t, s, http.MethodGet, "/api/v1/sets?q=kula", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, `no results for "kula"`, body["message"])
	assert.Equal(t, []interface{}{"Kulu-Ya-Ku"}, body["hints"])
}

func TestGetSets_Uninitialized(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{notReady: true}, nil)
	rec, _ := do(t, s, http.MethodGet, "/api/v1/sets?q=kulu", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetPieces(t *testing.T) {
	c := &fakeCatalog{pieces: []query.PieceResult{{SetName: "Kulu-Ya-Ku Alpha", Type: mhw.Head}}}
	s := newTestServer(t, c, nil)

	rec, body := do(t, s, http.MethodGet, "/api/v1/pieces/HEAD?q=kulu", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "head", c.last.thingType)
	assert.Equal(t, "pieces", body["data"].(map[string]interface{})["kind"])

	rec, _ = do(t, s, http.MethodGet, "/api/v1/pieces/tail?q=kulu", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, newTestServer(t, &fakeCatalog{}, nil), http.MethodGet, "/api/v1/pieces/head?q=kulu", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no results for kulu head", body["message"])
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"set", `{"thing":"kulu","thing_type":"set","rank":"high"}`, http.StatusOK},
		{"weapon", `{"thing":"buster","thing_type":"greatsword"}`, http.StatusNotImplemented},
		{"unknown type", `{"thing":"rathalos","thing_type":"monster"}`, http.StatusBadRequest},
		{"missing type", `{"thing":"kulu"}`, http.StatusBadRequest},
		{"bad rank", `{"thing":"kulu","thing_type":"set","rank":"g"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeCatalog{sets: []query.SetResult{kulu()}}, nil)
			rec, _ := do(t, s, http.MethodPost, "/api/v1/resolve", tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestResolve_RequiresJSONContentType(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resolve", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRecentQueries(t *testing.T) {
	q := &fakeQueryLog{}
	s := newTestServer(t, &fakeCatalog{}, q)

	rec, body := do(t, s, http.MethodGet, "/api/v1/queries/recent?limit=1000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 500, q.limit)
	assert.Len(t, body["data"].([]interface{}), 1)

	rec, _ = do(t, s, http.MethodGet, "/api/v1/queries/recent?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	q.err = errors.New("locked")
	rec, _ = do(t, s, http.MethodGet, "/api/v1/queries/recent", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 50, q.limit)
}

func TestRecentQueries_Disabled(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{}, nil)
	rec, _ := do(t, s, http.MethodGet, "/api/v1/queries/recent", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{}, nil)
	rec, _ := do(t, s, http.MethodGet, "/api/v1/metrics", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	m := metrics.NewQueryMetrics()
	m.Observe(metrics.OutcomeSets, time.Millisecond)
	s, err := NewServer(nil, Deps{Catalog: &fakeCatalog{}, Metrics: m})
	require.NoError(t, err)
	rec, body := do(t, s, http.MethodGet, "/api/v1/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["data"].(map[string]interface{})["queries"])
}

func TestMetricsChart(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics/chart", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status without metrics = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	m := metrics.NewQueryMetrics()
	m.Observe(metrics.OutcomePieces, time.Millisecond)
	s, err := NewServer(nil, Deps{Catalog: &fakeCatalog{}, Metrics: m})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/chart", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "Query outcomes") {
		t.Error("chart page missing outcome chart")
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{}, nil)
	rec, _ := do(t, s, http.MethodGet, "/api/v1/monsters", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebSocketChat(t *testing.T) {
	chat := func(_ context.Context, session, line string) (interface{}, error) {
		return map[string]string{"line": line}, nil
	}
	s, err := NewServer(nil, Deps{Catalog: &fakeCatalog{}, Chat: chat})
	require.NoError(t, err)
	go s.wsHub.Run()

	server := httptest.NewServer(s.Handler())
	defer server.Close()
	defer func() { _ = s.Shutdown(context.Background()) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() apiwebsocket.Event {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var ev apiwebsocket.Event
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}

	hello := read()
	require.Equal(t, apiwebsocket.EventSession, hello.Type)

	require.Eventually(t, func() bool { return s.wsHub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("!set kulu")))

	reply := read()
	assert.Equal(t, apiwebsocket.EventReply, reply.Type)
	assert.Equal(t, hello.Session, reply.Session)
	assert.Equal(t, map[string]interface{}{"line": "!set kulu"}, reply.Data)
}
