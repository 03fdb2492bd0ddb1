package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alfredjeanlab/laptimer/internal/events"
	"github.com/alfredjeanlab/laptimer/internal/gates"
	"github.com/alfredjeanlab/laptimer/internal/model"
	"github.com/alfredjeanlab/laptimer/internal/store"
)

// mockStore is an in-memory store.Store. err, when set, fails every call.
type mockStore struct {
	laps []*model.Lap
	tags map[string]*model.Tag
	err  error
}

func newMockStore() *mockStore {
	return &mockStore{tags: make(map[string]*model.Tag)}
}

func (m *mockStore) InsertLap(_ context.Context, lap *model.Lap) error {
	if m.err != nil {
		return m.err
	}
	lap.ID = int64(len(m.laps) + 1)
	if lap.CreatedAt.IsZero() {
		lap.CreatedAt = time.Now()
	}
	m.laps = append(m.laps, lap)
	return nil
}

func (m *mockStore) ListLapRows(_ context.Context) ([]model.LapRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	rows := make([]model.LapRow, 0, len(m.laps))
	for i := len(m.laps) - 1; i >= 0; i-- {
		l := m.laps[i]
		row := model.LapRow{
			TagID:        l.TagID,
			StartTimeRaw: l.StartTimeRaw,
			ElapsedMs:    l.ElapsedMs,
			CreatedAt:    l.CreatedAt,
		}
		if tag, ok := m.tags[l.TagID]; ok {
			name := tag.Name
			row.TagName = &name
			row.TagColor = tag.Color
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *mockStore) DeleteAllLaps(_ context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.laps = nil
	return nil
}

func (m *mockStore) UpsertTag(_ context.Context, tag *model.Tag) error {
	if err := store.PrepareTag(tag); err != nil {
		return err
	}
	if m.err != nil {
		return m.err
	}
	clone := *tag
	m.tags[tag.UUID] = &clone
	return nil
}

func (m *mockStore) ListTags(_ context.Context) ([]*model.Tag, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*model.Tag
	for _, t := range m.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UUID < out[j].UUID })
	return out, nil
}

func (m *mockStore) DeleteTag(_ context.Context, uuid string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.tags, uuid)
	return nil
}

func (m *mockStore) DeleteAllTags(_ context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.tags = make(map[string]*model.Tag)
	return nil
}

func (m *mockStore) Close() error { return nil }

// recordingPublisher remembers published topics.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

func newTestServer() (*LapServer, *mockStore) {
	ms := newMockStore()
	return NewLapServer(ms, gates.New(nil), &events.NoopPublisher{}, nil), ms
}

// doJSON performs an HTTP request with an optional JSON body and returns the recorder.
func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// requireStatus asserts the recorder has the expected HTTP status code.
func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected status %d, got %d; body: %s", code, rec.Code, rec.Body.String())
	}
}

// decodeJSON decodes the recorder's response body into v.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func strPtr(s string) *string { return &s }

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer()
	rec := doJSON(t, srv.NewHTTPHandler(Credentials{}), "GET", "/health", nil)
	requireStatus(t, rec, http.StatusOK)

	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["status"] != "ok" {
		t.Fatalf("expected status=ok, got %v", body)
	}
}

func TestHandleListLaps_Empty(t *testing.T) {
	srv, _ := newTestServer()
	rec := doJSON(t, srv.NewHTTPHandler(Credentials{}), "GET", "/laps", nil)
	requireStatus(t, rec, http.StatusOK)
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("expected empty array, got %s", got)
	}
}

func TestHandleListLaps(t *testing.T) {
	srv, ms := newTestServer()
	ctx := context.Background()
	base := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)

	_ = ms.UpsertTag(ctx, &model.Tag{UUID: "T1", Name: "Alice", Color: strPtr("#ff0000")})
	_ = ms.InsertLap(ctx, &model.Lap{TagID: "T1", StartTimeRaw: "10:00:00.00", ElapsedMs: 62000, CreatedAt: base})
	_ = ms.InsertLap(ctx, &model.Lap{TagID: "T1", StartTimeRaw: "10:02:00.00", ElapsedMs: 61230, CreatedAt: base.Add(time.Minute)})
	_ = ms.InsertLap(ctx, &model.Lap{TagID: "T9", StartTimeRaw: "10:04:00.00", ElapsedMs: 3723450, CreatedAt: base.Add(2 * time.Minute)})
	_ = ms.InsertLap(ctx, &model.Lap{TagID: model.UnknownTag, StartTimeRaw: "10:06:00.00", ElapsedMs: 1000, CreatedAt: base.Add(3 * time.Minute)})

	rec := doJSON(t, srv.NewHTTPHandler(Credentials{}), "GET", "/laps", nil)
	requireStatus(t, rec, http.StatusOK)

	var got []struct {
		Name      string  `json:"name"`
		StartTime string  `json:"start_time"`
		Elapsed   string  `json:"elapsed"`
		CreatedAt string  `json:"created_at"`
		Color     *string `json:"color"`
		Best      bool    `json:"best"`
	}
	decodeJSON(t, rec, &got)

	if len(got) != 4 {
		t.Fatalf("expected 4 laps, got %d", len(got))
	}
	want := []struct {
		name, elapsed string
		best          bool
	}{
		{"Unknown", "0:01.00", true},
		{"T9", "01:02:03.45", true},
		{"Alice", "1:01.23", true},
		{"Alice", "1:02.00", false},
	}
	for i, w := range want {
		if got[i].Name != w.name || got[i].Elapsed != w.elapsed || got[i].Best != w.best {
			t.Errorf("lap %d = %+v, want %+v", i, got[i], w)
		}
	}
	if got[2].Color == nil || *got[2].Color != "#ff0000" {
		t.Errorf("expected Alice's color, got %v", got[2].Color)
	}
	if got[1].Color != nil {
		t.Errorf("expected null color for unregistered tag, got %v", *got[1].Color)
	}
}

func TestHandleStatus(t *testing.T) {
	tracker := gates.New(nil)
	srv := NewLapServer(newMockStore(), tracker, nil, nil)
	handler := srv.NewHTTPHandler(Credentials{})

	rec := doJSON(t, handler, "GET", "/status", nil)
	requireStatus(t, rec, http.StatusOK)
	if got := strings.TrimSpace(rec.Body.String()); got != `{"startGate":false,"stopGate":false}` {
		t.Fatalf("initial status = %s", got)
	}

	tracker.OnHeartbeat(model.GateStart, " ONLINE ")
	rec = doJSON(t, handler, "GET", "/status", nil)
	var status gates.Status
	decodeJSON(t, rec, &status)
	if !status.StartGate || status.StopGate {
		t.Fatalf("status = %+v, want start online only", status)
	}

	rec = doJSON(t, handler, "GET", "/gates", nil)
	requireStatus(t, rec, http.StatusOK)
	var entries []gates.Entry
	decodeJSON(t, rec, &entries)
	if len(entries) != 2 || entries[0].Gate != model.GateStart || !entries[0].Online {
		t.Fatalf("gates = %+v", entries)
	}
}

func TestHandleUnassigned(t *testing.T) {
	srv, ms := newTestServer()
	ctx := context.Background()
	_ = ms.UpsertTag(ctx, &model.Tag{UUID: "T1", Name: "Alice"})
	for _, tag := range []string{"T3", "T1", model.UnknownTag, "T2", "T3"} {
		_ = ms.InsertLap(ctx, &model.Lap{TagID: tag, StartTimeRaw: "10:00:00.00", ElapsedMs: 1000})
	}

	rec := doJSON(t, srv.NewHTTPHandler(Credentials{}), "GET", "/unassigned", nil)
	requireStatus(t, rec, http.StatusOK)

	var got []string
	decodeJSON(t, rec, &got)
	if strings.Join(got, ",") != "T2,T3" {
		t.Fatalf("unassigned = %v, want [T2 T3]", got)
	}
}

func TestHandleTags(t *testing.T) {
	ms := newMockStore()
	pub := &recordingPublisher{}
	srv := NewLapServer(ms, gates.New(nil), pub, nil)
	handler := srv.NewHTTPHandler(Credentials{})

	rec := doJSON(t, handler, "POST", "/tags", map[string]any{"uuid": "  T1 ", "name": " Alice ", "color": "#00ff00"})
	requireStatus(t, rec, http.StatusOK)
	var ok map[string]string
	decodeJSON(t, rec, &ok)
	if ok["status"] != "ok" {
		t.Fatalf("expected status=ok, got %v", ok)
	}

	// Upsert replaces by uuid.
	rec = doJSON(t, handler, "POST", "/tags", map[string]any{"uuid": "T1", "name": "Alicia"})
	requireStatus(t, rec, http.StatusOK)

	rec = doJSON(t, handler, "GET", "/tags", nil)
	requireStatus(t, rec, http.StatusOK)
	var tags []model.Tag
	decodeJSON(t, rec, &tags)
	if len(tags) != 1 || tags[0].UUID != "T1" || tags[0].Name != "Alicia" || tags[0].Color != nil {
		t.Fatalf("tags = %+v", tags)
	}

	rec = doJSON(t, handler, "DELETE", "/tags/T1", nil)
	requireStatus(t, rec, http.StatusOK)
	if len(ms.tags) != 0 {
		t.Fatalf("expected tag deleted, got %v", ms.tags)
	}

	// Deleting an absent tag is not an error.
	rec = doJSON(t, handler, "DELETE", "/tags/missing", nil)
	requireStatus(t, rec, http.StatusOK)

	got := pub.published()
	want := []string{events.TopicTagUpdated, events.TopicTagUpdated, events.TopicTagDeleted, events.TopicTagDeleted}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("published %v, want %v", got, want)
	}
}

func TestHandleListTags_Empty(t *testing.T) {
	srv, _ := newTestServer()
	rec := doJSON(t, srv.NewHTTPHandler(Credentials{}), "GET", "/tags", nil)
	requireStatus(t, rec, http.StatusOK)
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("expected empty array, got %s", got)
	}
}

func TestHandleResets(t *testing.T) {
	srv, ms := newTestServer()
	ctx := context.Background()
	handler := srv.NewHTTPHandler(Credentials{})

	_ = ms.UpsertTag(ctx, &model.Tag{UUID: "T1", Name: "Alice"})
	_ = ms.InsertLap(ctx, &model.Lap{TagID: "T1", StartTimeRaw: "10:00:00.00", ElapsedMs: 1000})

	requireStatus(t, doJSON(t, handler, "DELETE", "/db/laps", nil), http.StatusOK)
	if len(ms.laps) != 0 {
		t.Fatalf("expected laps cleared, got %d", len(ms.laps))
	}
	if len(ms.tags) != 1 {
		t.Fatal("clearing laps must not touch tags")
	}

	requireStatus(t, doJSON(t, handler, "DELETE", "/db/tags", nil), http.StatusOK)
	if len(ms.tags) != 0 {
		t.Fatalf("expected tags cleared, got %d", len(ms.tags))
	}
}

func TestHandleHTTPErrors(t *testing.T) {
	for _, tc := range []struct {
		name      string
		method    string
		path      string
		body      any
		rawBody   string
		storeErr  error
		code      int
		wantError string
	}{
		{name: "UpsertMissingUUID", method: "POST", path: "/tags", body: map[string]any{"name": "Alice"}, code: http.StatusBadRequest, wantError: "uuid is required"},
		{name: "UpsertBlankName", method: "POST", path: "/tags", body: map[string]any{"uuid": "T1", "name": "   "}, code: http.StatusBadRequest, wantError: "name is required"},
		{name: "UpsertBadJSON", method: "POST", path: "/tags", rawBody: "{not json", code: http.StatusBadRequest, wantError: "invalid JSON body"},
		{name: "DeleteBlankUUID", method: "DELETE", path: "/tags/%20", code: http.StatusBadRequest, wantError: "uuid is required"},
		{name: "ListLapsStorage", method: "GET", path: "/laps", storeErr: store.Wrap("list laps", errors.New("disk gone")), code: http.StatusInternalServerError},
		{name: "UnassignedStorage", method: "GET", path: "/unassigned", storeErr: store.Wrap("list laps", errors.New("disk gone")), code: http.StatusInternalServerError},
		{name: "UpsertStorage", method: "POST", path: "/tags", body: map[string]any{"uuid": "T1", "name": "A"}, storeErr: store.Wrap("upsert tag", errors.New("locked")), code: http.StatusInternalServerError},
		{name: "ResetLapsStorage", method: "DELETE", path: "/db/laps", storeErr: store.Wrap("delete laps", errors.New("locked")), code: http.StatusInternalServerError},
		{name: "ResetTagsStorage", method: "DELETE", path: "/db/tags", storeErr: store.Wrap("delete tags", errors.New("locked")), code: http.StatusInternalServerError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv, ms := newTestServer()
			ms.err = tc.storeErr
			handler := srv.NewHTTPHandler(Credentials{})

			var rec *httptest.ResponseRecorder
			if tc.rawBody != "" {
				req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.rawBody))
				rec = httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
			} else {
				rec = doJSON(t, handler, tc.method, tc.path, tc.body)
			}
			requireStatus(t, rec, tc.code)

			var body map[string]string
			decodeJSON(t, rec, &body)
			if body["error"] == "" {
				t.Fatalf("expected error message, got %v", body)
			}
			if tc.wantError != "" && body["error"] != tc.wantError {
				t.Fatalf("error = %q, want %q", body["error"], tc.wantError)
			}
		})
	}
}

func TestProtectedRoutes(t *testing.T) {
	srv, _ := newTestServer()
	handler := srv.NewHTTPHandler(Credentials{Username: "admin", Password: "secret"})

	protected := []struct{ method, path string }{
		{"GET", "/tags"},
		{"POST", "/tags"},
		{"DELETE", "/tags/T1"},
		{"DELETE", "/db/laps"},
		{"DELETE", "/db/tags"},
	}
	for _, p := range protected {
		t.Run("NoCredentials"+p.method+p.path, func(t *testing.T) {
			rec := doJSON(t, handler, p.method, p.path, nil)
			requireStatus(t, rec, http.StatusUnauthorized)
			if !strings.HasPrefix(rec.Header().Get("WWW-Authenticate"), "Basic ") {
				t.Fatalf("expected Basic challenge, got %q", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}

	public := []string{"/laps", "/status", "/unassigned", "/health", "/gates"}
	for _, path := range public {
		t.Run("Public"+path, func(t *testing.T) {
			requireStatus(t, doJSON(t, handler, "GET", path, nil), http.StatusOK)
		})
	}
}

func TestRouting_UnknownMethod(t *testing.T) {
	srv, _ := newTestServer()
	rec := doJSON(t, srv.NewHTTPHandler(Credentials{}), "PUT", "/laps", nil)
	requireStatus(t, rec, http.StatusMethodNotAllowed)
}
