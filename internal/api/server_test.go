package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/schoolcrew/internal/crew"
	"github.com/nao1215/schoolcrew/internal/model"
)

// fakeCrew records the inputs of every kickoff.
type fakeCrew struct {
	mu     sync.Mutex
	inputs []map[string]string
	raw    string
	err    error
}

func (f *fakeCrew) Kickoff(_ context.Context, inputs map[string]string) (*model.CrewResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, inputs)
	if f.err != nil {
		return nil, f.err
	}
	return &model.CrewResult{RunID: "run-" + inputs["location"], Raw: f.raw}, nil
}

func (f *fakeCrew) lastInputs() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		return nil
	}
	return f.inputs[len(f.inputs)-1]
}

// fakeHistory is an in-memory History.
type fakeHistory struct {
	mu      sync.Mutex
	records []model.SearchRecord
	saveErr error
}

func (h *fakeHistory) Save(_ context.Context, rec *model.SearchRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.saveErr != nil {
		return h.saveErr
	}
	h.records = append(h.records, *rec)
	return nil
}

func (h *fakeHistory) Latest(_ context.Context, kind string, limit int) ([]model.SearchRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []model.SearchRecord
	for i := len(h.records) - 1; i >= 0 && len(out) < limit; i-- {
		if kind == "" || h.records[i].Kind == kind {
			out = append(out, h.records[i])
		}
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, c *fakeCrew, opts ...Option) *httptest.Server {
	t.Helper()

	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	s := NewServer(func() (crew.Kicker, error) { return c, nil }, opts...)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", data, err)
	}
	return v
}

func TestStaticRoutes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeCrew{})

	tests := []struct {
		path string
		want map[string]any
	}{
		{"/", map[string]any{"message": "School Crew API is running!", "status": "healthy"}},
		{"/health", map[string]any{"status": "healthy", "service": "school-crew-api"}},
		{"/curricula", map[string]any{"supported_curricula": []any{
			"CBSE", "ICSE", "IB", "State Board", "IGCSE", "Cambridge", "Montessori",
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			resp, body := doRequest(t, http.MethodGet, srv.URL+tt.path, "")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if diff := cmp.Diff(tt.want, decode[map[string]any](t, body)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("/grades", func(t *testing.T) {
		t.Parallel()

		_, body := doRequest(t, http.MethodGet, srv.URL+"/grades", "")
		got := decode[map[string][]string](t, body)["supported_grades"]
		if len(got) != 16 || got[0] != "Nursery" || got[15] != "12th Grade" {
			t.Errorf("unexpected grades %v", got)
		}
	})

	t.Run("unknown path", func(t *testing.T) {
		t.Parallel()

		resp, _ := doRequest(t, http.MethodGet, srv.URL+"/nope", "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})
}

func TestSearchSchools(t *testing.T) {
	t.Parallel()

	t.Run("passes inputs and returns raw output", func(t *testing.T) {
		t.Parallel()

		c := &fakeCrew{raw: "Green Valley | Indiranagar | 1L | 4.5"}
		srv := newTestServer(t, c)

		resp, body := doRequest(t, http.MethodPost, srv.URL+"/search-schools",
			`{"location": "Mumbai", "grade": "5th Grade", "curriculum": "ICSE"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, body %s", resp.StatusCode, body)
		}

		want := model.SearchResponse{
			Success: true,
			Message: "School search completed successfully",
			Data:    "Green Valley | Indiranagar | 1L | 4.5",
		}
		if diff := cmp.Diff(want, decode[model.SearchResponse](t, body)); diff != "" {
			t.Errorf("response mismatch (-want +got):\n%s", diff)
		}
		wantInputs := map[string]string{"location": "Mumbai", "grade": "5th Grade", "curriculum": "ICSE"}
		if diff := cmp.Diff(wantInputs, c.lastInputs()); diff != "" {
			t.Errorf("inputs mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty fields use defaults", func(t *testing.T) {
		t.Parallel()

		c := &fakeCrew{}
		srv := newTestServer(t, c)

		resp, _ := doRequest(t, http.MethodPost, srv.URL+"/search-schools", `{"grade": ""}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		want := map[string]string{
			"location":   model.DefaultLocation,
			"grade":      model.DefaultGrade,
			"curriculum": model.DefaultCurriculum,
		}
		if diff := cmp.Diff(want, c.lastInputs()); diff != "" {
			t.Errorf("inputs mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("crew failure is a 500 with detail", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &fakeCrew{err: errors.New("llm unavailable")})

		resp, body := doRequest(t, http.MethodPost, srv.URL+"/search-schools", `{}`)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", resp.StatusCode)
		}
		got := decode[model.ErrorResponse](t, body)
		if got.Detail != "Error processing school search: llm unavailable" {
			t.Errorf("detail = %q", got.Detail)
		}
	})

	t.Run("crew factory failure is a 500", func(t *testing.T) {
		t.Parallel()

		s := NewServer(func() (crew.Kicker, error) { return nil, errors.New("no api key") },
			WithLogger(discardLogger()))
		srv := httptest.NewServer(s.Handler())
		t.Cleanup(srv.Close)

		resp, body := doRequest(t, http.MethodPost, srv.URL+"/search-schools", `{}`)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", resp.StatusCode)
		}
		if got := decode[model.ErrorResponse](t, body).Detail; got != "Error processing school search: no api key" {
			t.Errorf("detail = %q", got)
		}
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		t.Parallel()

		c := &fakeCrew{}
		srv := newTestServer(t, c)

		resp, body := doRequest(t, http.MethodPost, srv.URL+"/search-schools", `{"location": `)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		if got := decode[model.ErrorResponse](t, body).Detail; !strings.HasPrefix(got, "Invalid request body") {
			t.Errorf("detail = %q", got)
		}
		if c.lastInputs() != nil {
			t.Error("crew should not run for a malformed body")
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		t.Parallel()

		resp, _ := doRequest(t, http.MethodGet, newDefaultServer(t).URL+"/search-schools", "")
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", resp.StatusCode)
		}
	})
}

func newDefaultServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServer(t, &fakeCrew{})
}

func TestSimpleSearch(t *testing.T) {
	t.Parallel()

	t.Run("query defaults", func(t *testing.T) {
		t.Parallel()

		c := &fakeCrew{raw: "results"}
		s := newTestServer(t, c)

		resp, body := doRequest(t, http.MethodGet, s.URL+"/search-schools/Pune", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		want := model.SimpleSearchResponse{
			Success:    true,
			Location:   "Pune",
			Grade:      "1st Grade",
			Curriculum: "CBSE",
			Results:    "results",
		}
		if diff := cmp.Diff(want, decode[model.SimpleSearchResponse](t, body)); diff != "" {
			t.Errorf("response mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("escaped location and query", func(t *testing.T) {
		t.Parallel()

		c := &fakeCrew{}
		s := newTestServer(t, c)

		resp, _ := doRequest(t, http.MethodGet, s.URL+"/search-schools/New%20Delhi?grade=5th+Grade&curriculum=IB", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		want := map[string]string{"location": "New Delhi", "grade": "5th Grade", "curriculum": "IB"}
		if diff := cmp.Diff(want, c.lastInputs()); diff != "" {
			t.Errorf("inputs mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("crew failure", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, &fakeCrew{err: errors.New("boom")})
		resp, body := doRequest(t, http.MethodGet, s.URL+"/search-schools/Pune", "")
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", resp.StatusCode)
		}
		if got := decode[model.ErrorResponse](t, body).Detail; got != "Error processing school search: boom" {
			t.Errorf("detail = %q", got)
		}
	})
}

func TestHistory(t *testing.T) {
	t.Parallel()

	t.Run("searches are saved and listed", func(t *testing.T) {
		t.Parallel()

		h := &fakeHistory{}
		s := newTestServer(t, &fakeCrew{raw: "out"}, WithHistory(h))

		for _, loc := range []string{"Pune", "Goa"} {
			if resp, _ := doRequest(t, http.MethodGet, s.URL+"/search-schools/"+loc, ""); resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
		}

		resp, body := doRequest(t, http.MethodGet, s.URL+"/history?limit=1", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		got := decode[map[string][]model.SearchRecord](t, body)["searches"]
		if len(got) != 1 {
			t.Fatalf("got %d records, want 1", len(got))
		}
		if got[0].RunID != "run-Goa" || got[0].Kind != model.KindSchoolSearch || got[0].Raw != "out" {
			t.Errorf("unexpected record %+v", got[0])
		}
	})

	t.Run("save failure does not fail the search", func(t *testing.T) {
		t.Parallel()

		h := &fakeHistory{saveErr: errors.New("disk full")}
		s := newTestServer(t, &fakeCrew{raw: "out"}, WithHistory(h))

		resp, _ := doRequest(t, http.MethodPost, s.URL+"/search-schools", `{}`)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("empty history is an empty list", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, &fakeCrew{}, WithHistory(&fakeHistory{}))
		_, body := doRequest(t, http.MethodGet, s.URL+"/history", "")
		if strings.TrimSpace(string(body)) != `{"searches":[]}` {
			t.Errorf("body = %s", body)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, &fakeCrew{}, WithHistory(&fakeHistory{}))
		resp, _ := doRequest(t, http.MethodGet, s.URL+"/history?limit=zero", "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		resp, _ := doRequest(t, http.MethodGet, newDefaultServer(t).URL+"/history", "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("assigned when missing", func(t *testing.T) {
		t.Parallel()

		resp, _ := doRequest(t, http.MethodGet, newDefaultServer(t).URL+"/health", "")
		if id := resp.Header.Get(RequestIDHeader); len(id) != 36 {
			t.Errorf("expected uuid request id, got %q", id)
		}
	})

	t.Run("valid incoming id is kept", func(t *testing.T) {
		t.Parallel()

		const id = "7f1c9c1e-2f59-4c1e-9a4b-3f0c2e6f8a11"
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, id)
		rec := httptest.NewRecorder()
		NewServer(nil, WithLogger(discardLogger())).Handler().ServeHTTP(rec, req)
		if got := rec.Header().Get(RequestIDHeader); got != id {
			t.Errorf("request id = %q, want %q", got, id)
		}
	})
}

func TestServe_Shutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(nil, WithLogger(discardLogger()), WithShutdownTimeout(time.Second))

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, _ := doRequest(t, http.MethodGet, "http://"+ln.Addr().String()+"/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
