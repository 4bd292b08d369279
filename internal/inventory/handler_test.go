package inventory_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/4jp/alchemia/internal/intake"
	"github.com/4jp/alchemia/internal/inventory"
	"github.com/4jp/alchemia/pkg/pagination"
)

type mockSystem struct {
	listFn        func(ctx context.Context, page pagination.PageRequest, filters inventory.Filters) (*pagination.PageResult[inventory.Entry], error)
	findFn        func(ctx context.Context, id uuid.UUID) (*inventory.Entry, error)
	insertBatchFn func(ctx context.Context, runID uuid.UUID, entries []intake.Entry) (int, error)
	deleteRunFn   func(ctx context.Context, runID uuid.UUID) (int, error)
}

func (m *mockSystem) Handler() *inventory.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters inventory.Filters) (*pagination.PageResult[inventory.Entry], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*inventory.Entry, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) InsertBatch(ctx context.Context, runID uuid.UUID, entries []intake.Entry) (int, error) {
	return m.insertBatchFn(ctx, runID, entries)
}

func (m *mockSystem) DeleteRun(ctx context.Context, runID uuid.UUID) (int, error) {
	return m.deleteRunFn(ctx, runID)
}

func newTestHandler(sys *mockSystem) *inventory.Handler {
	return inventory.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *inventory.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func sampleEntry() inventory.Entry {
	return inventory.Entry{
		ID:           uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		RunID:        uuid.MustParse("660e8400-e29b-41d4-a716-446655440000"),
		Path:         "/data/docs/spec-draft.md",
		RelativePath: "docs/spec-draft.md",
		SourceDir:    "/data",
		Filename:     "spec-draft.md",
		Extension:    ".md",
		MimeType:     "text/markdown",
		SizeBytes:    1024,
		SHA256:       "deadbeef",
		LastModified: time.Now().Truncate(time.Second),
		Depth:        1,
	}
}

func TestHandlerList(t *testing.T) {
	e := sampleEntry()
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, _ inventory.Filters) (*pagination.PageResult[inventory.Entry], error) {
			result := pagination.NewPageResult([]inventory.Entry{e}, 1, 1, 20)
			return &result, nil
		},
	}

	mux := setupMux(newTestHandler(sys))

	t.Run("returns paginated list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/inventory", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var result pagination.PageResult[inventory.Entry]
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}

		if result.Total != 1 {
			t.Errorf("total = %d, want 1", result.Total)
		}
		if len(result.Data) != 1 {
			t.Fatalf("data length = %d, want 1", len(result.Data))
		}
		if result.Data[0].ID != e.ID {
			t.Errorf("id = %v, want %v", result.Data[0].ID, e.ID)
		}
	})

	t.Run("passes query filters", func(t *testing.T) {
		var captured inventory.Filters
		sys.listFn = func(_ context.Context, _ pagination.PageRequest, f inventory.Filters) (*pagination.PageResult[inventory.Entry], error) {
			captured = f
			result := pagination.NewPageResult([]inventory.Entry{}, 0, 1, 20)
			return &result, nil
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/inventory?extension=.md&duplicate=true", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.Extension == nil || *captured.Extension != ".md" {
			t.Errorf("extension filter = %v, want .md", captured.Extension)
		}
		if captured.Duplicate == nil || !*captured.Duplicate {
			t.Errorf("duplicate filter = %v, want true", captured.Duplicate)
		}
	})
}

func TestHandlerFind(t *testing.T) {
	e := sampleEntry()

	t.Run("returns entry by id", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, id uuid.UUID) (*inventory.Entry, error) {
				if id != e.ID {
					return nil, inventory.ErrNotFound
				}
				return &e, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/inventory/"+e.ID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var got inventory.Entry
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.ID != e.ID {
			t.Errorf("id = %v, want %v", got.ID, e.ID)
		}
	})

	t.Run("invalid uuid returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/inventory/not-a-uuid", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("not found returns 404", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, _ uuid.UUID) (*inventory.Entry, error) {
				return nil, inventory.ErrNotFound
			},
		}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/inventory/"+uuid.New().String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerSearch(t *testing.T) {
	e := sampleEntry()

	t.Run("returns search results", func(t *testing.T) {
		sys := &mockSystem{
			listFn: func(_ context.Context, _ pagination.PageRequest, _ inventory.Filters) (*pagination.PageResult[inventory.Entry], error) {
				result := pagination.NewPageResult([]inventory.Entry{e}, 1, 1, 20)
				return &result, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, _ := json.Marshal(inventory.SearchRequest{
			PageRequest: pagination.PageRequest{Page: 1, PageSize: 20},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/inventory/search", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var result pagination.PageResult[inventory.Entry]
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if result.Total != 1 {
			t.Errorf("total = %d, want 1", result.Total)
		}
	})

	t.Run("invalid json returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(newTestHandler(sys))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/inventory/search", bytes.NewReader([]byte("not json")))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("normalizes pagination", func(t *testing.T) {
		var capturedPage pagination.PageRequest
		sys := &mockSystem{
			listFn: func(_ context.Context, page pagination.PageRequest, _ inventory.Filters) (*pagination.PageResult[inventory.Entry], error) {
				capturedPage = page
				result := pagination.NewPageResult([]inventory.Entry{}, 0, page.Page, page.PageSize)
				return &result, nil
			},
		}
		mux := setupMux(newTestHandler(sys))

		body, _ := json.Marshal(inventory.SearchRequest{
			PageRequest: pagination.PageRequest{Page: 0, PageSize: 0},
		})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/inventory/search", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if capturedPage.Page != 1 {
			t.Errorf("page = %d, want 1 (normalized)", capturedPage.Page)
		}
		if capturedPage.PageSize != 20 {
			t.Errorf("page_size = %d, want 20 (default)", capturedPage.PageSize)
		}
	})
}

func TestHandlerRoutes(t *testing.T) {
	sys := &mockSystem{}
	group := newTestHandler(sys).Routes()

	if group.Prefix != "/inventory" {
		t.Errorf("prefix = %q, want /inventory", group.Prefix)
	}

	want := []struct {
		method  string
		pattern string
	}{
		{"GET", ""},
		{"GET", "/{id}"},
		{"POST", "/search"},
	}

	if len(group.Routes) != len(want) {
		t.Fatalf("route count = %d, want %d", len(group.Routes), len(want))
	}

	for i, w := range want {
		r := group.Routes[i]
		if r.Method != w.method || r.Pattern != w.pattern {
			t.Errorf("route[%d] = %s %s, want %s %s", i, r.Method, r.Pattern, w.method, w.pattern)
		}
	}
}
