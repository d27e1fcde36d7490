package feedbackhandler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"messease/internal/domain/audit"
	"messease/internal/domain/auth"
	"messease/internal/domain/feedback"
	"messease/internal/transport/http/middleware"
)

type memoryStore struct {
	polls   []feedback.Poll
	reviews map[string]feedback.Review
}

func (m *memoryStore) ListPolls(context.Context, int, int) (feedback.PollList, error) {
	return feedback.PollList{Polls: m.polls, Total: len(m.polls)}, nil
}

func (m *memoryStore) CreatePoll(_ context.Context, poll feedback.Poll) (feedback.Poll, error) {
	poll.ID = "poll-1"
	m.polls = append(m.polls, poll)
	return poll, nil
}

func (m *memoryStore) ListReviews(_ context.Context, filter feedback.ReviewFilter) (feedback.ReviewList, error) {
	var out []feedback.Review
	for _, rv := range m.reviews {
		if filter.Solved != nil && rv.Solved != *filter.Solved {
			continue
		}
		out = append(out, rv)
	}
	return feedback.ReviewList{Reviews: out, Total: len(out)}, nil
}

func (m *memoryStore) GetReview(_ context.Context, id string) (feedback.Review, error) {
	rv, ok := m.reviews[id]
	if !ok {
		return feedback.Review{}, feedback.ErrNotFound
	}
	return rv, nil
}

func (m *memoryStore) MarkSolved(_ context.Context, id string) error {
	rv, ok := m.reviews[id]
	if !ok {
		return feedback.ErrNotFound
	}
	rv.Solved = true
	m.reviews[id] = rv
	return nil
}

func (m *memoryStore) AppendPhoto(_ context.Context, id, url string) error {
	rv := m.reviews[id]
	rv.Photos = append(rv.Photos, url)
	m.reviews[id] = rv
	return nil
}

type memoryPhotos struct {
	keys []string
}

func (m *memoryPhotos) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	m.keys = append(m.keys, key)
	return "https://cdn.mess.test/" + key, nil
}

type memoryAudit struct {
	entries []audit.Entry
}

func (m *memoryAudit) Record(_ context.Context, e audit.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func newRouter(store *memoryStore, photos feedback.PhotoStore, rec *memoryAudit) http.Handler {
	h := NewHandler(feedback.NewService(store, photos), auth.StaticPermissions{}, rec)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			session := auth.Session{AdminID: "admin-1", Name: "Warden", Role: auth.RoleStaff, SessionID: "s1"}
			next.ServeHTTP(w, req.WithContext(middleware.WithSession(req.Context(), session)))
		})
	})
	h.RegisterRoutes(r)
	return r
}

func seeded() *memoryStore {
	return &memoryStore{reviews: map[string]feedback.Review{
		"r1": {ID: "r1", Food: "Dal", Review: "too salty", Rating: 2},
		"r2": {ID: "r2", Food: "Rice", Solved: true},
	}}
}

func photoRequest(t *testing.T, path, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="photo"; filename="plate.png"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreatePollValidatesOptions(t *testing.T) {
	store := seeded()
	rec := &memoryAudit{}
	router := newRouter(store, nil, rec)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/feedback/polls", strings.NewReader(`{"question":"Sunday special?","options":["Biryani"," "]}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/feedback/polls", strings.NewReader(`{"question":"Sunday special?","options":["Biryani","Pulao"]}`)))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(store.polls) != 1 || store.polls[0].Target != feedback.DefaultPollTarget || store.polls[0].Creator.Name != "Warden" {
		t.Fatalf("unexpected polls: %+v", store.polls)
	}
	if len(rec.entries) != 1 || rec.entries[0].Action != audit.ActionPollCreate {
		t.Fatalf("unexpected audit entries: %+v", rec.entries)
	}
}

func TestResolveAndFilterReviews(t *testing.T) {
	store := seeded()
	router := newRouter(store, nil, &memoryAudit{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/feedback/reviews?solved=false", nil))
	if resp.Code != http.StatusOK || resp.Header().Get("X-Total-Count") != "1" {
		t.Fatalf("expected one unsolved review, got %d %q", resp.Code, resp.Header().Get("X-Total-Count"))
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/feedback/reviews/r1/resolve", nil))
	if resp.Code != http.StatusOK || !store.reviews["r1"].Solved {
		t.Fatalf("expected review resolved, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/feedback/reviews/nope/resolve", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestUploadPhoto(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")

	t.Run("storage not configured", func(t *testing.T) {
		router := newRouter(seeded(), nil, &memoryAudit{})
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, photoRequest(t, "/feedback/reviews/r1/photos", "image/png", png))
		if resp.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", resp.Code)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		router := newRouter(seeded(), &memoryPhotos{}, &memoryAudit{})
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, photoRequest(t, "/feedback/reviews/r1/photos", "application/pdf", []byte("%PDF-1.4")))
		if resp.Code != http.StatusUnsupportedMediaType {
			t.Fatalf("expected 415, got %d", resp.Code)
		}
	})

	t.Run("stored", func(t *testing.T) {
		store := seeded()
		photos := &memoryPhotos{}
		router := newRouter(store, photos, &memoryAudit{})
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, photoRequest(t, "/feedback/reviews/r1/photos", "image/png", png))
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
		}
		if len(photos.keys) != 1 || !strings.HasPrefix(photos.keys[0], "reviews/r1/") || !strings.HasSuffix(photos.keys[0], ".png") {
			t.Fatalf("unexpected keys: %v", photos.keys)
		}
		if len(store.reviews["r1"].Photos) != 1 {
			t.Fatalf("expected photo appended, got %+v", store.reviews["r1"])
		}
	})
}
