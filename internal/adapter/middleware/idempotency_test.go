package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const testKey = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

// helper: new Echo with the middleware chain and a simple route
func setupEcho(rdb *redis.Client, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	log := logrus.New()
	log.SetOutput(io.Discard)

	e := echo.New()
	e.HideBanner = true
	e.Use(RequestLogger(log), RequireActor(), IdempotencyMiddleware(rdb, ttl))
	e.POST("/forms", handler)
	e.GET("/forms", handler) // for non-mutating bypass test
	return e
}

func mkJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

func validHeaders() map[string]string {
	return map[string]string{HeaderIdempotencyKey: testKey, HeaderActorID: "7"}
}

// counting handler to prove replays never reach the ledger twice
func countingHandler(calls *int, code int) echo.HandlerFunc {
	return func(c echo.Context) error {
		*calls++
		return c.JSON(code, map[string]any{"call": *calls})
	}
}

func Test_BypassOnGET_NoIdempotencyKeyRequired(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "get ok"})
	})
	rec := doReq(t, e, http.MethodGet, "/forms", nil, map[string]string{HeaderActorID: "7"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func Test_ValidationFailures(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int
	e := setupEcho(rdb, 30*time.Second, countingHandler(&calls, http.StatusCreated))

	tests := []struct {
		name string
		hdr  map[string]string
		want int
	}{
		{"missing actor", map[string]string{HeaderIdempotencyKey: testKey}, http.StatusUnauthorized},
		{"non-numeric actor", map[string]string{HeaderIdempotencyKey: testKey, HeaderActorID: "abc"}, http.StatusBadRequest},
		{"zero actor", map[string]string{HeaderIdempotencyKey: testKey, HeaderActorID: "0"}, http.StatusBadRequest},
		{"missing key", map[string]string{HeaderActorID: "7"}, http.StatusBadRequest},
		{"invalid key", map[string]string{HeaderIdempotencyKey: "NOT-VALID", HeaderActorID: "7"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doReq(t, e, http.MethodPost, "/forms", mkJSONBody(t, map[string]int{"x": 1}), tt.hdr)
			if rec.Code != tt.want {
				t.Fatalf("want %d, got %d body=%s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
	if calls != 0 {
		t.Fatalf("handler must not run on rejected requests, ran %d times", calls)
	}
}

func Test_HappyPath_Then_Replay(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls, http.StatusCreated))

	rec1 := doReq(t, e, http.MethodPost, "/forms", mkJSONBody(t, map[string]any{"form_type": "borrow"}), validHeaders())
	if rec1.Code != http.StatusCreated {
		t.Fatalf("first request => want 201, got %d, body: %s", rec1.Code, rec1.Body.String())
	}

	rec2 := doReq(t, e, http.MethodPost, "/forms", mkJSONBody(t, map[string]any{"form_type": "borrow"}), validHeaders())
	if rec2.Code != http.StatusCreated {
		t.Fatalf("replay => want 201, got %d, body: %s", rec2.Code, rec2.Body.String())
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body mismatch: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
	if rec2.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("replay must be marked")
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}

	// same key from another actor is a different request
	h := validHeaders()
	h[HeaderActorID] = "8"
	doReq(t, e, http.MethodPost, "/forms", mkJSONBody(t, map[string]any{"form_type": "borrow"}), h)
	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2", calls)
	}
}

func Test_ServerErrorsAreNotStored(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls, http.StatusServiceUnavailable))

	for i := 0; i < 2; i++ {
		rec := doReq(t, e, http.MethodPost, "/forms", bytes.NewReader([]byte(`{}`)), validHeaders())
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("want 503, got %d", rec.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("a failed request must be retryable, handler ran %d times", calls)
	}
	if mr.Exists(buildKey(http.MethodPost, "/forms", 7, testKey)) {
		t.Fatalf("key must be released after a server error")
	}
}

func Test_Conflict_When_InProgress(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls, http.StatusCreated))

	body := []byte(`{"x":1}`)
	key := buildKey(http.MethodPost, "/forms", 7, testKey)
	entry := idempEntry{InProgress: true, BodySHA256: bodyHash(body), Key: testKey, CreatedAt: time.Now().UTC()}
	if ok, err := provisionalSet(context.Background(), rdb, key, entry); err != nil || !ok {
		t.Fatalf("seed provisional failed, ok=%v err=%v", ok, err)
	}

	rec := doReq(t, e, http.MethodPost, "/forms", bytes.NewReader(body), validHeaders())
	if rec.Code != http.StatusConflict {
		t.Fatalf("in-progress => want 409, got %d body=%s", rec.Code, rec.Body.String())
	}
	if calls != 0 {
		t.Fatalf("handler must not run while the key is held")
	}
}

func Test_Conflict_When_SameKey_DifferentBody(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	var calls int
	e := setupEcho(rdb, 2*time.Minute, countingHandler(&calls, http.StatusCreated))

	key := buildKey(http.MethodPost, "/forms", 7, testKey)
	final := idempEntry{
		Code:       http.StatusCreated,
		Body:       []byte(`{"ok":true}`),
		BodySHA256: bodyHash([]byte(`{"x":1}`)),
		Key:        testKey,
		CreatedAt:  time.Now().UTC(),
	}
	if err := saveFinal(context.Background(), rdb, key, final, 5*time.Minute); err != nil {
		t.Fatalf("seed final failed: %v", err)
	}

	rec := doReq(t, e, http.MethodPost, "/forms", bytes.NewReader([]byte(`{"x":2}`)), validHeaders())
	if rec.Code != http.StatusConflict {
		t.Fatalf("different body same key => want 409, got %d", rec.Code)
	}
}

func Test_StoreUnavailable_Returns503(t *testing.T) {
	// closed address → SetNX error
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	e := setupEcho(rdb, time.Minute, func(c echo.Context) error { return c.NoContent(http.StatusCreated) })

	rec := doReq(t, e, http.MethodPost, "/forms", bytes.NewReader([]byte(`{}`)), validHeaders())
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("store unavailable => want 503, got %d", rec.Code)
	}
}
