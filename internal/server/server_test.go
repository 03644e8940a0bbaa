package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeHandler struct {
	calls int
	last  tgbotapi.Update
	err   error
	panic bool
}

func (f *fakeHandler) HandleUpdate(ctx context.Context, u tgbotapi.Update) error {
	f.calls++
	f.last = u
	if f.panic {
		panic("boom")
	}
	return f.err
}

const token = "123:abc"

func newTestServer(h *fakeHandler) http.Handler {
	return New(h, Options{AppName: "Running Bot", Token: token}).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if method != http.MethodHead {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: invalid json %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestWebhookRejectsWrongToken(t *testing.T) {
	h := &fakeHandler{}
	rec, out := do(t, newTestServer(h), http.MethodPost, "/webhook/999:zzz", `{"update_id":1}`)
	if rec.Code != http.StatusUnauthorized || out["detail"] != "Unauthorized" {
		t.Fatalf("got %d %v", rec.Code, out)
	}
	if h.calls != 0 {
		t.Fatalf("router must not be invoked on token mismatch")
	}
}

func TestWebhookDispatchesUpdate(t *testing.T) {
	h := &fakeHandler{}
	body := `{"update_id":42,"message":{"message_id":1,"text":"/start","chat":{"id":7,"type":"private"},"from":{"id":7,"first_name":"Kim"}}}`
	rec, out := do(t, newTestServer(h), http.MethodPost, "/webhook/"+token, body)
	if rec.Code != http.StatusOK || out["ok"] != true {
		t.Fatalf("got %d %v", rec.Code, out)
	}
	if h.calls != 1 || h.last.UpdateID != 42 || h.last.Message.Text != "/start" {
		t.Fatalf("unexpected dispatch %d %+v", h.calls, h.last)
	}
}

func TestWebhookErrorsBecome500(t *testing.T) {
	rec, out := do(t, newTestServer(&fakeHandler{}), http.MethodPost, "/webhook/"+token, "{not json")
	if rec.Code != http.StatusInternalServerError || out["detail"] == "" {
		t.Fatalf("bad json: got %d %v", rec.Code, out)
	}

	rec, out = do(t, newTestServer(&fakeHandler{panic: true}), http.MethodPost, "/webhook/"+token, `{"update_id":3}`)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(out["detail"].(string), "boom") {
		t.Fatalf("panic: got %d %v", rec.Code, out)
	}
}

func TestWebhookReplyFailureIsAcknowledged(t *testing.T) {
	h := &fakeHandler{err: errors.New("send message: Forbidden: bot was blocked by the user")}
	srv := newTestServer(h)
	body := `{"update_id":5,"message":{"message_id":1,"text":"/record 5.0 00:25:47","chat":{"id":7,"type":"private"}}}`
	rec, out := do(t, srv, http.MethodPost, "/webhook/"+token, body)
	if rec.Code != http.StatusOK || out["ok"] != true {
		t.Fatalf("send failure must not trigger redelivery: got %d %v", rec.Code, out)
	}
	if h.calls != 1 {
		t.Fatalf("want one dispatch, got %d", h.calls)
	}
}

func TestWebhookRequiresPost(t *testing.T) {
	h := &fakeHandler{}
	req := httptest.NewRequest(http.MethodGet, "/webhook/"+token, nil)
	rec := httptest.NewRecorder()
	newTestServer(h).ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed || h.calls != 0 {
		t.Fatalf("got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(&fakeHandler{})

	rec, out := do(t, srv, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || out["status"] != "ok" || out["app"] != "Running Bot" || out["message"] != runningMessage {
		t.Fatalf("root: got %d %v", rec.Code, out)
	}

	rec, out = do(t, srv, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || out["status"] != "healthy" {
		t.Fatalf("health: got %d %v", rec.Code, out)
	}

	rec, _ = do(t, srv, http.MethodHead, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("head health: got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown path: got %d", rr.Code)
	}
}
