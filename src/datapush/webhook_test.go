package datapush

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPushSummary(t *testing.T) {
	var received Summary
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("请求体不是合法JSON: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := Summary{
		GeneratedAt: time.Now(),
		DataFile:    "stats.csv",
		Rows:        247,
		R2:          0.83,
		RMSE:        0.91,
		BestK:       4,
		Silhouette:  0.42,
	}
	if err := PushSummary(srv.URL, s); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	if received.Rows != 247 || received.BestK != 4 {
		t.Errorf("摘要内容不一致: %+v", received)
	}
}

func TestPostNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusForbidden)
	}))
	defer srv.Close()

	if err := post(srv.URL, []byte(`{}`)); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
