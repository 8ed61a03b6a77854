package usda

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

type mockCallRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *mockCallRecorder) RecordUSDACall(outcome string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func newTestClient(server *httptest.Server, rec CallRecorder, buf *bytes.Buffer) *Client {
	return NewClient(server.Client(), newTestLogger(buf), Config{
		BaseURL:         server.URL + "/fdc/v1/",
		APIKey:          "secret-fdc-key",
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	}, rec)
}

const appleResponse = `{
  "totalHits": 1,
  "currentPage": 1,
  "totalPages": 1,
  "foods": [{
    "fdcId": 171688,
    "description": "Apples, raw, with skin",
    "dataType": "SR Legacy",
    "foodCategory": "Fruits and Fruit Juices",
    "foodNutrients": [
      {"nutrientId": 1008, "nutrientName": "Energy", "nutrientNumber": "208", "unitName": "KCAL", "value": 52},
      {"nutrientId": 1003, "nutrientName": "Protein", "unitName": "G", "value": 0.26}
    ],
    "unusedField": true
  }]
}`

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(nil, nil, Config{}, nil)
	if c.endpoint != DefaultBaseURL+"/foods/search" {
		t.Errorf("endpoint = %q", c.endpoint)
	}
	if c.apiKey != DefaultAPIKey {
		t.Errorf("apiKey = %q, want %q", c.apiKey, DefaultAPIKey)
	}
	if c.httpClient.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", c.httpClient.Timeout)
	}
}

func TestClient_Search_SendsQueryAndDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("HTTPメソッド = %s, want GET", r.Method)
		}
		if r.URL.Path != "/fdc/v1/foods/search" {
			t.Errorf("パス = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "secret-fdc-key" || q.Get("query") != "apple" || q.Get("pageSize") != "5" {
			t.Errorf("クエリ = %v", q)
		}
		if got := q["dataType"]; len(got) != 2 || got[0] != "Foundation" || got[1] != "SR Legacy" {
			t.Errorf("dataType = %v", got)
		}
		if q.Get("sortBy") != "dataType.keyword" || q.Get("sortOrder") != "asc" {
			t.Errorf("ソート指定 = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(appleResponse))
	}))
	defer server.Close()

	rec := &mockCallRecorder{}
	var buf bytes.Buffer
	c := newTestClient(server, rec, &buf)

	res, err := c.Search(context.Background(), "apple", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.TotalHits != 1 || len(res.Foods) != 1 {
		t.Fatalf("result = %+v", res)
	}
	food := res.Foods[0]
	if food.FdcID != 171688 || food.Description != "Apples, raw, with skin" || len(food.FoodNutrients) != 2 {
		t.Errorf("food = %+v", food)
	}
	if food.FoodNutrients[0].Value != 52 || food.FoodNutrients[0].UnitName != "KCAL" {
		t.Errorf("energy nutrient = %+v", food.FoodNutrients[0])
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != "success" {
		t.Errorf("outcomes = %v, want [success]", rec.outcomes)
	}
}

func TestClient_Search_EmptyFoodsIsEmptySlice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalHits":0}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	res, err := newTestClient(server, nil, &buf).Search(context.Background(), "zzz", 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.Foods == nil || len(res.Foods) != 0 {
		t.Errorf("Foods = %#v, want empty slice", res.Foods)
	}
}

func TestNormalizePageSize(t *testing.T) {
	tests := []struct{ in, want int }{
		{-1, DefaultPageSize},
		{0, DefaultPageSize},
		{1, 1},
		{MaxPageSize, MaxPageSize},
		{MaxPageSize + 1, MaxPageSize},
	}
	for _, tt := range tests {
		if got := NormalizePageSize(tt.in); got != tt.want {
			t.Errorf("NormalizePageSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClient_Search_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantOp     string
		wantStatus int
	}{
		{
			name: "エラーステータス",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"API_KEY_INVALID"}`, http.StatusForbidden)
			},
			wantOp:     "request",
			wantStatus: http.StatusForbidden,
		},
		{
			name: "壊れたJSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>maintenance</html>`))
			},
			wantOp:     "decode",
			wantStatus: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			var buf bytes.Buffer
			_, err := newTestClient(server, nil, &buf).Search(context.Background(), "apple", 10)

			var uerr *Error
			if !errors.As(err, &uerr) {
				t.Fatalf("error = %v, want *usda.Error", err)
			}
			if uerr.Op != tt.wantOp || uerr.StatusCode != tt.wantStatus {
				t.Errorf("error = %+v, want op %q status %d", uerr, tt.wantOp, tt.wantStatus)
			}
		})
	}
}

func TestClient_Search_NetworkErrorDoesNotLeakAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	var buf bytes.Buffer
	c := NewClient(nil, newTestLogger(&buf), Config{BaseURL: url, APIKey: "secret-fdc-key"}, nil)

	_, err := c.Search(context.Background(), "apple", 10)
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
	if strings.Contains(err.Error(), "secret-fdc-key") {
		t.Errorf("error leaks api key: %v", err)
	}
	if strings.Contains(buf.String(), "secret-fdc-key") {
		t.Errorf("log leaks api key: %s", buf.String())
	}
}

func TestClient_Search_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	rec := &mockCallRecorder{}
	var buf bytes.Buffer
	c := newTestClient(server, rec, &buf)

	for i := 0; i < 3; i++ {
		if _, err := c.Search(context.Background(), "apple", 10); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if hits != 2 {
		t.Errorf("upstream hits = %d, want 2 (third call short-circuited)", hits)
	}
	if rec.outcomes[2] != "rejected" {
		t.Errorf("outcomes = %v, want third call rejected", rec.outcomes)
	}
}
