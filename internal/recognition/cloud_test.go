package recognition

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vinscan-service/internal/domain/vin"
)

func cloudResponse(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(body)
}

func TestCloudEngineRecognize(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(cloudResponse("1HGCM82633A004352")))
	}))
	defer srv.Close()

	e := NewCloudEngine("test-key", srv.URL, zerolog.Nop())
	candidate, err := e.Recognize(context.Background(), []byte{0x89, 0x50})
	if err != nil {
		t.Fatal(err)
	}

	if candidate.Text != "1HGCM82633A004352" {
		t.Errorf("Text = %q", candidate.Text)
	}
	if candidate.Source != vin.SourceCloud {
		t.Errorf("Source = %q", candidate.Source)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(gotReq.Messages) != 1 || len(gotReq.Messages[0].Content) != 2 {
		t.Fatalf("unexpected request shape: %+v", gotReq)
	}
	if gotReq.Messages[0].Content[1].ImageURL == nil {
		t.Error("request carries no image")
	}
}

func TestCloudEngineTruncatesLongAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(cloudResponse("VIN IS 1HGCM82633A004352X TRAILING")))
	}))
	defer srv.Close()

	e := NewCloudEngine("k", srv.URL, zerolog.Nop())
	candidate, err := e.Recognize(context.Background(), []byte{1})
	if err != nil {
		t.Fatal(err)
	}
	if len(candidate.Text) != 17 {
		t.Errorf("len(Text) = %d, want 17 (%q)", len(candidate.Text), candidate.Text)
	}
}

func TestCloudEngineFailureModes(t *testing.T) {
	t.Run("empty answer", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(cloudResponse("")))
		}))
		defer srv.Close()

		_, err := NewCloudEngine("k", srv.URL, zerolog.Nop()).Recognize(context.Background(), []byte{1})
		if !errors.Is(err, ErrNoUsableText) {
			t.Fatalf("err = %v, want ErrNoUsableText", err)
		}
	})

	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewCloudEngine("k", srv.URL, zerolog.Nop()).Recognize(context.Background(), []byte{1})
		if !errors.Is(err, ErrNoUsableText) {
			t.Fatalf("err = %v, want ErrNoUsableText", err)
		}
	})

	t.Run("transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		_, err := NewCloudEngine("k", srv.URL, zerolog.Nop()).Recognize(context.Background(), []byte{1})
		if !errors.Is(err, ErrNoUsableText) {
			t.Fatalf("err = %v, want ErrNoUsableText", err)
		}
	})

	t.Run("missing api key", func(t *testing.T) {
		_, err := NewCloudEngine("", "http://localhost:0", zerolog.Nop()).Recognize(context.Background(), []byte{1})
		if !errors.Is(err, ErrNoUsableText) {
			t.Fatalf("err = %v, want ErrNoUsableText", err)
		}
	})
}

func TestCloudEngineTimeoutIsBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(cloudResponse("1HGCM82633A004352")))
	}))
	defer srv.Close()

	e := NewCloudEngine("k", srv.URL, zerolog.Nop(), WithTimeout(20*time.Millisecond))
	if _, err := e.Recognize(context.Background(), []byte{1}); err == nil {
		t.Fatal("expected timeout error")
	}
}
