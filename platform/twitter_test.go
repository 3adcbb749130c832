package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestTwitterClient_Post(t *testing.T) {
	type got struct {
		Path string
		Auth string
		Text string
	}
	ch := make(chan got, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		b, _ := io.ReadAll(r.Body)
		var req struct {
			Text string `json:"text"`
		}
		_ = json.Unmarshal(b, &req)
		ch <- got{Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Text: req.Text}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1234567890","text":"Hello world"}}`))
	}))
	defer srv.Close()

	c := NewTwitterClient(srv.URL, "token-123", "@quillbot", 2*time.Second)
	res, err := c.Post(context.Background(), "Hello world")
	if err != nil {
		t.Fatalf("Post error: %v", err)
	}
	if res.ID != "1234567890" {
		t.Fatalf("expected id 1234567890, got %q", res.ID)
	}
	if res.URL != "https://twitter.com/quillbot/status/1234567890" {
		t.Fatalf("unexpected url: %q", res.URL)
	}

	req := <-ch
	if req.Path != "/2/tweets" {
		t.Fatalf("expected path /2/tweets, got %q", req.Path)
	}
	if req.Auth != "Bearer token-123" {
		t.Fatalf("unexpected auth header: %q", req.Auth)
	}
	if req.Text != "Hello world" {
		t.Fatalf("unexpected text: %q", req.Text)
	}
}

func TestTwitterClient_TruncatesOverlongText(t *testing.T) {
	var gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		b, _ := io.ReadAll(r.Body)
		var req struct {
			Text string `json:"text"`
		}
		_ = json.Unmarshal(b, &req)
		gotText = req.Text
		_, _ = w.Write([]byte(`{"data":{"id":"1"}}`))
	}))
	defer srv.Close()

	c := NewTwitterClient(srv.URL, "token", "", 2*time.Second)
	long := strings.Repeat("é", 300)
	if _, err := c.Post(context.Background(), long); err != nil {
		t.Fatalf("Post error: %v", err)
	}
	if n := utf8.RuneCountInString(gotText); n != 280 {
		t.Fatalf("expected 280 runes sent, got %d", n)
	}
}

func TestTwitterClient_APIErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"title":"Forbidden","detail":"You are not permitted to create tweets"}`))
	}))
	defer srv.Close()

	c := NewTwitterClient(srv.URL, "token", "", 2*time.Second)
	_, err := c.Post(context.Background(), "Hello")
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
	if !strings.Contains(err.Error(), "not permitted") {
		t.Fatalf("expected api detail in error, got: %v", err)
	}
}

func TestTwitterClient_MissingCredentials(t *testing.T) {
	c := NewTwitterClient("", "", "", 0)
	if _, err := c.Post(context.Background(), "Hello"); err != ErrMissingCredentials {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestTwitterClient_DryRun(t *testing.T) {
	c := NewTwitterClient("http://unused.test", "token", "quillbot", 0)
	c.DryRun = true
	res, err := c.Post(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Post error: %v", err)
	}
	if res.ID == "" || !strings.Contains(res.URL, "quillbot") {
		t.Fatalf("unexpected dry-run result: %+v", res)
	}
}
