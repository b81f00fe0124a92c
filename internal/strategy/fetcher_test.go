package strategy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const teamPageHTML = `<html><head><title>Acme | Team</title></head><body>
<h1>Our Team</h1>
<p>Jane Doe, CEO of Acme Corp, leads the company with twenty years of experience.</p>
<script>console.log("ignored")</script>
</body></html>`

func TestFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		_, _ = w.Write([]byte(teamPageHTML))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Acme | Team", page.Title)
	assert.Contains(t, page.Text, "Jane Doe, CEO")
	assert.NotContains(t, page.Text, "console.log", "scripts are stripped")
	assert.Contains(t, page.HTML, "<h1>")
}

func TestFetcher_BlockedCaptcha(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>Please complete the reCAPTCHA to continue` + strings.Repeat(" x", 100) + `</body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

func TestFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(strings.Repeat("not here ", 20)))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetcher_EmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty page")
}

func TestDetectBlock_CloudflareHeaders(t *testing.T) {
	resp := &http.Response{
		StatusCode: 403,
		Header:     http.Header{"Cf-Ray": []string{"abc123"}},
	}
	blocked, kind := detectBlock(resp, []byte("forbidden"))
	assert.True(t, blocked)
	assert.Equal(t, blockCloudflare, kind)
}

func TestDetectBlock_CleanPage(t *testing.T) {
	resp := &http.Response{StatusCode: 200, Header: http.Header{}}
	blocked, _ := detectBlock(resp, []byte(strings.Repeat("<p>hello world</p>", 200)))
	assert.False(t, blocked)
}
