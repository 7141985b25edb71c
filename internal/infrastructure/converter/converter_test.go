package converter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docmind/backend/internal/domain/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPConverter_RawStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req convertRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "url", req.ContentType)
		assert.Equal(t, "https://example.com/a.pdf", req.Content)

		flusher := w.(http.Flusher)
		for i := 0; i < 3; i++ {
			fmt.Fprintf(w, "part%d ", i)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	c := NewHTTPConverter(srv.URL)
	stream, err := c.Convert(context.Background(), document.ConvertRequest{
		Content:     "https://example.com/a.pdf",
		ContentType: document.ContentURL,
		FileType:    "pdf",
	})
	require.NoError(t, err)

	text, err := Collect(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, "part0 part1 part2 ", text)
}

func TestHTTPConverter_NDJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"text":"# Title\n"}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `{"text":"body"}`)
	}))
	defer srv.Close()

	stream, err := NewHTTPConverter(srv.URL).Convert(context.Background(), document.ConvertRequest{ContentType: document.ContentBase64})
	require.NoError(t, err)
	text, err := Collect(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, "# Title\nbody", text)
}

func TestHTTPConverter_StreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"text":"partial"}`)
		fmt.Fprintln(w, `{"error":"unsupported encryption"}`)
	}))
	defer srv.Close()

	stream, err := NewHTTPConverter(srv.URL).Convert(context.Background(), document.ConvertRequest{ContentType: document.ContentBase64})
	require.NoError(t, err)
	_, err = Collect(context.Background(), stream)
	assert.EqualError(t, err, "unsupported encryption")
}

func TestHTTPConverter_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPConverter(srv.URL).Convert(context.Background(), document.ConvertRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestCollect_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	stream, err := NewHTTPConverter(srv.URL).Convert(ctx, document.ConvertRequest{})
	require.NoError(t, err)
	_, err = Collect(ctx, stream)
	assert.Error(t, err)
}

func TestLocalConverter(t *testing.T) {
	l := NewLocalConverter()
	enc := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	stream, err := l.Convert(context.Background(), document.ConvertRequest{Content: enc("# hi\n"), ContentType: document.ContentBase64, FileType: ".MD"})
	require.NoError(t, err)
	text, err := Collect(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, "# hi\n", text)

	stream, err = l.Convert(context.Background(), document.ConvertRequest{Content: enc("a,b\n1,2\n"), ContentType: document.ContentBase64, FileType: "csv"})
	require.NoError(t, err)
	text, err = Collect(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, "```csv\na,b\n1,2\n```\n", text)

	assert.False(t, l.Supports(document.ConvertRequest{ContentType: document.ContentURL, FileType: "md"}))
	assert.False(t, l.Supports(document.ConvertRequest{ContentType: document.ContentBase64, FileType: "pdf"}))
}

func TestRouter(t *testing.T) {
	r := NewRouter(NewLocalConverter(), nil)
	_, err := r.Convert(context.Background(), document.ConvertRequest{ContentType: document.ContentBase64, FileType: "pdf"})
	assert.Error(t, err)

	stream, err := r.Convert(context.Background(), document.ConvertRequest{Content: base64.StdEncoding.EncodeToString([]byte("x")), ContentType: document.ContentBase64, FileType: "txt"})
	require.NoError(t, err)
	text, err := Collect(context.Background(), stream)
	require.NoError(t, err)
	assert.Equal(t, "x", text)
}
