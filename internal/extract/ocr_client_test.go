package extract

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOCRClientRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/ocr", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		if string(body) == "bad" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"UNREADABLE","message":"no text found"}`))
			return
		}
		if string(body) == "boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"text":"recognized words"}`))
	}))
	defer srv.Close()

	client := NewOCRClient(srv.URL, "secret", time.Second)

	text, err := client.Recognize(context.Background(), []byte("image bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "recognized words", text)

	_, err = client.Recognize(context.Background(), []byte("bad"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNREADABLE")

	_, err = client.Recognize(context.Background(), []byte("boom"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
