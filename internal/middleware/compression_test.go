package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompressedRouter(cm *CompressionMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(cm.Handler())
	r.GET("/history", func(c *gin.Context) {
		c.String(http.StatusOK, strings.Repeat("entry ", 500))
	})
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.DELETE("/history", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestCompression_GzipsWhenAccepted(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	r := newCompressedRouter(cm)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/history", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("entry ", 500), string(body))

	stats := cm.GetStats()
	assert.Equal(t, int64(1), stats["compressed_requests"])
	assert.Equal(t, int64(3000), stats["total_bytes"])
	assert.Less(t, stats["compression_ratio"].(float64), 1.0)
}

func TestCompression_Skips(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		acceptEncoding string
		expectedStatus int
	}{
		{"client without gzip", http.MethodGet, "/history", "", http.StatusOK},
		{"excluded path", http.MethodGet, "/health", "gzip", http.StatusOK},
		{"empty body", http.MethodDelete, "/history", "gzip", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newCompressedRouter(NewCompressionMiddleware(DefaultCompressionConfig()))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Empty(t, w.Header().Get("Content-Encoding"))
			if tt.expectedStatus == http.StatusNoContent {
				assert.Zero(t, w.Body.Len())
			}
		})
	}
}
