package middleware

import (
	"compress/gzip"
	"io"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	CompressionLevel int      // gzip level, 1 (fastest) to 9 (smallest)
	ExcludedPaths    []string // path prefixes served uncompressed
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		CompressionLevel: gzip.DefaultCompression,
		ExcludedPaths:    []string{"/health"},
	}
}

// CompressionMiddleware gzips responses for clients that accept it. History
// listings grow with the log, so they are the main beneficiary.
type CompressionMiddleware struct {
	config CompressionConfig
	stats  *CompressionStats
	pool   sync.Pool
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	level := config.CompressionLevel
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}

	return &CompressionMiddleware{
		config: config,
		stats:  NewCompressionStats(),
		pool: sync.Pool{
			New: func() interface{} {
				gz, _ := gzip.NewWriterLevel(io.Discard, level)
				return gz
			},
		},
	}
}

// Handler returns the gin middleware
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cm.shouldCompress(c) {
			c.Next()
			return
		}

		gz := cm.pool.Get().(*gzip.Writer)
		gz.Reset(c.Writer)

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")

		writer := &gzipResponseWriter{ResponseWriter: c.Writer, gzipWriter: gz}
		c.Writer = writer

		defer func() {
			if writer.plain == 0 {
				// Nothing was written, so no gzip stream either.
				gz.Reset(io.Discard)
				writer.Header().Del("Content-Encoding")
				writer.Header().Del("Vary")
			}
			_ = gz.Close()
			cm.pool.Put(gz)

			if writer.plain > 0 {
				cm.stats.RecordRequest(writer.plain, int64(writer.ResponseWriter.Size()), true)
			} else {
				cm.stats.RecordRequest(0, 0, false)
			}
		}()

		c.Next()
	}
}

func (cm *CompressionMiddleware) shouldCompress(c *gin.Context) bool {
	if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
		return false
	}
	if strings.Contains(c.GetHeader("Connection"), "Upgrade") {
		return false
	}

	path := c.Request.URL.Path
	for _, prefix := range cm.config.ExcludedPaths {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// gzipResponseWriter sends the body through a gzip writer
type gzipResponseWriter struct {
	gin.ResponseWriter
	gzipWriter *gzip.Writer
	plain      int64
}

// WriteHeader drops any precomputed length, which no longer matches the body
func (gzw *gzipResponseWriter) WriteHeader(statusCode int) {
	gzw.Header().Del("Content-Length")
	gzw.ResponseWriter.WriteHeader(statusCode)
}

// Write writes data through the gzip writer
func (gzw *gzipResponseWriter) Write(data []byte) (int, error) {
	gzw.Header().Del("Content-Length")
	n, err := gzw.gzipWriter.Write(data)
	gzw.plain += int64(n)
	return n, err
}

// WriteString writes s through the gzip writer
func (gzw *gzipResponseWriter) WriteString(s string) (int, error) {
	return gzw.Write([]byte(s))
}

// Flush flushes the gzip writer
func (gzw *gzipResponseWriter) Flush() {
	_ = gzw.gzipWriter.Flush()
	gzw.ResponseWriter.Flush()
}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	TotalRequests      int64
	CompressedRequests int64
	TotalBytes         int64
	CompressedBytes    int64
	mutex              sync.RWMutex
}

// NewCompressionStats creates new compression statistics
func NewCompressionStats() *CompressionStats {
	return &CompressionStats{}
}

// RecordRequest records a request's compression stats
func (cs *CompressionStats) RecordRequest(originalSize, compressedSize int64, compressed bool) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.TotalRequests++
	cs.TotalBytes += originalSize

	if compressed {
		cs.CompressedRequests++
		cs.CompressedBytes += compressedSize
	}
}

// GetStats returns current compression statistics
func (cs *CompressionStats) GetStats() map[string]interface{} {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	compressionRatio := float64(0)
	if cs.TotalBytes > 0 {
		compressionRatio = float64(cs.CompressedBytes) / float64(cs.TotalBytes)
	}

	return map[string]interface{}{
		"total_requests":      cs.TotalRequests,
		"compressed_requests": cs.CompressedRequests,
		"total_bytes":         cs.TotalBytes,
		"compressed_bytes":    cs.CompressedBytes,
		"compression_ratio":   compressionRatio,
	}
}

// GetStats returns compression statistics
func (cm *CompressionMiddleware) GetStats() map[string]interface{} {
	return cm.stats.GetStats()
}
