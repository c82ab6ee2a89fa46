package middleware

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// Compress encodes text responses (HTML pages, htmx fragments, JSON, CSS, JS,
// SVG) of at least minCompressSize bytes with brotli when the client accepts
// "br". Event streams, already encoded bodies, short bodies and bodiless
// statuses pass through untouched.
func Compress(level int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !acceptsBrotli(c.GetHeader("Accept-Encoding")) {
			c.Next()
			return
		}

		w := &brotliWriter{ResponseWriter: c.Writer, level: level}
		c.Writer = w
		c.Header("Vary", "Accept-Encoding")
		defer w.close()

		c.Next()
	}
}

func acceptsBrotli(header string) bool {
	for _, part := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "br") {
			continue
		}
		if q, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			v, err := strconv.ParseFloat(q, 64)
			return err == nil && v > 0
		}
		return true
	}
	return false
}

func compressible(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch {
	case mediaType == "text/event-stream":
		return false
	case strings.HasPrefix(mediaType, "text/"):
		return true
	}
	switch mediaType {
	case "application/json", "application/javascript", "application/ld+json", "image/svg+xml", "application/xml":
		return true
	}
	return false
}

// minCompressSize is the smallest body worth encoding. Shorter bodies are
// sent as they are.
const minCompressSize = 512

type writeMode int

const (
	modeUndecided writeMode = iota
	modeBuffer
	modePlain
	modeBrotli
)

// brotliWriter decides on the first write whether the response is a
// candidate, so headers set by the handler (Content-Type, Content-Encoding)
// are known by then. Candidates are buffered until minCompressSize bytes
// arrive; a body that ends or flushes before that goes out unencoded.
type brotliWriter struct {
	gin.ResponseWriter
	level int
	mode  writeMode
	buf   []byte
	bw    *brotli.Writer
}

func (w *brotliWriter) choose() writeMode {
	switch w.Status() {
	case http.StatusNoContent, http.StatusNotModified, http.StatusPartialContent:
		return modePlain
	}
	h := w.Header()
	if h.Get("Content-Encoding") != "" || !compressible(h.Get("Content-Type")) {
		return modePlain
	}
	return modeBuffer
}

func (w *brotliWriter) Write(b []byte) (int, error) {
	if w.mode == modeUndecided {
		w.mode = w.choose()
	}
	switch w.mode {
	case modeBrotli:
		return w.bw.Write(b)
	case modeBuffer:
		w.buf = append(w.buf, b...)
		if len(w.buf) >= minCompressSize {
			if err := w.startBrotli(); err != nil {
				return 0, err
			}
		}
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Written also counts bytes held back in the buffer.
func (w *brotliWriter) Written() bool {
	return len(w.buf) > 0 || w.ResponseWriter.Written()
}

func (w *brotliWriter) startBrotli() error {
	h := w.Header()
	h.Set("Content-Encoding", "br")
	h.Del("Content-Length")
	w.bw = brotli.NewWriterLevel(w.ResponseWriter, w.level)
	w.mode = modeBrotli
	buf := w.buf
	w.buf = nil
	_, err := w.bw.Write(buf)
	return err
}

// release sends a buffered short body unencoded.
func (w *brotliWriter) release() {
	w.mode = modePlain
	if len(w.buf) == 0 {
		return
	}
	buf := w.buf
	w.buf = nil
	_, _ = w.ResponseWriter.Write(buf)
}

func (w *brotliWriter) Flush() {
	if w.mode == modeBuffer {
		w.release()
	}
	if w.bw != nil {
		_ = w.bw.Flush()
	}
	w.ResponseWriter.Flush()
}

func (w *brotliWriter) close() {
	if w.mode == modeBuffer {
		w.release()
	}
	if w.bw != nil {
		_ = w.bw.Close()
	}
}
