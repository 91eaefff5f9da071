package http

import (
	"bytes"
	"net/http"
)

// captureWriter tees the response into a buffer so a successful page can be
// cached after the handler ran.
type captureWriter struct {
	http.ResponseWriter
	buf     bytes.Buffer
	status  int
	written bool
}

func (cw *captureWriter) WriteHeader(code int) {
	if !cw.written {
		cw.status = code
		cw.written = true
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.written {
		cw.status = http.StatusOK
		cw.written = true
	}
	cw.buf.Write(b)
	return cw.ResponseWriter.Write(b)
}

// cachePage serves whole rendered pages from the page cache, keyed by the
// request URI (so every page of the index feed caches separately). Within the
// expiry window the cached page is served as-is; a write does not invalidate.
func (s *Server) cachePage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || s.pageCache == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := r.URL.RequestURI()
		if body, ok, err := s.pageCache.Get(r.Context(), key); err == nil && ok {
			s.collector.RecordCacheHit()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(body)
			return
		}
		s.collector.RecordCacheMiss()
		cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(cw, r)
		if cw.status == http.StatusOK {
			s.pageCache.Set(r.Context(), key, cw.buf.Bytes(), s.cacheTTL)
		}
	}
}
