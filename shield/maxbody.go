package shield

import "net/http"

// MaxBody returns middleware that caps the request body size. Reads past the
// limit fail with *http.MaxBytesError, which handlers surface as 413 when
// parsing the body. Document uploads arrive as multipart form data, so the
// cap applies to every request with a body rather than form-encoded POSTs
// only.
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
