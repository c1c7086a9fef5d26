package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/cors"
)

const corsMaxAge = 300

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsHeaders = []string{"Content-Type", "Authorization", "X-Request-Id", "traceparent"}
)

// CORS allows any origin to call the API. Every OPTIONS request is answered
// with 204 and the allow headers, whether or not it is a real preflight, so
// the browser form and the cloud function behave the same.
func CORS() func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: corsMethods,
		AllowedHeaders: corsHeaders,
		ExposedHeaders: []string{"Location", "X-Request-Id"},
		MaxAge:         corsMaxAge,
	})
	return func(next http.Handler) http.Handler {
		wrapped := c.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodOptions {
				wrapped.ServeHTTP(w, r)
				return
			}
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", strings.Join(corsMethods, ", "))
			h.Set("Access-Control-Allow-Headers", strings.Join(corsHeaders, ", "))
			h.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
			h.Add("Vary", "Origin")
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
