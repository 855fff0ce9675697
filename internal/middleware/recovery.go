package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
)

// Recovery catches handler panics, answers 500 and, when failFast is set,
// brings the process down. Anything outside the error taxonomy means state we
// do not understand; the service never keeps serving from it.
func Recovery(failFast bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					slog.Error("panic in handler",
						"error", fmt.Sprintf("%v", recovered),
						"path", r.URL.Path,
						"stack", string(debug.Stack()))
					writeEnvelope(w, http.StatusInternalServerError, "Internal Server Error.")

					if failFast {
						slog.Error("shutting down after unrecoverable panic")
						os.Exit(1)
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
