package middleware

import (
	"encoding/json"
	"net/http"

	"go-shop-auth/internal/model"
)

func writeEnvelope(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.Response{Success: status < 400, Msg: msg})
}
