package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"go-shop-auth/internal/model"
)

var validate = validator.New()

// decodeAndValidate decodes a JSON payload and runs its validation tags.
// It answers the request itself on failure and reports whether the handler
// should continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, payload any) bool {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		writeJSON(w, http.StatusBadRequest, model.Response{Success: false, Msg: "Invalid request body."})
		return false
	}

	if err := validate.Struct(payload); err != nil {
		writeJSON(w, http.StatusBadRequest, model.Response{Success: false, Msg: err.Error()})
		return false
	}

	return true
}
