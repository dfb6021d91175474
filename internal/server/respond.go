package server

import (
	"encoding/json"
	"net/http"

	errs "github.com/matzehuels/tierplan/pkg/errors"
)

type errorBody struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func toErrorBody(err error) errorBody {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	return errorBody{Code: code, Message: errs.UserMessage(err)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errs.HTTPStatus(err), errorResponse{Error: toErrorBody(err)})
}
