package handlers

import (
	"net/http"

	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/errs"
	"github.com/Nicolas-Kadir-Efrei/client-leger-sub002/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

var statusByKind = map[errs.Kind]int{
	errs.KindInvalid:      http.StatusBadRequest,
	errs.KindUnauthorized: http.StatusUnauthorized,
	errs.KindForbidden:    http.StatusForbidden,
	errs.KindNotFound:     http.StatusNotFound,
	errs.KindConflict:     http.StatusConflict,
	errs.KindInternal:     http.StatusInternalServerError,
}

// StatusFor returns the HTTP status an error kind is reported with.
func StatusFor(kind errs.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError is the only place a service error becomes a response. Internal
// causes are logged and never written to the client.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	kind := errs.KindOf(err)
	status := StatusFor(kind)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		utils.WriteInternalServerErrorResponse(w, "Internal server error")
		return
	}
	utils.WriteErrorResponseWithCode(w, status, string(kind), errs.MessageOf(err), "")
}

// writeBodyError reports a request body that could not be decoded.
func writeBodyError(w http.ResponseWriter, err error) {
	utils.WriteErrorResponseWithCode(w, http.StatusBadRequest, string(errs.KindInvalid), "Invalid request body", err.Error())
}
