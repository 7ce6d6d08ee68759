package api

import (
	"encoding/json"
	"net/http"

	"github.com/ilan2004/Ev-wheels-sub003/internal/authz"
)

const (
	CodeValidationError      = "VALIDATION_ERROR"
	CodeAuthRequired         = "AUTHENTICATION_REQUIRED"
	CodeNoRoleAssigned       = "NO_ROLE_ASSIGNED"
	CodePermissionDenied     = "PERMISSION_DENIED"
	CodeLocationRequired     = "LOCATION_REQUIRED"
	CodeLocationNotPermitted = "LOCATION_NOT_PERMITTED"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodePreconditionFailed   = "PRECONDITION_FAILED"
	CodeResourceNotFound     = "RESOURCE_NOT_FOUND"
	CodeInternalError        = "INTERNAL_ERROR"
)

type ErrorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// writeDenied maps a gateway denial onto the transport: role setup
// redirect for NoRoleAssigned, 403 for permission and location denials,
// 400 when a location must be selected, 409 for workflow conflicts.
func writeDenied(w http.ResponseWriter, d authz.Decision) {
	msg := "denied"
	if d.Err != nil {
		msg = d.Err.Error()
	}

	switch d.Reason {
	case authz.ReasonNoRoleAssigned:
		writeJSON(w, http.StatusForbidden, errorResponse{Error: ErrorBody{
			Code:     CodeNoRoleAssigned,
			Message:  "no role assigned to this account",
			Redirect: "/setup/role",
		}})
	case authz.ReasonRequiresSelection:
		writeError(w, http.StatusBadRequest, CodeLocationRequired, "select a location to continue")
	case authz.ReasonLocationNotPermitted:
		writeError(w, http.StatusForbidden, CodeLocationNotPermitted, msg)
	case authz.ReasonInvalidTransition:
		writeError(w, http.StatusConflict, CodeInvalidTransition, msg)
	case authz.ReasonPreconditionFailed:
		writeError(w, http.StatusConflict, CodePreconditionFailed, msg)
	default:
		writeError(w, http.StatusForbidden, CodePermissionDenied, "insufficient permissions")
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, CodeAuthRequired, "authentication required")
}

func writeNotFound(w http.ResponseWriter, resource string) {
	writeError(w, http.StatusNotFound, CodeResourceNotFound, resource+" not found")
}

func writeInternal(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal server error")
}
