package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"server-auditor/internal/services"
)

// auditDeadline caps one whole audit run, fetches included.
const auditDeadline = 90 * time.Second

type AuditHandler struct {
	Service *services.AuditService
	Auth    *AuthHandler
}

func NewAuditHandler(service *services.AuditService, auth *AuthHandler) *AuditHandler {
	return &AuditHandler{Service: service, Auth: auth}
}

// Audit handles POST /api/audit: one server id in, one report out.
func (h *AuditHandler) Audit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "invalid method", 405)
		return
	}
	if !h.Auth.Authorized(r) {
		http.Error(w, "login required", 401)
		return
	}

	var reqData struct {
		ServerID string `json:"server_id"`
	}
	json.NewDecoder(r.Body).Decode(&reqData)

	ctx, cancel := context.WithTimeout(r.Context(), auditDeadline)
	defer cancel()

	report, err := h.Service.RunAudit(ctx, reqData.ServerID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBilling):
			http.Error(w, err.Error(), 404)
		case errors.Is(err, services.ErrPortal):
			http.Error(w, err.Error(), 502)
		default:
			http.Error(w, err.Error(), 500)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
