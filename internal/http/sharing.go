package http

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/runemikla/hallaien-2/internal/access"
	"github.com/runemikla/hallaien-2/internal/model"
)

type shareCodeResponse struct {
	Code      string `json:"code"`
	ExpiresAt string `json:"expiresAt"`
	CreatedAt string `json:"createdAt"`
}

func (s *Server) handleIssueCode(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := principalID(w, r)
	if !ok {
		return
	}
	assistantID, err := parsePathUUID(r, "assistantId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_assistant_id")
		return
	}

	code, err := s.access.IssueCode(r.Context(), teacherID, assistantID)
	switch {
	case errors.Is(err, access.ErrAssistantNotFound):
		writeError(w, http.StatusNotFound, "assistant_not_found")
		return
	case errors.Is(err, access.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not_owner")
		return
	case errors.Is(err, access.ErrCodeSpaceExhausted):
		writeError(w, http.StatusServiceUnavailable, "code_generation_failed")
		return
	case err != nil:
		s.logger.Error("issue share code", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, mapShareCode(code))
}

func (s *Server) handleListCodes(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := principalID(w, r)
	if !ok {
		return
	}
	assistantID, err := parsePathUUID(r, "assistantId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_assistant_id")
		return
	}

	assistant, err := s.store.GetOwnedAssistant(r.Context(), assistantID, teacherID)
	if err != nil {
		s.logger.Error("get assistant", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if assistant == nil {
		writeError(w, http.StatusNotFound, "assistant_not_found")
		return
	}

	codes, err := s.store.ListActiveShareCodes(r.Context(), assistantID, teacherID, time.Now().UTC())
	if err != nil {
		s.logger.Error("list share codes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	result := make([]shareCodeResponse, 0, len(codes))
	for _, code := range codes {
		result = append(result, mapShareCode(code))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"codes": result})
}

type redeemRequest struct {
	Code string `json:"code"`
}

type redeemResponse struct {
	AssistantID string `json:"assistantId"`
	ExpiresAt   string `json:"expiresAt"`
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	studentID, ok := principalID(w, r)
	if !ok {
		return
	}

	var req redeemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	allowed := s.allowRedeemAttempt(r.Context(), studentID.String())
	if !allowed {
		redemptionsTotal.WithLabelValues("rate_limited").Inc()
		writeError(w, http.StatusTooManyRequests, "too_many_attempts")
		return
	}

	redemption, err := s.access.Redeem(r.Context(), studentID, req.Code)
	switch {
	case errors.Is(err, access.ErrInvalidOrExpired):
		redemptionsTotal.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusBadRequest, "invalid_or_expired_code")
		return
	case err != nil:
		s.logger.Error("redeem share code", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	redemptionsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, redeemResponse{
		AssistantID: redemption.AssistantID.String(),
		ExpiresAt:   redemption.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

type accessibleAssistantResponse struct {
	Assistant assistantResponse `json:"assistant"`
	Via       string            `json:"via"`
	ExpiresAt *string           `json:"expiresAt,omitempty"`
	HoursLeft *int              `json:"hoursLeft,omitempty"`
}

func (s *Server) handleStudentAssistants(w http.ResponseWriter, r *http.Request) {
	studentID, ok := principalID(w, r)
	if !ok {
		return
	}

	accessible, err := s.access.ListAccessible(r.Context(), studentID)
	if err != nil {
		s.logger.Error("list accessible assistants", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	now := time.Now().UTC()
	result := make([]accessibleAssistantResponse, 0, len(accessible))
	for _, entry := range accessible {
		assistant := entry.Assistant
		item := accessibleAssistantResponse{
			Assistant: mapAssistant(&assistant, nil),
			Via:       string(entry.Via),
		}
		if entry.ExpiresAt != nil {
			formatted := entry.ExpiresAt.UTC().Format(time.RFC3339)
			left := hoursLeft(*entry.ExpiresAt, now)
			item.ExpiresAt = &formatted
			item.HoursLeft = &left
		}
		result = append(result, item)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assistants": result})
}

func mapShareCode(code *model.ShareCode) shareCodeResponse {
	return shareCodeResponse{
		Code:      code.Code,
		ExpiresAt: code.ExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt: code.CreatedAt.UTC().Format(time.RFC3339),
	}
}
