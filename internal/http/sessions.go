package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/runemikla/hallaien-2/internal/model"
	"github.com/runemikla/hallaien-2/internal/voice"
)

type signedURLRequest struct {
	AgentID string `json:"agentId"`
}

type signedURLResponse struct {
	SignedURL string `json:"signedUrl"`
}

// handleSignedURL exchanges an agent reference for a session URL. The access
// check always runs before the upstream call: teachers must own an assistant
// with the agent ID, students must resolve to a grant for one.
func (s *Server) handleSignedURL(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	userID, ok := principalID(w, r)
	if !ok {
		return
	}

	var req signedURLRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	agentID := strings.TrimSpace(req.AgentID)
	if agentID == "" {
		writeError(w, http.StatusBadRequest, "missing_agent_id")
		return
	}

	allowed, err := s.mayOpenSession(r.Context(), claims.Role, userID, agentID)
	if err != nil {
		s.logger.Error("session access check", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !allowed {
		sessionsTotal.WithLabelValues("denied").Inc()
		writeError(w, http.StatusForbidden, "access_denied")
		return
	}

	signedURL, err := s.gateway.SignedURL(r.Context(), agentID)
	if err != nil {
		sessionsTotal.WithLabelValues("upstream_error").Inc()
		s.logger.Error("signed url request", zap.String("agent_id", agentID), zap.Error(err))
		if errors.Is(err, voice.ErrUpstreamUnavailable) {
			writeError(w, http.StatusBadGateway, "upstream_unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	sessionsTotal.WithLabelValues("granted").Inc()
	writeJSON(w, http.StatusOK, signedURLResponse{SignedURL: signedURL})
}

func (s *Server) mayOpenSession(ctx context.Context, role string, userID uuid.UUID, agentID string) (bool, error) {
	if role == model.RoleTeacher || role == model.RoleAdmin {
		return s.store.OwnsAssistantWithAgentID(ctx, userID, agentID)
	}

	// Several assistants may reference the same agent; any granted one is
	// enough.
	assistants, err := s.store.AssistantsByAgentID(ctx, agentID)
	if err != nil {
		return false, err
	}
	for _, assistant := range assistants {
		decision, err := s.access.Resolve(ctx, userID, assistant.ID)
		if err != nil {
			return false, err
		}
		if decision.Granted {
			accessDecisionsTotal.WithLabelValues(string(decision.Via)).Inc()
			return true, nil
		}
	}
	accessDecisionsTotal.WithLabelValues("denied").Inc()
	return false, nil
}
