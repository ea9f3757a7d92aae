package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/runemikla/hallaien-2/internal/model"
)

type assistantRequest struct {
	Name        *string  `json:"name"`
	AgentID     *string  `json:"agentId"`
	Description *string  `json:"description"`
	AvatarURL   *string  `json:"avatarUrl"`
	ProgramIDs  []string `json:"programIds"`
}

type assistantResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	AgentID     string   `json:"agentId"`
	Description *string  `json:"description"`
	AvatarURL   *string  `json:"avatarUrl"`
	CreatedAt   string   `json:"createdAt"`
	ProgramIDs  []string `json:"programIds,omitempty"`
}

func (s *Server) handleCreateAssistant(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := principalID(w, r)
	if !ok {
		return
	}

	var req assistantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		writeError(w, http.StatusBadRequest, "missing_name")
		return
	}
	if req.AgentID == nil || strings.TrimSpace(*req.AgentID) == "" {
		writeError(w, http.StatusBadRequest, "missing_agent_id")
		return
	}
	programIDs, err := parseUUIDs(req.ProgramIDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_program_id")
		return
	}

	assistant := &model.Assistant{
		TeacherID:   teacherID,
		Name:        strings.TrimSpace(*req.Name),
		AgentID:     strings.TrimSpace(*req.AgentID),
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
	}
	if err := s.store.CreateAssistant(r.Context(), assistant); err != nil {
		s.logger.Error("create assistant", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// Program links are a low-value side effect: a failure here is logged
	// and the created assistant is kept.
	if len(programIDs) > 0 {
		if err := s.store.AddAssistantPrograms(r.Context(), assistant.ID, programIDs); err != nil {
			s.logger.Error("link assistant programs",
				zap.String("assistant_id", assistant.ID.String()),
				zap.Error(err))
		}
	}

	writeJSON(w, http.StatusCreated, mapAssistant(assistant, req.ProgramIDs))
}

func (s *Server) handleListAssistants(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := principalID(w, r)
	if !ok {
		return
	}

	assistants, err := s.store.ListAssistantsByTeacher(r.Context(), teacherID)
	if err != nil {
		s.logger.Error("list assistants", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	result := make([]assistantResponse, 0, len(assistants))
	for _, assistant := range assistants {
		result = append(result, mapAssistant(assistant, nil))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assistants": result})
}

func (s *Server) handleGetAssistant(w http.ResponseWriter, r *http.Request) {
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

	programIDs, err := s.store.AssistantProgramIDs(r.Context(), assistantID)
	if err != nil {
		s.logger.Error("get assistant programs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapAssistant(assistant, uuidStrings(programIDs)))
}

func (s *Server) handleUpdateAssistant(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := principalID(w, r)
	if !ok {
		return
	}
	assistantID, err := parsePathUUID(r, "assistantId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_assistant_id")
		return
	}

	var req assistantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
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

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			writeError(w, http.StatusBadRequest, "missing_name")
			return
		}
		assistant.Name = strings.TrimSpace(*req.Name)
	}
	if req.AgentID != nil {
		if strings.TrimSpace(*req.AgentID) == "" {
			writeError(w, http.StatusBadRequest, "missing_agent_id")
			return
		}
		assistant.AgentID = strings.TrimSpace(*req.AgentID)
	}
	if req.Description != nil {
		assistant.Description = req.Description
	}
	if req.AvatarURL != nil {
		assistant.AvatarURL = req.AvatarURL
	}

	updated, err := s.store.UpdateAssistant(r.Context(), assistant)
	if err != nil {
		s.logger.Error("update assistant", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "assistant_not_found")
		return
	}

	if req.ProgramIDs != nil {
		programIDs, err := parseUUIDs(req.ProgramIDs)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_program_id")
			return
		}
		if err := s.store.ReplaceAssistantPrograms(r.Context(), assistantID, programIDs); err != nil {
			s.logger.Error("replace assistant programs",
				zap.String("assistant_id", assistantID.String()),
				zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, mapAssistant(assistant, req.ProgramIDs))
}

func (s *Server) handleDeleteAssistant(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := principalID(w, r)
	if !ok {
		return
	}
	assistantID, err := parsePathUUID(r, "assistantId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_assistant_id")
		return
	}

	deleted, err := s.store.DeleteAssistant(r.Context(), assistantID, teacherID)
	if err != nil {
		s.logger.Error("delete assistant", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "assistant_not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func mapAssistant(assistant *model.Assistant, programIDs []string) assistantResponse {
	return assistantResponse{
		ID:          assistant.ID.String(),
		Name:        assistant.Name,
		AgentID:     assistant.AgentID,
		Description: assistant.Description,
		AvatarURL:   assistant.AvatarURL,
		CreatedAt:   assistant.CreatedAt.UTC().Format(time.RFC3339),
		ProgramIDs:  programIDs,
	}
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		result = append(result, id.String())
	}
	return result
}
