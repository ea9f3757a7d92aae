package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/runemikla/hallaien-2/internal/access"
	"github.com/runemikla/hallaien-2/internal/auth"
	"github.com/runemikla/hallaien-2/internal/config"
	"github.com/runemikla/hallaien-2/internal/model"
	"github.com/runemikla/hallaien-2/internal/repository"
)

// SignedURLGateway is the voice-provider boundary. *voice.Gateway satisfies
// it; tests plug a stub.
type SignedURLGateway interface {
	SignedURL(ctx context.Context, agentID string) (string, error)
}

type Server struct {
	cfg     config.Config
	logger  *zap.Logger
	store   *repository.Store
	access  *access.Service
	gateway SignedURLGateway
	redis   *redis.Client
}

func NewServer(cfg config.Config, logger *zap.Logger, store *repository.Store, accessService *access.Service, gateway SignedURLGateway, redisClient *redis.Client) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		access:  accessService,
		gateway: gateway,
		redis:   redisClient,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.With(s.authMiddleware).Get("/profile", s.handleGetProfile)
	r.With(s.authMiddleware).Patch("/profile", s.handleUpdateProfile)
	r.With(s.authMiddleware).Get("/programs", s.handleListPrograms)

	r.With(s.authMiddleware, s.requireTeacher).Post("/assistants", s.handleCreateAssistant)
	r.With(s.authMiddleware, s.requireTeacher).Get("/assistants", s.handleListAssistants)
	r.With(s.authMiddleware, s.requireTeacher).Get("/assistants/{assistantId}", s.handleGetAssistant)
	r.With(s.authMiddleware, s.requireTeacher).Patch("/assistants/{assistantId}", s.handleUpdateAssistant)
	r.With(s.authMiddleware, s.requireTeacher).Delete("/assistants/{assistantId}", s.handleDeleteAssistant)
	r.With(s.authMiddleware, s.requireTeacher).Post("/assistants/{assistantId}/codes", s.handleIssueCode)
	r.With(s.authMiddleware, s.requireTeacher).Get("/assistants/{assistantId}/codes", s.handleListCodes)

	r.With(s.authMiddleware, s.requireStudent).Post("/redeem", s.handleRedeem)
	r.With(s.authMiddleware, s.requireStudent).Get("/student/assistants", s.handleStudentAssistants)

	r.With(s.authMiddleware).Post("/sessions/signed-url", s.handleSignedURL)

	return r
}

// Auth

type claimsKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func (s *Server) requireTeacher(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		if claims.Role != model.RoleTeacher && claims.Role != model.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireStudent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		if claims.Role != model.RoleStudent {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func principalID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token")
		return uuid.Nil, false
	}
	return id, true
}

// Profile and programs

type profileResponse struct {
	ID        string            `json:"id"`
	Role      string            `json:"role"`
	FirstName *string           `json:"firstName"`
	AvatarURL *string           `json:"avatarUrl"`
	Programs  []programResponse `json:"programs"`
}

type programResponse struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}

	profile, err := s.store.GetProfile(r.Context(), userID)
	if err != nil {
		s.logger.Error("get profile", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if profile == nil {
		writeError(w, http.StatusNotFound, "profile_not_found")
		return
	}

	programs, err := s.store.StudentPrograms(r.Context(), userID)
	if err != nil {
		s.logger.Error("get profile programs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:        profile.ID.String(),
		Role:      profile.Role,
		FirstName: profile.FirstName,
		AvatarURL: profile.AvatarURL,
		Programs:  mapPrograms(programs),
	})
}

type updateProfileRequest struct {
	FirstName *string `json:"firstName"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := principalID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	updated, err := s.store.UpdateProfile(r.Context(), userID, req.FirstName)
	if err != nil {
		s.logger.Error("update profile", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "profile_not_found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.store.ListPrograms(r.Context())
	if err != nil {
		s.logger.Error("list programs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"programs": mapPrograms(programs)})
}

func mapPrograms(programs []*model.Program) []programResponse {
	result := make([]programResponse, 0, len(programs))
	for _, p := range programs {
		result = append(result, programResponse{ID: p.ID.String(), Code: p.Code, Name: p.Name})
	}
	return result
}

// Helpers

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func parsePathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, errors.New("missing path parameter")
	}
	return uuid.Parse(raw)
}

func hoursLeft(expiresAt, now time.Time) int {
	left := expiresAt.Sub(now).Round(time.Hour) / time.Hour
	if left < 0 {
		return 0
	}
	return int(left)
}
