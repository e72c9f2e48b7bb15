package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/room-reservations/internal/application"
)

type identityService interface {
	SignUp(ctx context.Context, email, password string) (application.Session, error)
	SignIn(ctx context.Context, email, password string) (application.Session, error)
	SignOut(ctx context.Context, token string) error
}

type adminRegistrar interface {
	RegisterAdmin(ctx context.Context, params application.AdminSignUpParams) (application.AdminRecord, application.Session, error)
}

// AuthHandler serves the /auth routes.
type AuthHandler struct {
	handlerBase
	identities identityService
	admins     adminRegistrar
}

func NewAuthHandler(identities identityService, admins adminRegistrar, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{handlerBase: newHandlerBase("AuthHandler", logger), identities: identities, admins: admins}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	h.startSession(w, r, "SignUp", http.StatusCreated, h.identities.SignUp)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	h.startSession(w, r, "SignIn", http.StatusOK, h.identities.SignIn)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, operation string, status int, start func(context.Context, string, string) (application.Session, error)) {
	ctx := r.Context()

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, operation, "error_kind", "bad_request").ErrorContext(ctx, "failed to decode credentials", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	session, err := start(ctx, req.Email, req.Password)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	setSessionCookie(w, session.Token, session.ExpiresAt)
	w.Header().Set("X-Session-Token", session.Token)
	h.log(ctx, operation, "uid", session.Identity.UID).InfoContext(ctx, "session started")
	h.responder.writeJSON(ctx, w, status, toSessionResponse(session))
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := extractTokenFromRequest(r)
	if token == "" {
		h.responder.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   errMissingSessionToken.Error(),
		})
		return
	}

	if err := h.identities.SignOut(ctx, token); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	clearSessionCookie(w)
	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}

func (h *AuthHandler) AdminSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adminSignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(ctx, "AdminSignUp", "error_kind", "bad_request").ErrorContext(ctx, "failed to decode admin sign-up", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	record, session, err := h.admins.RegisterAdmin(ctx, application.AdminSignUpParams{
		Email:           req.Email,
		Password:        req.Password,
		Name:            req.Name,
		AdmissionSecret: req.AdmissionSecret,
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	setSessionCookie(w, session.Token, session.ExpiresAt)
	w.Header().Set("X-Session-Token", session.Token)
	h.responder.writeJSON(ctx, w, http.StatusCreated, adminSignUpResponse{
		sessionResponse: toSessionResponse(session),
		AdminID:         record.ID,
		Name:            record.Name,
	})
}
