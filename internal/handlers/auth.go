package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pappi-calculator/authserver/internal/services"
	"github.com/pappi-calculator/authserver/internal/store"
)

// AuthHandler provides the student registration and login endpoints.
type AuthHandler struct {
	auth   *services.AuthService
	tokens *services.TokenIssuer
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(auth *services.AuthService, tokens *services.TokenIssuer) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		tokens: tokens,
	}
}

// AuthRouter registers the auth routes on the given router.
func AuthRouter(r chi.Router, auth *services.AuthService, tokens *services.TokenIssuer) {
	handler := NewAuthHandler(auth, tokens)

	r.Post("/registro", handler.Registro)
	r.Post("/login", handler.Login)
	r.With(handler.RequireAuth).Get("/perfil", handler.Perfil)
}

// RequireAuth enforces bearer-token authentication and injects the token
// subject into the request context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return requireAuth(h.tokens)(next)
}

// RequireAuth constructs auth middleware for other routers.
func RequireAuth(tokens *services.TokenIssuer) func(http.Handler) http.Handler {
	return requireAuth(tokens)
}

func requireAuth(tokens *services.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				unauthorized(w, "no autorizado")
				return
			}

			subject, err := tokens.Verify(tokenString)
			if err != nil {
				unauthorized(w, "no autorizado")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Registro creates a new student account.
func (h *AuthHandler) Registro(w http.ResponseWriter, r *http.Request) {
	var req RegistroRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de la solicitud inválido")
		return
	}

	est, err := h.auth.Register(r.Context(), services.Registro{
		Nombres:             req.Nombres,
		Apellidos:           req.Apellidos,
		CorreoInstitucional: req.CorreoInstitucional,
		DNI:                 req.DNI,
		Contrasena:          req.Contrasena,
	})
	if err != nil {
		writeRegistroError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, est)
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo de la solicitud inválido")
		return
	}

	token, err := h.auth.Login(r.Context(), req.CorreoInstitucional, req.Contrasena)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			unauthorized(w, "Correo institucional o contraseña incorrectos")
			return
		}
		writeError(w, http.StatusInternalServerError, "error al iniciar sesión")
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Perfil returns the account of the authenticated student.
func (h *AuthHandler) Perfil(w http.ResponseWriter, r *http.Request) {
	correo, err := subjectFromContext(r.Context())
	if err != nil {
		unauthorized(w, "no autorizado")
		return
	}

	est, err := h.auth.Perfil(r.Context(), correo)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			unauthorized(w, "no autorizado")
			return
		}
		writeError(w, http.StatusInternalServerError, "error al cargar el perfil")
		return
	}

	writeJSON(w, http.StatusOK, est)
}

func writeRegistroError(w http.ResponseWriter, err error) {
	var invalid *services.InvalidFieldError
	var weak *services.WeakPasswordError
	var dup *services.DuplicateAccountError
	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, invalid.Reason)
	case errors.As(err, &weak):
		writeError(w, http.StatusBadRequest, weak.Error())
	case errors.As(err, &dup):
		writeError(w, http.StatusConflict, duplicateMessage(dup.Field))
	default:
		writeError(w, http.StatusInternalServerError, "error al registrar el estudiante")
	}
}

func duplicateMessage(field string) string {
	switch field {
	case "correo_institucional":
		return "El correo institucional ya está registrado"
	case "dni":
		return "El DNI ya está registrado"
	default:
		return "La cuenta ya está registrada"
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, message)
}

type RegistroRequest struct {
	Nombres             string `json:"nombres"`
	Apellidos           string `json:"apellidos"`
	CorreoInstitucional string `json:"correo_institucional"`
	DNI                 string `json:"dni"`
	Contrasena          string `json:"contrasena"`
}

type LoginRequest struct {
	CorreoInstitucional string `json:"correo_institucional"`
	Contrasena          string `json:"contrasena"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
