package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pappi-calculator/authserver/internal/store"
	"github.com/pappi-calculator/authserver/types"
)

// Registro carries the plaintext registration payload for the duration
// of a single request. It is never persisted and never logged.
type Registro struct {
	Nombres             string
	Apellidos           string
	CorreoInstitucional string
	DNI                 string
	Contrasena          string
}

// EstudianteRepository defines the persistence operations the auth
// service needs for student accounts.
type EstudianteRepository interface {
	// ExistsByCorreoOrDNI reports which of the two identity fields are
	// already taken.
	ExistsByCorreoOrDNI(ctx context.Context, correo, dni string) (correoTaken, dniTaken bool, err error)
	// Create inserts a new account and returns it with its assigned ID.
	// A unique-constraint collision surfaces as *store.DuplicateError.
	Create(ctx context.Context, est types.Estudiante) (types.Estudiante, error)
	// GetByCorreo returns the account registered under the given
	// institutional email, or store.ErrNotFound.
	GetByCorreo(ctx context.Context, correo string) (types.Estudiante, error)
}

// AuthService implements student registration and login.
type AuthService struct {
	repo   EstudianteRepository
	hasher PasswordHasher
	tokens *TokenIssuer
	events *EventPublisher
}

// NewAuthService creates an AuthService. events may be nil, in which
// case registrations are not announced.
func NewAuthService(repo EstudianteRepository, hasher PasswordHasher, tokens *TokenIssuer, events *EventPublisher) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		events: events,
	}
}

// Register validates the payload, checks both identity fields for
// collisions and stores the new account with its password hash. The
// insert remains the arbiter under concurrent registrations: a unique
// violation raised by the database maps to the same
// *DuplicateAccountError as one caught by the pre-check.
func (s *AuthService) Register(ctx context.Context, reg Registro) (types.Estudiante, error) {
	normalizeRegistro(&reg)
	if err := validateRegistro(reg); err != nil {
		return types.Estudiante{}, err
	}

	correoTaken, dniTaken, err := s.repo.ExistsByCorreoOrDNI(ctx, reg.CorreoInstitucional, reg.DNI)
	if err != nil {
		return types.Estudiante{}, fmt.Errorf("failed to check existing accounts: %w", err)
	}
	if correoTaken {
		return types.Estudiante{}, &DuplicateAccountError{Field: "correo_institucional"}
	}
	if dniTaken {
		return types.Estudiante{}, &DuplicateAccountError{Field: "dni"}
	}

	hash, err := s.hasher.Hash(reg.Contrasena)
	if err != nil {
		return types.Estudiante{}, err
	}

	est, err := s.repo.Create(ctx, types.Estudiante{
		Nombres:             reg.Nombres,
		Apellidos:           reg.Apellidos,
		CorreoInstitucional: reg.CorreoInstitucional,
		DNI:                 reg.DNI,
		ContrasenaHash:      hash,
	})
	if err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			return types.Estudiante{}, &DuplicateAccountError{Field: dup.Column}
		}
		return types.Estudiante{}, fmt.Errorf("failed to create account: %w", err)
	}

	s.publishRegistered(ctx, est)

	est.ContrasenaHash = ""
	return est, nil
}

// Login checks the credentials and issues a signed bearer token whose
// subject is the institutional email. Unknown emails and wrong
// passwords both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, correo, contrasena string) (string, error) {
	correo = strings.TrimSpace(correo)
	if correo == "" || contrasena == "" {
		return "", ErrInvalidCredentials
	}

	est, err := s.repo.GetByCorreo(ctx, correo)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up account: %w", err)
	}

	ok, err := s.hasher.Verify(contrasena, est.ContrasenaHash)
	if err != nil {
		// A hash that cannot be parsed is storage corruption, not a
		// wrong password.
		return "", err
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(est.CorreoInstitucional)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Perfil returns the account registered under the given institutional
// email, without its password hash.
func (s *AuthService) Perfil(ctx context.Context, correo string) (types.Estudiante, error) {
	est, err := s.repo.GetByCorreo(ctx, correo)
	if err != nil {
		return types.Estudiante{}, err
	}
	est.ContrasenaHash = ""
	return est, nil
}

// publishRegistered announces a new account on the event bus. Publish
// failures are logged and swallowed: registration already succeeded.
func (s *AuthService) publishRegistered(ctx context.Context, est types.Estudiante) {
	if s.events == nil {
		return
	}
	if err := s.events.Registered(ctx, est); err != nil {
		slog.Warn("failed to publish registration event", "estudiante_id", est.ID, "error", err)
	}
}
