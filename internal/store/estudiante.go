package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/pappi-calculator/authserver/types"
)

// Postgres names for the unique constraints on the estudiantes table.
const (
	constraintCorreo = "estudiantes_correo_institucional_key"
	constraintDNI    = "estudiantes_dni_key"
)

// EstudianteRepository handles persistence for student accounts.
type EstudianteRepository struct {
	db *sql.DB
}

func NewEstudianteRepository(db *sql.DB) *EstudianteRepository {
	return &EstudianteRepository{db: db}
}

// ExistsByCorreoOrDNI reports whether the email or the DNI is already
// registered. It is a fast-path check only: Create remains the authority
// on uniqueness.
func (r *EstudianteRepository) ExistsByCorreoOrDNI(ctx context.Context, correo, dni string) (correoTaken, dniTaken bool, err error) {
	const query = `
		SELECT
			EXISTS(SELECT 1 FROM estudiantes WHERE correo_institucional = $1),
			EXISTS(SELECT 1 FROM estudiantes WHERE dni = $2)`
	if err := r.db.QueryRowContext(ctx, query, correo, dni).Scan(&correoTaken, &dniTaken); err != nil {
		return false, false, err
	}
	return correoTaken, dniTaken, nil
}

// Create inserts a new account and returns it with its assigned ID. A
// unique-constraint violation is reported as a DuplicateError naming the
// colliding column.
func (r *EstudianteRepository) Create(ctx context.Context, est types.Estudiante) (types.Estudiante, error) {
	est.CreatedAt = time.Now().UTC()
	est.UpdatedAt = nil

	const query = `
		INSERT INTO estudiantes (nombres, apellidos, correo_institucional, dni, contrasena_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		est.Nombres,
		est.Apellidos,
		est.CorreoInstitucional,
		est.DNI,
		est.ContrasenaHash,
		est.CreatedAt,
	).Scan(&est.ID); err != nil {
		return types.Estudiante{}, mapInsertError(err)
	}
	return est, nil
}

// GetByCorreo fetches the account registered under the given email.
func (r *EstudianteRepository) GetByCorreo(ctx context.Context, correo string) (types.Estudiante, error) {
	const query = `
		SELECT id, nombres, apellidos, correo_institucional, dni, contrasena_hash, created_at, updated_at
		FROM estudiantes
		WHERE correo_institucional = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, correo))
}

// GetByDNI fetches the account registered under the given national ID.
func (r *EstudianteRepository) GetByDNI(ctx context.Context, dni string) (types.Estudiante, error) {
	const query = `
		SELECT id, nombres, apellidos, correo_institucional, dni, contrasena_hash, created_at, updated_at
		FROM estudiantes
		WHERE dni = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, dni))
}

func (r *EstudianteRepository) scanOne(row *sql.Row) (types.Estudiante, error) {
	var est types.Estudiante
	var updatedAt sql.NullTime
	err := row.Scan(
		&est.ID,
		&est.Nombres,
		&est.Apellidos,
		&est.CorreoInstitucional,
		&est.DNI,
		&est.ContrasenaHash,
		&est.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Estudiante{}, ErrNotFound
		}
		return types.Estudiante{}, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		est.UpdatedAt = &t
	}
	return est, nil
}

// mapInsertError converts a Postgres unique violation (SQLSTATE 23505)
// into a DuplicateError carrying the violated column. Other errors pass
// through unchanged.
func mapInsertError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	switch pqErr.Constraint {
	case constraintCorreo:
		return &DuplicateError{Column: "correo_institucional"}
	case constraintDNI:
		return &DuplicateError{Column: "dni"}
	default:
		return &DuplicateError{}
	}
}
