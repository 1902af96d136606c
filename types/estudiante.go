package types

import "time"

// Estudiante represents a student account in the system.
// It contains identity data and audit metadata.
type Estudiante struct {
	// ID is the unique identifier of the student, assigned on creation.
	ID int `json:"id" db:"id"`

	// Nombres holds the student's given names.
	Nombres string `json:"nombres" db:"nombres"`

	// Apellidos holds the student's surnames.
	Apellidos string `json:"apellidos" db:"apellidos"`

	// CorreoInstitucional is the student's institutional email address.
	// It is unique across all accounts and serves as the login key.
	CorreoInstitucional string `json:"correo_institucional" db:"correo_institucional"`

	// DNI is the student's national identity number: exactly eight
	// decimal digits, unique across all accounts.
	DNI string `json:"dni" db:"dni"`

	// ContrasenaHash stores the hashed representation of the student's
	// password. This field is never exposed in API responses.
	ContrasenaHash string `json:"-" db:"contrasena_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the
	// account, or nil if the account was never modified after creation.
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}
