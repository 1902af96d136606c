package services

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var dniPattern = regexp.MustCompile(`^[0-9]{8}$`)

// normalizeRegistro trims surrounding whitespace from the identity
// fields. The password is left untouched: leading and trailing spaces
// are significant there.
func normalizeRegistro(r *Registro) {
	r.Nombres = strings.TrimSpace(r.Nombres)
	r.Apellidos = strings.TrimSpace(r.Apellidos)
	r.CorreoInstitucional = strings.TrimSpace(r.CorreoInstitucional)
	r.DNI = strings.TrimSpace(r.DNI)
}

// validateRegistro checks a normalized registration payload field by
// field, in declaration order, and reports the first malformed field.
// Password rules are checked last and reported together.
func validateRegistro(r Registro) error {
	if err := validateNombre("nombres", "Los nombres", r.Nombres); err != nil {
		return err
	}
	if err := validateNombre("apellidos", "Los apellidos", r.Apellidos); err != nil {
		return err
	}
	if err := validateCorreo(r.CorreoInstitucional); err != nil {
		return err
	}
	if err := validateDNI(r.DNI); err != nil {
		return err
	}
	return validateContrasena(r.Contrasena)
}

func validateNombre(field, label, value string) error {
	switch n := utf8.RuneCountInString(value); {
	case n < 2:
		return &InvalidFieldError{Field: field, Reason: label + " deben tener al menos 2 caracteres"}
	case n > 100:
		return &InvalidFieldError{Field: field, Reason: label + " no pueden exceder 100 caracteres"}
	}
	return nil
}

func validateCorreo(correo string) error {
	if utf8.RuneCountInString(correo) > 255 {
		return &InvalidFieldError{Field: "correo_institucional", Reason: "El correo institucional no puede exceder 255 caracteres"}
	}
	addr, err := mail.ParseAddress(correo)
	// Reject display-name forms such as "Ana <ana@uni.edu>": only the
	// bare address is a valid account identifier.
	if err != nil || addr.Address != correo {
		return &InvalidFieldError{Field: "correo_institucional", Reason: "El correo institucional no es una dirección válida"}
	}
	domain := correo[strings.LastIndex(correo, "@")+1:]
	if !strings.Contains(domain, ".") {
		return &InvalidFieldError{Field: "correo_institucional", Reason: "El correo institucional no es una dirección válida"}
	}
	return nil
}

func validateDNI(dni string) error {
	if !dniPattern.MatchString(dni) {
		return &InvalidFieldError{Field: "dni", Reason: "El DNI debe contener exactamente 8 dígitos"}
	}
	return nil
}

// validateContrasena enforces the password policy. Length is counted in
// characters for the minimum and in bytes for the maximum, since the
// upper bound exists only because bcrypt ignores input past 72 bytes.
func validateContrasena(contrasena string) error {
	var unmet []string
	if utf8.RuneCountInString(contrasena) < 8 {
		unmet = append(unmet, "La contraseña debe tener al menos 8 caracteres")
	}
	if len(contrasena) > 72 {
		unmet = append(unmet, "La contraseña no puede exceder 72 caracteres")
	}
	var upper, lower, digit bool
	for _, r := range contrasena {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		unmet = append(unmet, "La contraseña debe incluir al menos una letra mayúscula")
	}
	if !lower {
		unmet = append(unmet, "La contraseña debe incluir al menos una letra minúscula")
	}
	if !digit {
		unmet = append(unmet, "La contraseña debe incluir al menos un número")
	}
	if len(unmet) > 0 {
		return &WeakPasswordError{Unmet: unmet}
	}
	return nil
}
