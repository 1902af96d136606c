package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistro() Registro {
	return Registro{
		Nombres:             "Ana María",
		Apellidos:           "Quispe Huamán",
		CorreoInstitucional: "ana.quispe@universidad.edu.pe",
		DNI:                 "87654321",
		Contrasena:          "Password1",
	}
}

func TestValidateRegistroAcceptsValidPayload(t *testing.T) {
	require.NoError(t, validateRegistro(validRegistro()))
}

func TestNormalizeRegistroTrimsIdentityFields(t *testing.T) {
	reg := Registro{
		Nombres:             "  Ana  ",
		Apellidos:           "\tQuispe\n",
		CorreoInstitucional: " ana@uni.edu.pe ",
		DNI:                 " 87654321 ",
		Contrasena:          "  Password1  ",
	}
	normalizeRegistro(&reg)

	assert.Equal(t, "Ana", reg.Nombres)
	assert.Equal(t, "Quispe", reg.Apellidos)
	assert.Equal(t, "ana@uni.edu.pe", reg.CorreoInstitucional)
	assert.Equal(t, "87654321", reg.DNI)
	assert.Equal(t, "  Password1  ", reg.Contrasena, "password whitespace is significant")
}

func TestValidateRegistroFieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Registro)
		field  string
	}{
		{"empty nombres", func(r *Registro) { r.Nombres = "" }, "nombres"},
		{"single character nombres", func(r *Registro) { r.Nombres = "A" }, "nombres"},
		{"nombres too long", func(r *Registro) { r.Nombres = strings.Repeat("a", 101) }, "nombres"},
		{"empty apellidos", func(r *Registro) { r.Apellidos = "" }, "apellidos"},
		{"apellidos too long", func(r *Registro) { r.Apellidos = strings.Repeat("b", 101) }, "apellidos"},
		{"correo without at sign", func(r *Registro) { r.CorreoInstitucional = "ana.uni.edu" }, "correo_institucional"},
		{"correo without domain dot", func(r *Registro) { r.CorreoInstitucional = "ana@localhost" }, "correo_institucional"},
		{"correo with display name", func(r *Registro) { r.CorreoInstitucional = "Ana <ana@uni.edu>" }, "correo_institucional"},
		{"correo too long", func(r *Registro) { r.CorreoInstitucional = strings.Repeat("a", 250) + "@uni.edu" }, "correo_institucional"},
		{"dni with letters", func(r *Registro) { r.DNI = "1234567a" }, "dni"},
		{"dni too short", func(r *Registro) { r.DNI = "1234567" }, "dni"},
		{"dni too long", func(r *Registro) { r.DNI = "123456789" }, "dni"},
		{"dni with sign", func(r *Registro) { r.DNI = "+1234567" }, "dni"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg := validRegistro()
			tc.mutate(&reg)

			err := validateRegistro(reg)

			var invalid *InvalidFieldError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.field, invalid.Field)
			assert.NotEmpty(t, invalid.Reason)
		})
	}
}

func TestValidateRegistroCountsCharactersNotBytes(t *testing.T) {
	reg := validRegistro()
	// two characters, four bytes
	reg.Nombres = "Ñé"
	require.NoError(t, validateRegistro(reg))
}

func TestValidateRegistroReportsFirstInvalidField(t *testing.T) {
	reg := validRegistro()
	reg.Apellidos = ""
	reg.DNI = "abc"

	err := validateRegistro(reg)

	var invalid *InvalidFieldError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "apellidos", invalid.Field)
}

func TestValidateRegistroRejectsResubmissionIdentically(t *testing.T) {
	reg := validRegistro()
	reg.DNI = "123"

	first := validateRegistro(reg)
	second := validateRegistro(reg)

	require.Error(t, first)
	assert.Equal(t, first, second)
}

func TestValidateContrasenaPolicy(t *testing.T) {
	tests := []struct {
		name       string
		contrasena string
		unmet      int
	}{
		{"meets every rule", "Abcdef12", 0},
		{"spaces allowed", "Pass word 12", 0},
		{"too short", "Abc1", 1},
		{"no uppercase", "abcdef12", 1},
		{"no lowercase", "ABCDEF12", 1},
		{"no digit", "Abcdefgh", 1},
		{"too long", strings.Repeat("Ab1", 25), 1},
		{"empty", "", 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateContrasena(tc.contrasena)
			if tc.unmet == 0 {
				require.NoError(t, err)
				return
			}
			var weak *WeakPasswordError
			require.ErrorAs(t, err, &weak)
			assert.Len(t, weak.Unmet, tc.unmet)
		})
	}
}

func TestValidateContrasenaListsEveryUnmetRule(t *testing.T) {
	err := validateContrasena("abc")

	var weak *WeakPasswordError
	require.ErrorAs(t, err, &weak)
	require.Len(t, weak.Unmet, 3)
	assert.Contains(t, err.Error(), "8 caracteres")
	assert.Contains(t, err.Error(), "mayúscula")
	assert.Contains(t, err.Error(), "número")
}
