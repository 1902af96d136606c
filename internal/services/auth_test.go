package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pappi-calculator/authserver/internal/store"
	"github.com/pappi-calculator/authserver/types"
)

// fakeEstudianteRepo is an in-memory EstudianteRepository enforcing the
// same uniqueness rules as the estudiantes table.
type fakeEstudianteRepo struct {
	mu          sync.Mutex
	nextID      int
	byCorreo    map[string]types.Estudiante
	byDNI       map[string]string
	existsCalls int
	createErr   error
}

func newFakeEstudianteRepo() *fakeEstudianteRepo {
	return &fakeEstudianteRepo{
		byCorreo: make(map[string]types.Estudiante),
		byDNI:    make(map[string]string),
	}
}

func (f *fakeEstudianteRepo) ExistsByCorreoOrDNI(ctx context.Context, correo, dni string) (bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.existsCalls++
	_, correoTaken := f.byCorreo[correo]
	_, dniTaken := f.byDNI[dni]
	return correoTaken, dniTaken, nil
}

func (f *fakeEstudianteRepo) Create(ctx context.Context, est types.Estudiante) (types.Estudiante, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return types.Estudiante{}, f.createErr
	}
	if _, taken := f.byCorreo[est.CorreoInstitucional]; taken {
		return types.Estudiante{}, &store.DuplicateError{Column: "correo_institucional"}
	}
	if _, taken := f.byDNI[est.DNI]; taken {
		return types.Estudiante{}, &store.DuplicateError{Column: "dni"}
	}
	f.nextID++
	est.ID = f.nextID
	est.CreatedAt = time.Now().UTC()
	f.byCorreo[est.CorreoInstitucional] = est
	f.byDNI[est.DNI] = est.CorreoInstitucional
	return est, nil
}

func (f *fakeEstudianteRepo) GetByCorreo(ctx context.Context, correo string) (types.Estudiante, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	est, ok := f.byCorreo[correo]
	if !ok {
		return types.Estudiante{}, store.ErrNotFound
	}
	return est, nil
}

func (f *fakeEstudianteRepo) corrupt(correo string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	est := f.byCorreo[correo]
	est.ContrasenaHash = "plaintext-not-a-hash"
	f.byCorreo[correo] = est
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeEstudianteRepo) {
	t.Helper()
	repo := newFakeEstudianteRepo()
	issuer, err := NewTokenIssuer(testSecret, "HS256", 30*time.Minute, 0)
	require.NoError(t, err)
	return NewAuthService(repo, NewBcryptHasher(bcrypt.MinCost), issuer, nil), repo
}

func TestRegisterCreatesAccount(t *testing.T) {
	svc, repo := newTestAuthService(t)

	est, err := svc.Register(context.Background(), Registro{
		Nombres:             "  Ana María  ",
		Apellidos:           "Quispe",
		CorreoInstitucional: " ana.quispe@uni.edu.pe ",
		DNI:                 "87654321",
		Contrasena:          "Password1",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, est.ID)
	assert.Equal(t, "Ana María", est.Nombres)
	assert.Equal(t, "ana.quispe@uni.edu.pe", est.CorreoInstitucional)
	assert.Empty(t, est.ContrasenaHash, "hash must not leave the service")

	stored, err := repo.GetByCorreo(context.Background(), "ana.quispe@uni.edu.pe")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ContrasenaHash)
	assert.NotContains(t, stored.ContrasenaHash, "Password1")
}

func TestRegisterRejectsInvalidPayloadBeforeStorage(t *testing.T) {
	svc, repo := newTestAuthService(t)

	_, err := svc.Register(context.Background(), Registro{
		Nombres:             "Ana",
		Apellidos:           "Quispe",
		CorreoInstitucional: "ana@uni.edu.pe",
		DNI:                 "123",
		Contrasena:          "Password1",
	})

	var invalid *InvalidFieldError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "dni", invalid.Field)
	assert.Zero(t, repo.existsCalls, "validation failures must not reach the repository")
}

func TestRegisterDuplicateCorreo(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistro())
	require.NoError(t, err)

	second := validRegistro()
	second.DNI = "11112222"

	_, err = svc.Register(ctx, second)

	var dup *DuplicateAccountError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "correo_institucional", dup.Field)
}

func TestRegisterDuplicateDNI(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistro())
	require.NoError(t, err)

	second := validRegistro()
	second.CorreoInstitucional = "otra.persona@uni.edu.pe"

	_, err = svc.Register(ctx, second)

	var dup *DuplicateAccountError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "dni", dup.Field)
}

func TestRegisterMapsInsertCollision(t *testing.T) {
	// The pre-check passes but the insert loses the race.
	svc, repo := newTestAuthService(t)
	repo.createErr = &store.DuplicateError{Column: "dni"}

	_, err := svc.Register(context.Background(), validRegistro())

	var dup *DuplicateAccountError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "dni", dup.Field)
}

func TestRegisterConcurrentSameCorreo(t *testing.T) {
	svc, _ := newTestAuthService(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg := validRegistro()
			reg.DNI = fmt.Sprintf("%08d", 10000000+i)
			_, errs[i] = svc.Register(context.Background(), reg)
		}(i)
	}
	wg.Wait()

	var created, duplicated int
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		var dup *DuplicateAccountError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "correo_institucional", dup.Field)
		duplicated++
	}
	assert.Equal(t, 1, created, "exactly one registration may win")
	assert.Equal(t, workers-1, duplicated)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	reg := validRegistro()
	_, err := svc.Register(ctx, reg)
	require.NoError(t, err)

	token, err := svc.Login(ctx, reg.CorreoInstitucional, reg.Contrasena)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := svc.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, reg.CorreoInstitucional, subject)
}

func TestLoginUnknownCorreo(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "nadie@uni.edu.pe", "Password1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	reg := validRegistro()
	_, err := svc.Register(ctx, reg)
	require.NoError(t, err)

	_, err = svc.Login(ctx, reg.CorreoInstitucional, "OtraClave99")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDoesNotRevealWhichCredentialFailed(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	reg := validRegistro()
	_, err := svc.Register(ctx, reg)
	require.NoError(t, err)

	_, unknownErr := svc.Login(ctx, "nadie@uni.edu.pe", reg.Contrasena)
	_, wrongErr := svc.Login(ctx, reg.CorreoInstitucional, "OtraClave99")

	assert.Equal(t, unknownErr, wrongErr)
}

func TestLoginEmptyCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginCorruptStoredHash(t *testing.T) {
	svc, repo := newTestAuthService(t)
	ctx := context.Background()

	reg := validRegistro()
	_, err := svc.Register(ctx, reg)
	require.NoError(t, err)

	repo.corrupt(reg.CorreoInstitucional)

	_, err = svc.Login(ctx, reg.CorreoInstitucional, reg.Contrasena)
	require.ErrorIs(t, err, ErrMalformedHash)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestPerfilStripsHash(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	reg := validRegistro()
	created, err := svc.Register(ctx, reg)
	require.NoError(t, err)

	est, err := svc.Perfil(ctx, reg.CorreoInstitucional)
	require.NoError(t, err)
	assert.Equal(t, created.ID, est.ID)
	assert.Empty(t, est.ContrasenaHash)
}

func TestPerfilUnknownCorreo(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Perfil(context.Background(), "nadie@uni.edu.pe")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegisterThenLoginFlow(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	est, err := svc.Register(ctx, Registro{
		Nombres:             "Ana",
		Apellidos:           "Quispe",
		CorreoInstitucional: "ana@uni.edu.pe",
		DNI:                 "12345678",
		Contrasena:          "Segura123",
	})
	require.NoError(t, err)
	require.NotZero(t, est.ID)

	_, err = svc.Register(ctx, Registro{
		Nombres:             "Ana Segunda",
		Apellidos:           "Quispe",
		CorreoInstitucional: "ana@uni.edu.pe",
		DNI:                 "87654321",
		Contrasena:          "Segura123",
	})
	var dup *DuplicateAccountError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "correo_institucional", dup.Field)

	token, err := svc.Login(ctx, "ana@uni.edu.pe", "Segura123")
	require.NoError(t, err)

	subject, err := svc.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@uni.edu.pe", subject)

	_, err = svc.Login(ctx, "ana@uni.edu.pe", "Incorrecta1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
