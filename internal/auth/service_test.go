package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/internal/users"
	pkgauth "github.com/thedilution/dilution-backend/pkg/auth"
	"github.com/thedilution/dilution-backend/pkg/config"
	"github.com/thedilution/dilution-backend/pkg/db/models"
	"github.com/thedilution/dilution-backend/pkg/enums"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
	"github.com/thedilution/dilution-backend/pkg/security"
)

func newAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func jwtTestConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "dilution", ExpirationMinutes: 30}
}

func seedUser(t *testing.T, db *gorm.DB, username, password string, active bool) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         enums.UserRolePharmacist,
		Department:   "oncology",
		IsActive:     active,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestLogin(t *testing.T) {
	db := newAuthTestDB(t)
	seedUser(t, db, "greta", "correct horse", true)
	svc, err := NewService(users.NewRepository(db), jwtTestConfig())
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "greta", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)

	claims, err := pkgauth.ParseAccessToken(jwtTestConfig(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, enums.UserRolePharmacist, claims.Role)
	assert.Equal(t, "oncology", claims.Department)

	// login stamps last_login_at
	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", result.User.ID).Error)
	require.NotNil(t, stored.LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	db := newAuthTestDB(t)
	seedUser(t, db, "greta", "correct horse", true)
	svc, err := NewService(users.NewRepository(db), jwtTestConfig())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "greta", "battery staple")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestLoginUnknownUserSameError(t *testing.T) {
	db := newAuthTestDB(t)
	seedUser(t, db, "greta", "correct horse", true)
	svc, err := NewService(users.NewRepository(db), jwtTestConfig())
	require.NoError(t, err)

	_, wrongPass := svc.Login(context.Background(), "greta", "nope")
	_, unknown := svc.Login(context.Background(), "nobody", "nope")
	require.Error(t, wrongPass)
	require.Error(t, unknown)
	assert.Equal(t, wrongPass.Error(), unknown.Error())
}

func TestLoginInactiveUser(t *testing.T) {
	db := newAuthTestDB(t)
	seedUser(t, db, "greta", "correct horse", false)
	svc, err := NewService(users.NewRepository(db), jwtTestConfig())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "greta", "correct horse")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func newRegisterTestService(t *testing.T, db *gorm.DB) RegisterService {
	t.Helper()
	usersSvc, err := users.NewService(users.NewRepository(db), config.PasswordConfig{})
	require.NoError(t, err)
	svc, err := NewRegisterService(usersSvc, jwtTestConfig())
	require.NoError(t, err)
	return svc
}

func TestRegister(t *testing.T) {
	db := newAuthTestDB(t)
	svc := newRegisterTestService(t, db)

	result, err := svc.Register(context.Background(), RegisterInput{
		Username:   "new_doctor",
		Password:   "correct horse",
		Role:       enums.UserRoleDoctor,
		Department: "pediatrics",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, enums.UserRoleDoctor, result.User.Role)
	assert.True(t, result.User.IsActive)

	// the minted token is immediately usable
	claims, err := pkgauth.ParseAccessToken(jwtTestConfig(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)

	// and the stored hash verifies the original password
	var stored models.User
	require.NoError(t, db.First(&stored, "username = ?", "new_doctor").Error)
	ok, err := security.VerifyPassword("correct horse", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := newAuthTestDB(t)
	seedUser(t, db, "greta", "correct horse", true)
	svc := newRegisterTestService(t, db)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "greta",
		Password: "another pass",
		Role:     enums.UserRoleDoctor,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestRegisterRequiresPassword(t *testing.T) {
	db := newAuthTestDB(t)
	svc := newRegisterTestService(t, db)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "no_pass",
		Role:     enums.UserRoleDoctor,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
