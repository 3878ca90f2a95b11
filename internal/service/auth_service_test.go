package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuslink/campuslink-api/internal/models"
	appErrors "github.com/campuslink/campuslink-api/pkg/errors"
	"github.com/campuslink/campuslink-api/pkg/jobs"
)

type mockAuthRepo struct {
	usersByEmail       map[string]*models.User
	usersByID          map[string]*models.User
	refreshTokens      map[string]*models.RefreshToken
	verificationTokens map[string]*models.VerificationToken
	auditLogs          []*models.AuditLog
	verifiedUsers      []string
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		usersByEmail:       make(map[string]*models.User),
		usersByID:          make(map[string]*models.User),
		refreshTokens:      make(map[string]*models.RefreshToken),
		verificationTokens: make(map[string]*models.VerificationToken),
	}
}

func (m *mockAuthRepo) addUser(user *models.User) {
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	m.addUser(user)
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if user, ok := m.usersByID[id]; ok {
		user.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateVerificationToken(ctx context.Context, token *models.VerificationToken) error {
	m.verificationTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindVerificationToken(ctx context.Context, token string) (*models.VerificationToken, error) {
	vt, ok := m.verificationTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return vt, nil
}

func (m *mockAuthRepo) DeleteVerificationTokens(ctx context.Context, userID string) error {
	for key, vt := range m.verificationTokens {
		if vt.UserID == userID {
			delete(m.verificationTokens, key)
		}
	}
	return nil
}

func (m *mockAuthRepo) MarkEmailVerified(ctx context.Context, userID string, verifiedAt time.Time) error {
	if user, ok := m.usersByID[userID]; ok {
		user.IsEmailVerified = true
	}
	m.verifiedUsers = append(m.verifiedUsers, userID)
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

type mockMailQueue struct {
	jobs []jobs.Job
}

func (m *mockMailQueue) Enqueue(job jobs.Job) error {
	m.jobs = append(m.jobs, job)
	return nil
}

func newAuthService(repo *mockAuthRepo, mail mailQueue) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: time.Hour * 24,
	}, mail)
}

func TestAuthServiceRegister(t *testing.T) {
	repo := newMockAuthRepo()
	mail := &mockMailQueue{}
	svc := newAuthService(repo, mail)

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "New Student",
		Email:    "student@campus.edu",
		Password: "password",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, info.Role)
	assert.False(t, info.Verified)
	assert.Len(t, repo.verificationTokens, 1)
	require.Len(t, mail.jobs, 1)
	assert.Equal(t, MailJobVerification, mail.jobs[0].Type)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(&models.User{ID: "u1", Email: "student@campus.edu"})
	svc := newAuthService(repo, nil)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		FullName: "New Student",
		Email:    "student@campus.edu",
		Password: "password",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateEmail.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceVerifyEmail(t *testing.T) {
	repo := newMockAuthRepo()
	mail := &mockMailQueue{}
	repo.addUser(&models.User{ID: "u1", Email: "student@campus.edu", FullName: "Student"})
	repo.verificationTokens["tok"] = &models.VerificationToken{ID: "v1", UserID: "u1", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	svc := newAuthService(repo, mail)

	err := svc.VerifyEmail(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, repo.usersByID["u1"].IsEmailVerified)
	assert.Empty(t, repo.verificationTokens)
	require.Len(t, mail.jobs, 1)
	assert.Equal(t, MailJobWelcome, mail.jobs[0].Type)
}

func TestAuthServiceVerifyEmailExpired(t *testing.T) {
	repo := newMockAuthRepo()
	repo.addUser(&models.User{ID: "u1", Email: "student@campus.edu"})
	repo.verificationTokens["tok"] = &models.VerificationToken{ID: "v1", UserID: "u1", Token: "tok", ExpiresAt: time.Now().Add(-time.Minute)}
	svc := newAuthService(repo, nil)

	err := svc.VerifyEmail(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.usersByID["u1"].IsEmailVerified)
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := newMockAuthRepo()
	repo.addUser(&models.User{ID: "u1", Email: "student@campus.edu", PasswordHash: string(password), Role: models.RoleStudent, IsEmailVerified: true})
	svc := newAuthService(repo, nil)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@campus.edu", Password: "password"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.True(t, res.User.Verified)
	assert.NotEmpty(t, repo.refreshTokens)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	password, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	repo := newMockAuthRepo()
	repo.addUser(&models.User{ID: "u1", Email: "student@campus.edu", PasswordHash: string(password)})
	svc := newAuthService(repo, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "student@campus.edu", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshToken(t *testing.T) {
	repo := newMockAuthRepo()
	user := &models.User{ID: "u1", Email: "student@campus.edu", Role: models.RoleStudent}
	repo.addUser(user)
	token := &models.RefreshToken{ID: "rt1", UserID: user.ID, Token: "token", ExpiresAt: time.Now().Add(time.Hour)}
	repo.refreshTokens[token.Token] = token
	svc := newAuthService(repo, nil)

	res, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "token"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, "token", res.RefreshToken)
	assert.True(t, repo.refreshTokens["token"].Revoked)
}

func TestAuthServiceChangePassword(t *testing.T) {
	oldHash, _ := bcrypt.GenerateFromPassword([]byte("old"), bcrypt.DefaultCost)
	repo := newMockAuthRepo()
	repo.addUser(&models.User{ID: "u1", Email: "student@campus.edu", PasswordHash: string(oldHash)})
	svc := newAuthService(repo, nil)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{OldPassword: "old", NewPassword: "newpassword"})
	require.NoError(t, err)
	assert.NotEqual(t, string(oldHash), repo.usersByID["u1"].PasswordHash)
}

func TestValidateTokenCarriesVerifiedClaim(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newAuthService(repo, nil)
	user := &models.User{ID: "u1", Email: "student@campus.edu", Role: models.RoleStudent, IsGoogleUser: true}
	token, _, err := svc.generateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.True(t, claims.Verified)
}
