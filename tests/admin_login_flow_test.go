package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/app/services"
	businessflow "github.com/meidesaqua/meidesaqua-api/business_flow"
	"github.com/meidesaqua/meidesaqua-api/models"
	"github.com/meidesaqua/meidesaqua-api/repository"
	testingutil "github.com/meidesaqua/meidesaqua-api/testing"
	"github.com/meidesaqua/meidesaqua-api/utils"
)

// stubCaptcha accepts or rejects every verification, so login can be
// exercised without decoding rotate images.
type stubCaptcha struct {
	accept bool
}

func (s *stubCaptcha) GenerateRotate(ctx context.Context) (*services.RotateChallenge, error) {
	return &services.RotateChallenge{ID: "stub-challenge"}, nil
}

func (s *stubCaptcha) VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool {
	return s.accept
}

func TestAdminLoginFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		adminRepo := repository.NewAdminRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		tokenSvc, err := services.NewTokenService(
			time.Hour, 24*time.Hour,
			"meidesaqua-test", "meidesaqua-admin",
			false, "", "", "test-secret-key-of-at-least-32-chars",
		)
		require.NoError(t, err)

		captcha := &stubCaptcha{accept: true}
		flow := businessflow.NewLoginAdminFlow(testDB.DB, adminRepo, auditRepo, captcha, tokenSvc)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "login-test")
		ctx := context.Background()

		admin, err := fixtures.CreateTestAdmin("paula", "senha-segura")
		require.NoError(t, err)

		loginReq := func(username, password string) *dto.AdminLoginRequest {
			return &dto.AdminLoginRequest{
				ChallengeID: "stub-challenge",
				UserAngle:   42,
				Username:    username,
				Password:    password,
			}
		}

		t.Run("InitCaptchaReturnsChallenge", func(t *testing.T) {
			resp, err := flow.InitCaptcha(ctx)
			require.NoError(t, err)
			assert.Equal(t, "stub-challenge", resp.ChallengeID)
		})

		t.Run("LoginIssuesTokensAndRecordsLogin", func(t *testing.T) {
			resp, err := flow.Login(ctx, loginReq("paula", "senha-segura"), metadata)
			require.NoError(t, err)
			assert.Equal(t, "paula", resp.Admin.Username)
			assert.NotEmpty(t, resp.Session.AccessToken)
			assert.NotEmpty(t, resp.Session.RefreshToken)
			assert.Equal(t, "Bearer", resp.Session.TokenType)

			claims, err := tokenSvc.ValidateAdminToken(resp.Session.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, admin.ID, claims.AdminID)

			reloaded, err := adminRepo.ByID(ctx, admin.ID)
			require.NoError(t, err)
			assert.NotNil(t, reloaded.LastLoginAt)

			logs, err := auditRepo.ByFilter(ctx, models.AuditLogFilter{
				AdminID: &admin.ID,
				Action:  utils.ToPtr(models.AuditActionAdminLoginSuccess),
			}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, logs, 1)
		})

		t.Run("RefreshRotatesTheSession", func(t *testing.T) {
			resp, err := flow.Login(ctx, loginReq("paula", "senha-segura"), metadata)
			require.NoError(t, err)

			session, err := flow.Refresh(ctx, &dto.AdminRefreshRequest{
				RefreshToken: resp.Session.RefreshToken,
			})
			require.NoError(t, err)
			assert.NotEmpty(t, session.AccessToken)

			claims, err := tokenSvc.ValidateAdminToken(session.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, admin.ID, claims.AdminID)
		})

		t.Run("RefreshRejectsAccessToken", func(t *testing.T) {
			resp, err := flow.Login(ctx, loginReq("paula", "senha-segura"), metadata)
			require.NoError(t, err)

			_, err = flow.Refresh(ctx, &dto.AdminRefreshRequest{
				RefreshToken: resp.Session.AccessToken,
			})
			require.Error(t, err)
		})

		t.Run("WrongPasswordAndUnknownUserLookTheSame", func(t *testing.T) {
			_, badPassword := flow.Login(ctx, loginReq("paula", "senha-errada"), metadata)
			require.Error(t, badPassword)

			_, unknownUser := flow.Login(ctx, loginReq("ninguem", "tanto-faz"), metadata)
			require.Error(t, unknownUser)

			passErr, ok := badPassword.(*businessflow.BusinessError)
			require.True(t, ok)
			userErr, ok := unknownUser.(*businessflow.BusinessError)
			require.True(t, ok)
			assert.Equal(t, "INCORRECT_CREDENTIALS", passErr.Code)
			assert.Equal(t, passErr.Code, userErr.Code)
			assert.Equal(t, passErr.Message, userErr.Message)
		})

		t.Run("FailedLoginIsAudited", func(t *testing.T) {
			_, err := flow.Login(ctx, loginReq("paula", "senha-errada"), metadata)
			require.Error(t, err)

			logs, err := auditRepo.ByFilter(ctx, models.AuditLogFilter{
				AdminID: &admin.ID,
				Action:  utils.ToPtr(models.AuditActionAdminLoginFailed),
			}, "", 0, 0)
			require.NoError(t, err)
			assert.NotEmpty(t, logs)
		})

		t.Run("InactiveAdminCannotLogin", func(t *testing.T) {
			inactive, err := fixtures.CreateTestAdmin("afastado", "senha-segura")
			require.NoError(t, err)
			require.NoError(t, testDB.DB.Model(inactive).Update("is_active", false).Error)

			_, err = flow.Login(ctx, loginReq("afastado", "senha-segura"), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsAdminInactive(err))
		})

		t.Run("FailedCaptchaBlocksBeforeCredentials", func(t *testing.T) {
			captcha.accept = false
			defer func() { captcha.accept = true }()

			_, err := flow.Login(ctx, loginReq("paula", "senha-segura"), metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidCaptcha(err))
		})

		return nil
	})
	require.NoError(t, err)
}
