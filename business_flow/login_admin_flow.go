package businessflow

import (
	"context"

	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/app/services"
	"github.com/meidesaqua/meidesaqua-api/models"
	"github.com/meidesaqua/meidesaqua-api/repository"
	"github.com/meidesaqua/meidesaqua-api/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginAdminFlow handles the admin panel authentication: captcha challenge,
// credential check and token refresh.
type LoginAdminFlow interface {
	InitCaptcha(ctx context.Context) (*dto.AdminCaptchaInitResponse, error)
	Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
	Refresh(ctx context.Context, req *dto.AdminRefreshRequest) (*dto.AdminSessionDTO, error)
}

// LoginAdminFlowImpl implements LoginAdminFlow
type LoginAdminFlowImpl struct {
	db         *gorm.DB
	adminRepo  repository.AdminRepository
	auditRepo  repository.AuditLogRepository
	captchaSvc services.CaptchaService
	tokenSvc   services.TokenService
}

func NewLoginAdminFlow(
	db *gorm.DB,
	adminRepo repository.AdminRepository,
	auditRepo repository.AuditLogRepository,
	captchaSvc services.CaptchaService,
	tokenSvc services.TokenService,
) LoginAdminFlow {
	return &LoginAdminFlowImpl{
		db:         db,
		adminRepo:  adminRepo,
		auditRepo:  auditRepo,
		captchaSvc: captchaSvc,
		tokenSvc:   tokenSvc,
	}
}

func (f *LoginAdminFlowImpl) InitCaptcha(ctx context.Context) (*dto.AdminCaptchaInitResponse, error) {
	challenge, err := f.captchaSvc.GenerateRotate(ctx)
	if err != nil {
		return nil, NewBusinessError("CAPTCHA_GENERATION_FAILED", "Failed to generate captcha", err)
	}
	return &dto.AdminCaptchaInitResponse{
		ChallengeID:       challenge.ID,
		MasterImageBase64: challenge.MasterImageBase64,
		ThumbImageBase64:  challenge.ThumbImageBase64,
	}, nil
}

func (f *LoginAdminFlowImpl) Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error) {
	if !f.captchaSvc.VerifyRotate(ctx, req.ChallengeID, req.UserAngle) {
		f.auditLogin(ctx, nil, req.Username, metadata, false, ErrInvalidCaptcha)
		return nil, NewBusinessError("INVALID_CAPTCHA", "Captcha verification failed", ErrInvalidCaptcha)
	}

	admin, err := f.adminRepo.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Failed to load admin", err)
	}
	if admin == nil {
		f.auditLogin(ctx, nil, req.Username, metadata, false, ErrAdminNotFound)
		return nil, NewBusinessError("INCORRECT_CREDENTIALS", "Incorrect username or password", ErrAdminNotFound)
	}
	if admin.IsActive != nil && !*admin.IsActive {
		f.auditLogin(ctx, &admin.ID, req.Username, metadata, false, ErrAdminInactive)
		return nil, NewBusinessError("ADMIN_INACTIVE", "Admin account is inactive", ErrAdminInactive)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		f.auditLogin(ctx, &admin.ID, req.Username, metadata, false, ErrIncorrectPassword)
		return nil, NewBusinessError("INCORRECT_CREDENTIALS", "Incorrect username or password", ErrIncorrectPassword)
	}

	accessToken, refreshToken, err := f.tokenSvc.GenerateAdminTokens(admin.ID)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Failed to generate session tokens", err)
	}

	if err := f.adminRepo.UpdateLastLogin(ctx, admin.ID, utils.UTCNow()); err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Failed to record login", err)
	}

	f.auditLogin(ctx, &admin.ID, req.Username, metadata, true, nil)
	return &dto.AdminLoginResponse{
		Admin:   ToAdminDTOModel(*admin),
		Session: ToAdminSessionDTO(accessToken, refreshToken),
	}, nil
}

func (f *LoginAdminFlowImpl) Refresh(ctx context.Context, req *dto.AdminRefreshRequest) (*dto.AdminSessionDTO, error) {
	accessToken, refreshToken, err := f.tokenSvc.RefreshAdminToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Refresh token is invalid or expired", err)
	}
	session := ToAdminSessionDTO(accessToken, refreshToken)
	return &session, nil
}

func (f *LoginAdminFlowImpl) auditLogin(ctx context.Context, adminID *uint, username string, metadata *ClientMetadata, success bool, opErr error) {
	action := models.AuditActionAdminLoginSuccess
	if !success {
		action = models.AuditActionAdminLoginFailed
	}
	entry := &models.AuditLog{
		AdminID:     adminID,
		Action:      action,
		Description: utils.ToPtr("username " + username),
		Success:     utils.ToPtr(success),
	}
	if opErr != nil {
		entry.ErrorMessage = utils.ToPtr(opErr.Error())
	}
	writeAudit(ctx, f.auditRepo, entry, metadata)
}
