package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for admin access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// CaptchaTTL is the time window during which a login captcha stays valid
	CaptchaTTL = 5 * time.Minute
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Upload constants
const (
	// MaxLogoSizeBytes caps a single logo upload (5MB)
	MaxLogoSizeBytes = 5 * 1024 * 1024

	// MaxPortfolioImageSizeBytes caps a single portfolio image upload (10MB)
	MaxPortfolioImageSizeBytes = 10 * 1024 * 1024

	// MaxPortfolioImages caps the portfolio set size per establishment
	MaxPortfolioImages = 6
)

type contextKey string

// Context keys carried from the HTTP layer into business flows
const (
	RequestIDKey  contextKey = "request_id"
	UserAgentKey  contextKey = "user_agent"
	IPAddressKey  contextKey = "ip_address"
	EndpointKey   contextKey = "endpoint"
	TimeoutKey    contextKey = "timeout"
	CancelFuncKey contextKey = "cancel_func"
	AdminIDKey    contextKey = "admin_id"
)
