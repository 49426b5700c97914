package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/you/otams/domain"
	"github.com/you/otams/internal/logging"
)

// dummyPassword is hashed once and verified against when the email is
// unknown, so both failure paths spend one hash comparison.
const dummyPassword = "otams-dummy-password-for-timing"

// AuthOptions carries the optional collaborators and policy switches of the auth service
type AuthOptions struct {
	// Throttle limits login attempts per email; nil disables throttling
	Throttle domain.LoginThrottle
	// Audit receives one event per state transition; nil disables auditing
	Audit  domain.AuditLogger
	Logger *slog.Logger
	// RevokeLineageOnReuse revokes every successor of a rotated token that is presented again
	RevokeLineageOnReuse bool
}

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	userRepo    domain.UserRepository
	tokenStore  domain.RefreshTokenStore
	tx          domain.Transactor
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	throttle    domain.LoginThrottle
	audit       domain.AuditLogger
	logger      *slog.Logger
	opts        AuthOptions
	dummyHash   func() string
	now         func() time.Time
}

// NewAuthService creates a new auth service. tx must span both repositories.
func NewAuthService(
	userRepo domain.UserRepository,
	tokenStore domain.RefreshTokenStore,
	tx domain.Transactor,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	opts AuthOptions,
) domain.AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &AuthServiceImpl{
		userRepo:    userRepo,
		tokenStore:  tokenStore,
		tx:          tx,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		throttle:    opts.Throttle,
		audit:       opts.Audit,
		logger:      logger.With("component", "auth_service"),
		opts:        opts,
		dummyHash: sync.OnceValue(func() string {
			hash, _ := passwordSvc.Hash(dummyPassword)
			return hash
		}),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// record hands an event to the audit logger; audit failures never fail the request
func (s *AuthServiceImpl) record(ctx context.Context, event *domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to record audit event", "event_type", event.EventType, "error", err)
	}
}

// issueTokens mints an access token and a refresh token record for user.
// The record is not persisted.
func (s *AuthServiceImpl) issueTokens(user *domain.User, ipAddress string) (*domain.AuthResult, *domain.RefreshToken, error) {
	accessToken, accessExpiresAt, err := s.tokenSvc.IssueAccessToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, record, err := s.tokenSvc.IssueRefreshToken(user, ipAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &domain.AuthResult{
		User:                  user,
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessExpiresAt,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: record.ExpiresAt,
	}, record, nil
}

// startSession issues a token pair and persists the refresh record
func (s *AuthServiceImpl) startSession(ctx context.Context, user *domain.User, ipAddress string) (*domain.AuthResult, error) {
	result, record, err := s.issueTokens(user, ipAddress)
	if err != nil {
		return nil, err
	}
	if err := s.tokenStore.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}
	return result, nil
}

// Register implements domain.AuthService. Email uniqueness is decided by the
// store's unique index, not by a prior lookup. The account and its first
// refresh token are stored together or not at all.
func (s *AuthServiceImpl) Register(ctx context.Context, req domain.RegisterRequest, ipAddress string) (*domain.AuthResult, error) {
	hashedPassword, err := s.passwordSvc.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        domain.NormalizeEmail(req.Email),
		Name:         req.Name,
		Gender:       req.Gender,
		Role:         domain.RoleCustomer,
		PasswordHash: hashedPassword,
	}

	var result *domain.AuthResult
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, domain.ErrDuplicateEmail) {
				return domain.ErrDuplicateEmail
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		var err error
		result, err = s.startSession(ctx, user, ipAddress)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, domain.NewAuditEvent(domain.UserRegistrationEvent, user.ID).WithEmail(user.Email).WithIP(ipAddress))
	return result, nil
}

// Login implements domain.AuthService
func (s *AuthServiceImpl) Login(ctx context.Context, email, password, ipAddress string) (*domain.AuthResult, error) {
	email = domain.NormalizeEmail(email)

	// the attempt is counted before the password is checked; success resets it
	if s.throttle != nil {
		allowed, err := s.throttle.Attempt(ctx, email)
		if err != nil {
			s.logger.WarnContext(ctx, "login throttle unavailable", "error", err)
		} else if !allowed {
			s.record(ctx, domain.NewAuditEvent(domain.UserLoginThrottledEvent, "").
				WithEmail(email).WithIP(ipAddress).WithError(domain.ErrTooManyLoginAttempts))
			return nil, domain.ErrTooManyLoginAttempts
		}
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		s.passwordSvc.Verify(s.dummyHash(), password)
		s.loginFailed(ctx, "", email, ipAddress)
		return nil, domain.ErrInvalidCredentials
	}

	if !s.passwordSvc.Verify(user.PasswordHash, password) {
		s.loginFailed(ctx, user.ID, email, ipAddress)
		return nil, domain.ErrInvalidCredentials
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "failed to reset login throttle", "error", err)
		}
	}

	result, err := s.startSession(ctx, user, ipAddress)
	if err != nil {
		return nil, err
	}

	s.record(ctx, domain.NewAuditEvent(domain.UserLoginEvent, user.ID).WithEmail(email).WithIP(ipAddress))
	return result, nil
}

func (s *AuthServiceImpl) loginFailed(ctx context.Context, userID, email, ipAddress string) {
	s.record(ctx, domain.NewAuditEvent(domain.UserLoginFailureEvent, userID).
		WithEmail(email).WithIP(ipAddress).WithError(domain.ErrInvalidCredentials))
}

// RefreshToken implements domain.AuthService. Every rejection, whatever its
// cause, surfaces as ErrInvalidOrExpiredToken.
func (s *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken, ipAddress string) (*domain.AuthResult, error) {
	if refreshToken == "" {
		return nil, domain.ErrMissingToken
	}

	current, err := s.tokenStore.FindActive(ctx, refreshToken)
	if err != nil {
		if !errors.Is(err, domain.ErrRefreshTokenNotFound) {
			return nil, fmt.Errorf("failed to find refresh token: %w", err)
		}
		s.rejectRefresh(ctx, refreshToken, ipAddress)
		return nil, domain.ErrInvalidOrExpiredToken
	}

	user, err := s.userRepo.FindByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.record(ctx, domain.NewAuditEvent(domain.TokenRefreshFailedEvent, current.UserID).
				WithIP(ipAddress).WithError(err))
			return nil, domain.ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	result, next, err := s.issueTokens(user, ipAddress)
	if err != nil {
		return nil, err
	}

	if err := s.tokenStore.Rotate(ctx, refreshToken, next); err != nil {
		if errors.Is(err, domain.ErrRefreshTokenNotFound) {
			// lost a concurrent rotation of the same token
			s.record(ctx, domain.NewAuditEvent(domain.TokenRefreshFailedEvent, user.ID).
				WithIP(ipAddress).WithError(domain.ErrInvalidOrExpiredToken).WithMetadata("reason", "rotation_conflict"))
			return nil, domain.ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	s.record(ctx, domain.NewAuditEvent(domain.TokenRefreshEvent, user.ID).WithIP(ipAddress))
	return result, nil
}

// rejectRefresh audits a refresh with an inactive token and, when enabled,
// revokes the lineage of a rotated token presented again.
func (s *AuthServiceImpl) rejectRefresh(ctx context.Context, refreshToken, ipAddress string) {
	event := domain.NewAuditEvent(domain.TokenRefreshFailedEvent, "").
		WithIP(ipAddress).WithError(domain.ErrInvalidOrExpiredToken)

	prior, err := s.tokenStore.FindByToken(ctx, refreshToken)
	if err != nil {
		if !errors.Is(err, domain.ErrRefreshTokenNotFound) {
			s.logger.WarnContext(ctx, "failed to inspect rejected refresh token", "error", err)
		}
		s.record(ctx, event.WithMetadata("state", "unknown"))
		return
	}

	state := prior.State(s.now())
	event.UserID = prior.UserID
	s.record(ctx, event.WithMetadata("state", string(state)))

	if state != domain.TokenRotated || !s.opts.RevokeLineageOnReuse {
		return
	}

	revoked, err := s.tokenStore.RevokeLineage(ctx, refreshToken, ipAddress)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke token lineage", "user_id", prior.UserID, "error", err)
		return
	}
	s.record(ctx, domain.NewAuditEvent(domain.TokenReuseEvent, prior.UserID).
		WithIP(ipAddress).WithError(domain.ErrInvalidOrExpiredToken).WithMetadata("revoked", revoked))
}

// RevokeToken implements domain.AuthService
func (s *AuthServiceImpl) RevokeToken(ctx context.Context, refreshToken, ipAddress string) (bool, error) {
	if refreshToken == "" {
		return false, domain.ErrMissingToken
	}

	revoked, err := s.tokenStore.Revoke(ctx, refreshToken, ipAddress, domain.RevokeReasonLogout)
	if err != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	s.record(ctx, domain.NewAuditEvent(domain.UserLogoutEvent, "").WithIP(ipAddress).WithMetadata("revoked", revoked))
	return revoked, nil
}

// RevokeAllForUser implements domain.AuthService
func (s *AuthServiceImpl) RevokeAllForUser(ctx context.Context, userID, ipAddress string) (int64, error) {
	count, err := s.tokenStore.RevokeAllForUser(ctx, userID, ipAddress, domain.RevokeReasonRevokeAll)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	if count == 0 {
		return 0, domain.ErrNoActiveTokens
	}

	s.record(ctx, domain.NewAuditEvent(domain.TokensRevokedAllEvent, userID).WithIP(ipAddress).WithMetadata("revoked", count))
	return count, nil
}

// ChangePassword implements domain.AuthService. The new hash and the
// revocation of every refresh token the user holds commit together.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, ipAddress string) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	if !s.passwordSvc.Verify(user.PasswordHash, currentPassword) {
		s.record(ctx, domain.NewAuditEvent(domain.PasswordChangeFailEvent, userID).
			WithIP(ipAddress).WithError(domain.ErrIncorrectCurrentPassword))
		return domain.ErrIncorrectCurrentPassword
	}

	hashedPassword, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var revoked int64
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("failed to update password: %w", err)
		}
		var err error
		revoked, err = s.tokenStore.RevokeAllForUser(ctx, userID, ipAddress, domain.RevokeReasonPasswordChange)
		if err != nil {
			return fmt.Errorf("failed to revoke refresh tokens: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.record(ctx, domain.NewAuditEvent(domain.PasswordChangeEvent, userID).WithIP(ipAddress).WithMetadata("revoked", revoked))
	return nil
}

// UpdateProfile implements domain.AuthService. Only the profile columns are
// written; the returned user is read back afterwards.
func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	if err := s.userRepo.UpdateProfile(ctx, userID, update); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.record(ctx, domain.NewAuditEvent(domain.ProfileUpdateEvent, userID))
	return user, nil
}

// GetUserByID implements domain.AuthService
func (s *AuthServiceImpl) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.findUser(ctx, userID)
}

// ListUsers implements domain.AuthService
func (s *AuthServiceImpl) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *AuthServiceImpl) findUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
