package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/you/otams/domain"
	"gorm.io/gorm"
)

// activeCondition matches records that can still be presented
const activeCondition = "revoked = ? AND expires_at > ?"

// RefreshTokenRepositoryImpl implements domain.RefreshTokenStore using GORM.
// Callers pass raw token values; only their SHA-256 digests reach the table.
type RefreshTokenRepositoryImpl struct {
	db  *gorm.DB
	now func() time.Time
}

// DBRefreshToken represents the database model for RefreshToken
type DBRefreshToken struct {
	TokenHash      string `gorm:"primaryKey;size:64"`
	UserID         string `gorm:"index;size:36;not null"`
	CreatedByIP    string `gorm:"size:64"`
	CreatedAt      time.Time
	ExpiresAt      time.Time `gorm:"index;not null"`
	Revoked        bool      `gorm:"index;not null;default:false"`
	RevokedAt      *time.Time
	RevokedByIP    string `gorm:"size:64"`
	RevokeReason   string `gorm:"size:32"`
	ReplacedByHash string `gorm:"index;size:64"`
}

// TableName returns the table name for GORM
func (DBRefreshToken) TableName() string {
	return "refresh_tokens"
}

// NewRefreshTokenRepository creates a new refresh token store
func NewRefreshTokenRepository(db *gorm.DB) domain.RefreshTokenStore {
	return &RefreshTokenRepositoryImpl{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Save implements domain.RefreshTokenStore
func (r *RefreshTokenRepositoryImpl) Save(ctx context.Context, token *domain.RefreshToken) error {
	return conn(ctx, r.db).Create(r.domainToDB(token)).Error
}

// FindActive implements domain.RefreshTokenStore
func (r *RefreshTokenRepositoryImpl) FindActive(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var row DBRefreshToken
	err := conn(ctx, r.db).
		Where("token_hash = ?", domain.HashToken(token)).
		Where(activeCondition, false, r.now()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRefreshTokenNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&row), nil
}

// FindByToken implements domain.RefreshTokenStore
func (r *RefreshTokenRepositoryImpl) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	return r.findByHash(conn(ctx, r.db), domain.HashToken(token))
}

func (r *RefreshTokenRepositoryImpl) findByHash(db *gorm.DB, hash string) (*domain.RefreshToken, error) {
	var row DBRefreshToken
	if err := db.Where("token_hash = ?", hash).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRefreshTokenNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&row), nil
}

func revocation(now time.Time, ip string, reason domain.RevokeReason) map[string]interface{} {
	return map[string]interface{}{
		"revoked":       true,
		"revoked_at":    now,
		"revoked_by_ip": ip,
		"revoke_reason": string(reason),
	}
}

// Revoke implements domain.RefreshTokenStore
func (r *RefreshTokenRepositoryImpl) Revoke(ctx context.Context, token, revokedByIP string, reason domain.RevokeReason) (bool, error) {
	now := r.now()
	result := conn(ctx, r.db).Model(&DBRefreshToken{}).
		Where("token_hash = ?", domain.HashToken(token)).
		Where(activeCondition, false, now).
		Updates(revocation(now, revokedByIP, reason))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RevokeAllForUser implements domain.RefreshTokenStore
func (r *RefreshTokenRepositoryImpl) RevokeAllForUser(ctx context.Context, userID, revokedByIP string, reason domain.RevokeReason) (int64, error) {
	now := r.now()
	result := conn(ctx, r.db).Model(&DBRefreshToken{}).
		Where("user_id = ?", userID).
		Where(activeCondition, false, now).
		Updates(revocation(now, revokedByIP, reason))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Rotate implements domain.RefreshTokenStore. The old record is revoked and
// linked to next only if it is still active when the update runs; otherwise
// nothing is written and ErrRefreshTokenNotFound is returned.
func (r *RefreshTokenRepositoryImpl) Rotate(ctx context.Context, oldToken string, next *domain.RefreshToken) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		now := r.now()
		updates := revocation(now, next.CreatedByIP, domain.RevokeReasonRotated)
		updates["replaced_by_hash"] = next.TokenHash

		result := tx.Model(&DBRefreshToken{}).
			Where("token_hash = ?", domain.HashToken(oldToken)).
			Where(activeCondition, false, now).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrRefreshTokenNotFound
		}
		return tx.Create(r.domainToDB(next)).Error
	})
}

// RevokeLineage implements domain.RefreshTokenStore
func (r *RefreshTokenRepositoryImpl) RevokeLineage(ctx context.Context, token, revokedByIP string) (int64, error) {
	var revoked int64
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		now := r.now()
		current, err := r.findByHash(tx, domain.HashToken(token))
		if err != nil {
			return err
		}

		seen := map[string]bool{current.TokenHash: true}
		for current.ReplacedByHash != "" && !seen[current.ReplacedByHash] {
			next := current.ReplacedByHash
			seen[next] = true

			result := tx.Model(&DBRefreshToken{}).
				Where("token_hash = ?", next).
				Where(activeCondition, false, now).
				Updates(revocation(now, revokedByIP, domain.RevokeReasonReuseDetected))
			if result.Error != nil {
				return result.Error
			}
			revoked += result.RowsAffected

			current, err = r.findByHash(tx, next)
			if errors.Is(err, domain.ErrRefreshTokenNotFound) {
				// successor already purged
				return nil
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return revoked, nil
}

// PurgeExpired implements domain.RefreshTokenStore
func (r *RefreshTokenRepositoryImpl) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	result := conn(ctx, r.db).Where("expires_at < ?", before.UTC()).Delete(&DBRefreshToken{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// domainToDB converts a domain token to its database row
func (r *RefreshTokenRepositoryImpl) domainToDB(token *domain.RefreshToken) *DBRefreshToken {
	row := &DBRefreshToken{
		TokenHash:      token.TokenHash,
		UserID:         token.UserID,
		CreatedByIP:    token.CreatedByIP,
		CreatedAt:      token.CreatedAt.UTC(),
		ExpiresAt:      token.ExpiresAt.UTC(),
		Revoked:        token.Revoked,
		RevokedByIP:    token.RevokedByIP,
		RevokeReason:   string(token.RevokeReason),
		ReplacedByHash: token.ReplacedByHash,
	}
	if token.RevokedAt != nil {
		t := token.RevokedAt.UTC()
		row.RevokedAt = &t
	}
	return row
}

// dbToDomain converts a database row to a domain token
func (r *RefreshTokenRepositoryImpl) dbToDomain(row *DBRefreshToken) *domain.RefreshToken {
	return &domain.RefreshToken{
		TokenHash:      row.TokenHash,
		UserID:         row.UserID,
		CreatedByIP:    row.CreatedByIP,
		CreatedAt:      row.CreatedAt,
		ExpiresAt:      row.ExpiresAt,
		Revoked:        row.Revoked,
		RevokedAt:      row.RevokedAt,
		RevokedByIP:    row.RevokedByIP,
		RevokeReason:   domain.RevokeReason(row.RevokeReason),
		ReplacedByHash: row.ReplacedByHash,
	}
}
