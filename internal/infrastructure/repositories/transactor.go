package repositories

import (
	"context"

	"github.com/you/otams/domain"
	"gorm.io/gorm"
)

type txKey struct{}

// GormTransactor implements domain.Transactor. The open *gorm.DB transaction
// travels in the context so every repository built on the same database joins it.
type GormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a transactor over db
func NewTransactor(db *gorm.DB) domain.Transactor {
	return &GormTransactor{db: db}
}

// InTransaction implements domain.Transactor. A call made while a transaction
// is already open runs inside it as a nested savepoint.
func (t *GormTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return conn(ctx, t.db).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or db when there is none
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
