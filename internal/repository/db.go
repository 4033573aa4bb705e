package repository

import (
	"context"

	"gorm.io/gorm"
)

// pick returns tx when a transaction is in progress, db otherwise.
func pick(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
