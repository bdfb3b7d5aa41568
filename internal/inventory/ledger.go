// Package inventory owns the per-product stock counter. Stock is mutated
// only through Reserve and Restore, always inside the caller's transaction,
// so a multi-item order either commits every decrement or none of them.
package inventory

import (
	"errors"

	"gorm.io/gorm"

	"github.com/kmazurov/storefront/internal/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Reserve decrements stock by qty as a single conditional update:
// the decrement only happens when the current stock covers qty, which keeps
// stock >= 0 even under concurrent orders for the same product.
func Reserve(tx *gorm.DB, productID, qty uint) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrProductNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

// Restore adds qty back onto the product's stock. It is purely additive and
// NOT idempotent: calling it twice for the same reservation double-restores.
// A missing product is ignored, matching the cleanup paths where the product
// may already have been removed.
func Restore(tx *gorm.DB, productID, qty uint) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}
