package inventory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Line struct {
	ProductID      string
	VariantID      string
	Qty            int64
	TrackInventory bool
}

// ReserveInTx runs inside the caller's transaction (no nested tx). Called
// from the order-creation transaction so reservation and order insert commit
// or roll back as one unit.
//
// The stock re-read happens under SELECT ... FOR UPDATE and the decrement is
// conditioned on stock >= qty at write time, so two racing checkouts for the
// same variant cannot both win the last units.
func ReserveInTx(ctx context.Context, tx *gorm.DB, storeID string, lines []Line) error {
	want := make(map[string]int64, len(lines))
	byVariant := make(map[string]Line, len(lines))
	for _, ln := range lines {
		if !ln.TrackInventory || ln.VariantID == "" {
			continue
		}
		q := ln.Qty
		if q < 1 {
			q = 1
		}
		want[ln.VariantID] += q
		byVariant[ln.VariantID] = ln
	}
	if len(want) == 0 {
		return nil
	}

	// deterministic lock order
	ids := make([]string, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	type variantRow struct {
		ID    string `gorm:"column:id"`
		Stock int64  `gorm:"column:stock"`
	}
	var rows []variantRow

	if err := tx.WithContext(ctx).
		Table("product_variants").
		Select("product_variants.id, product_variants.stock").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Joins("JOIN products p ON p.id = product_variants.product_id").
		Where("product_variants.id IN ? AND p.store_id = ?", ids, storeID).
		Order("product_variants.id ASC").
		Find(&rows).Error; err != nil {
		return err
	}

	avail := make(map[string]int64, len(rows))
	for _, r := range rows {
		avail[r.ID] = r.Stock
	}

	var short []InsufficientItem
	for _, id := range ids {
		req := want[id]
		av, ok := avail[id]
		if !ok || av < req {
			short = append(short, InsufficientItem{
				ProductID: byVariant[id].ProductID,
				VariantID: id,
				Requested: req,
				Available: av,
			})
		}
	}
	if len(short) > 0 {
		return &InsufficientStockError{Items: short}
	}

	for _, id := range ids {
		req := want[id]
		res := tx.WithContext(ctx).
			Table("product_variants").
			Where("id = ? AND stock >= ?", id, req).
			UpdateColumn("stock", gorm.Expr("stock - ?", req))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			// lost the race between read and write
			return &InsufficientStockError{Items: []InsufficientItem{{
				ProductID: byVariant[id].ProductID,
				VariantID: id,
				Requested: req,
				Available: 0,
			}}}
		}
	}

	return nil
}

// --- retry helpers (deadlock / lock wait timeout) ---

func WithTxRetry(ctx context.Context, db *gorm.DB, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error

	for i := 0; i < attempts; i++ {
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(tx)
		})
		if err == nil {
			return nil
		}
		lastErr = err

		if IsRetryableMySQLError(err) && i < attempts-1 {
			time.Sleep(time.Duration(50*(i+1)) * time.Millisecond)
			continue
		}
		return err
	}
	return lastErr
}

func IsRetryableMySQLError(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		// 1213: Deadlock found; 1205: Lock wait timeout
		return me.Number == 1213 || me.Number == 1205
	}
	return false
}
