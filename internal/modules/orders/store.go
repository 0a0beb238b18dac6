package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"merchantry.io/app/internal/modules/catalog"
	"merchantry.io/app/internal/modules/inventory"
	"merchantry.io/app/internal/modules/payments"
	"merchantry.io/app/internal/modules/pricing"
)

type CreateGraphInput struct {
	StoreID    string
	CustomerID string
	Pricing    pricing.Result

	GatewayPaymentID string
	Provider         string

	ShippingAddressJSON []byte
	BillingAddressJSON  []byte
}

// Store is the persistence seam of the orchestrator. GormStore is the
// production implementation; tests substitute an in-memory one.
type Store interface {
	payments.UsedIntentLookup

	// CreateOrderGraph commits reservation + order + items + payment as one
	// transaction, or nothing at all.
	CreateOrderGraph(ctx context.Context, in CreateGraphInput) (Order, []OrderItem, error)

	GetOrderWithItems(ctx context.Context, storeID, orderID string) (Order, []OrderItem, error)
}

type GormStore struct{ db *gorm.DB }

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) IntentInUse(ctx context.Context, storeID, intentID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&payments.Payment{}).
		Where("store_id = ? AND gateway_payment_id = ?", storeID, intentID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *GormStore) CreateOrderGraph(ctx context.Context, in CreateGraphInput) (Order, []OrderItem, error) {
	var ord Order
	var items []OrderItem

	err := inventory.WithTxRetry(ctx, s.db, 3, func(tx *gorm.DB) error {
		lines := make([]inventory.Line, 0, len(in.Pricing.Lines))
		for _, ln := range in.Pricing.Lines {
			lines = append(lines, inventory.Line{
				ProductID:      ln.ProductID,
				VariantID:      ln.VariantID,
				Qty:            ln.Quantity,
				TrackInventory: ln.TrackInventory,
			})
		}
		if err := inventory.ReserveInTx(ctx, tx, in.StoreID, lines); err != nil {
			return err
		}

		number, err := nextOrderNumber(ctx, tx, in.StoreID)
		if err != nil {
			return err
		}

		now := time.Now()
		ord = Order{
			ID:                  uuid.NewString(),
			StoreID:             in.StoreID,
			CustomerID:          in.CustomerID,
			OrderNumber:         number,
			Status:              StatusPending,
			SubtotalCents:       in.Pricing.SubtotalCents,
			TaxCents:            in.Pricing.TaxCents,
			ShippingCents:       in.Pricing.ShippingCents,
			DiscountCents:       in.Pricing.DiscountCents,
			TotalCents:          in.Pricing.GrandTotalCents,
			Currency:            in.Pricing.Currency,
			ShippingAddressJSON: in.ShippingAddressJSON,
			BillingAddressJSON:  in.BillingAddressJSON,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if in.Pricing.DiscountCents > 0 && in.Pricing.DiscountCode != "" {
			code := in.Pricing.DiscountCode
			ord.DiscountCode = &code
		}
		if err := tx.WithContext(ctx).Create(&ord).Error; err != nil {
			return err
		}

		items = make([]OrderItem, 0, len(in.Pricing.Lines))
		for _, ln := range in.Pricing.Lines {
			items = append(items, OrderItem{
				ID:             uuid.NewString(),
				OrderID:        ord.ID,
				ProductID:      ln.ProductID,
				VariantID:      ln.VariantID,
				Name:           ln.Name,
				SKU:            ln.SKU,
				Quantity:       ln.Quantity,
				UnitPriceCents: ln.UnitPriceCents,
				SubtotalCents:  ln.SubtotalCents,
				TaxCents:       ln.TaxCents,
				DiscountCents:  ln.DiscountCents,
				TotalCents:     ln.TotalCents,
				CreatedAt:      now,
			})
		}
		if err := tx.WithContext(ctx).Create(&items).Error; err != nil {
			return err
		}

		pay := payments.Payment{
			ID:               uuid.NewString(),
			StoreID:          in.StoreID,
			OrderID:          ord.ID,
			Provider:         in.Provider,
			GatewayPaymentID: in.GatewayPaymentID,
			Status:           payments.StatusAuthorized,
			AmountCents:      in.Pricing.GrandTotalCents,
			Currency:         in.Pricing.Currency,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.WithContext(ctx).Create(&pay).Error; err != nil {
			if catalog.IsDuplicateKey(err) {
				return &payments.DuplicatePaymentError{StoreID: in.StoreID, GatewayPaymentID: in.GatewayPaymentID}
			}
			return err
		}

		if ord.DiscountCode != nil {
			if err := redeemDiscount(ctx, tx, in.StoreID, *ord.DiscountCode); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		var dup *payments.DuplicatePaymentError
		var oos *inventory.InsufficientStockError
		if errors.As(err, &dup) || errors.As(err, &oos) {
			return Order{}, nil, err
		}
		if inventory.IsRetryableMySQLError(err) || errors.Is(err, context.DeadlineExceeded) {
			return Order{}, nil, &TransientError{Err: err}
		}
		return Order{}, nil, err
	}

	return ord, items, nil
}

// nextOrderNumber increments the store's counter under a row lock so
// concurrent checkouts get distinct numbers.
func nextOrderNumber(ctx context.Context, tx *gorm.DB, storeID string) (string, error) {
	var cnt OrderCounter
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&cnt, "store_id = ?", storeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cnt = OrderCounter{StoreID: storeID, NextNumber: 1001}
		if cerr := tx.WithContext(ctx).Create(&cnt).Error; cerr != nil {
			if !catalog.IsDuplicateKey(cerr) {
				return "", cerr
			}
			// lost the first-order race; lock the row the winner created
			if rerr := tx.WithContext(ctx).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&cnt, "store_id = ?", storeID).Error; rerr != nil {
				return "", rerr
			}
		}
	} else if err != nil {
		return "", err
	}

	number := cnt.NextNumber
	if err := tx.WithContext(ctx).
		Model(&OrderCounter{}).
		Where("store_id = ?", storeID).
		UpdateColumn("next_number", gorm.Expr("next_number + 1")).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("ORD-%06d", number), nil
}

// redeemDiscount bumps used_count, respecting the usage limit at write time.
// A lost race here degrades to over-redemption of at most the in-flight
// window; the checkout itself is not failed (same soft policy as pricing).
func redeemDiscount(ctx context.Context, tx *gorm.DB, storeID, code string) error {
	res := tx.WithContext(ctx).
		Model(&catalog.DiscountCode{}).
		Where("store_id = ? AND code = ? AND (usage_limit = 0 OR used_count < usage_limit)", storeID, code).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		log.Printf("redeemDiscount: code %q hit usage limit mid-checkout in store %s", code, storeID)
	}
	return nil
}

func (s *GormStore) GetOrderWithItems(ctx context.Context, storeID, orderID string) (Order, []OrderItem, error) {
	var o Order
	err := s.db.WithContext(ctx).First(&o, "id = ? AND store_id = ?", orderID, storeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Order{}, nil, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, nil, err
	}
	var items []OrderItem
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&items, "order_id = ?", orderID).Error; err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}
