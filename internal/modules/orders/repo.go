package orders

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Repo is the read side for order queries; writes go through Store.
type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// DB returns the underlying database connection for direct queries.
func (r *Repo) DB() *gorm.DB { return r.db }

type ListByCustomerParams struct {
	StoreID    string
	CustomerID string
	Page       int
	PageSize   int
	Status     string // optional filter
}

type ListByCustomerItem struct {
	Order Order
	Count int
}

type ListByCustomerResult struct {
	Items []ListByCustomerItem
	Total int64
}

func (r *Repo) ListByCustomer(ctx context.Context, in ListByCustomerParams) (ListByCustomerResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 20
	}
	status := strings.TrimSpace(in.Status)

	q := r.db.WithContext(ctx).Model(&Order{}).
		Where("store_id = ? AND customer_id = ?", in.StoreID, in.CustomerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListByCustomerResult{}, err
	}

	var ords []Order
	if err := q.
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&ords).Error; err != nil {
		return ListByCustomerResult{}, err
	}

	items := make([]ListByCustomerItem, len(ords))
	for i, o := range ords {
		var count int64
		if err := r.db.WithContext(ctx).Model(&OrderItem{}).Where("order_id = ?", o.ID).Count(&count).Error; err != nil {
			count = 0
		}
		items[i] = ListByCustomerItem{Order: o, Count: int(count)}
	}

	return ListByCustomerResult{Items: items, Total: total}, nil
}

func (r *Repo) GetWithItems(ctx context.Context, storeID, id string) (Order, []OrderItem, error) {
	var o Order
	err := r.db.WithContext(ctx).First(&o, "id = ? AND store_id = ?", id, storeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Order{}, nil, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, nil, err
	}
	var items []OrderItem
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&items, "order_id = ?", id).Error; err != nil {
		return Order{}, nil, err
	}
	return o, items, nil
}
