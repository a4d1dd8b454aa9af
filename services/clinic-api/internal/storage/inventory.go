package storage

import (
	"context"

	"github.com/caredent/clinic-backend/libs/db"
	"github.com/caredent/clinic-backend/services/clinic-api/internal/model"
)

type InventoryRepository struct {
	pool *db.Pool
}

func NewInventoryRepository(pool *db.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func (r *InventoryRepository) Create(ctx context.Context, item *model.InventoryItem) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO inventory_items (name, category, quantity, min_stock, supplier, cost_cents)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, updated_at
	`, item.Name, item.Category, item.Quantity, item.MinStock, item.Supplier, item.CostCents).
		Scan(&item.ID, &item.UpdatedAt)
}

func (r *InventoryRepository) Get(ctx context.Context, id string) (model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(category, ''), quantity, min_stock, COALESCE(supplier, ''), cost_cents, updated_at
		FROM inventory_items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.MinStock, &item.Supplier, &item.CostCents, &item.UpdatedAt)
	return item, err
}

// List returns all items; lowStockOnly keeps rows at or under min_stock.
func (r *InventoryRepository) List(ctx context.Context, lowStockOnly bool) ([]model.InventoryItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(category, ''), quantity, min_stock, COALESCE(supplier, ''), cost_cents, updated_at
		FROM inventory_items
		WHERE NOT $1 OR quantity <= min_stock
		ORDER BY name ASC
	`, lowStockOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.InventoryItem
	for rows.Next() {
		var item model.InventoryItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.MinStock, &item.Supplier, &item.CostCents, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *InventoryRepository) Update(ctx context.Context, item *model.InventoryItem) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE inventory_items
		SET name = $2, category = $3, quantity = $4, min_stock = $5, supplier = $6, cost_cents = $7, updated_at = now()
		WHERE id = $1
	`, item.ID, item.Name, item.Category, item.Quantity, item.MinStock, item.Supplier, item.CostCents)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows()
	}
	return nil
}
