package orderstore

import (
	"context"
	"encoding/json"
	"fmt"

	"restoran-analytics/internal/analytics"
	"restoran-analytics/internal/models"

	"gorm.io/gorm"
)

// PostgresSource reads orders from the orders table. The JSONB payload is
// authoritative; typed columns only fill keys the payload lacks.
type PostgresSource struct {
	DB *gorm.DB
}

// ordersQuery returns the newest orders first so a limit drops the oldest
// history, never the current period.
func (s PostgresSource) ordersQuery(ctx context.Context, q Query) *gorm.DB {
	dbq := s.DB.WithContext(ctx).Model(&models.Order{}).Order("created_at DESC")
	if !q.Since.IsZero() {
		dbq = dbq.Where("created_at >= ? OR paid_at >= ?", q.Since, q.Since)
	}
	if q.Limit > 0 {
		dbq = dbq.Limit(q.Limit)
	}
	return dbq
}

func (s PostgresSource) Orders(ctx context.Context, q Query) ([]map[string]any, error) {
	var rows []models.Order
	if err := s.ordersQuery(ctx, q).Find(&rows).Error; err != nil {
		return nil, unavailable(fmt.Errorf("querying orders: %w", err))
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, RecordFromRow(row))
	}
	return out, nil
}

// RecordFromRow decodes the payload and backfills missing keys from the
// row's columns. A payload that is not a JSON object is ignored.
func RecordFromRow(row models.Order) map[string]any {
	rec := map[string]any{}
	if len(row.Payload) > 0 {
		if err := json.Unmarshal(row.Payload, &rec); err != nil || rec == nil {
			rec = map[string]any{}
		}
	}

	setMissing(rec, "id", row.ID)
	setMissing(rec, "orderType", row.OrderType)
	setMissing(rec, "status", row.Status)
	if !row.Total.IsZero() {
		setMissing(rec, "total", row.Total.InexactFloat64())
	}
	if row.WaiterID != nil {
		setMissing(rec, "waiterId", *row.WaiterID)
	}
	setMissing(rec, "customerName", row.CustomerName)
	if !row.CreatedAt.IsZero() {
		setMissing(rec, "createdAt", row.CreatedAt)
	}
	if row.PaidAt != nil {
		setMissing(rec, "paidAt", *row.PaidAt)
	}
	return rec
}

func setMissing(rec map[string]any, key string, v any) {
	if s, ok := v.(string); ok && s == "" {
		return
	}
	if cur, ok := rec[key]; ok && cur != nil {
		return
	}
	rec[key] = v
}

// PostgresDirectory serves menu, categories and waiters from Postgres.
type PostgresDirectory struct {
	DB *gorm.DB
}

func (d PostgresDirectory) Catalog(ctx context.Context) ([]analytics.MenuCatalogEntry, error) {
	var items []models.MenuItem
	if err := d.DB.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("querying menu items: %w", err)
	}
	out := make([]analytics.MenuCatalogEntry, 0, len(items))
	for _, it := range items {
		out = append(out, analytics.MenuCatalogEntry{Name: it.Name, CategoryID: it.CategoryID})
	}
	return out, nil
}

func (d PostgresDirectory) Categories(ctx context.Context) ([]analytics.Category, error) {
	var cats []models.Category
	if err := d.DB.WithContext(ctx).Order("sort_order ASC, name ASC").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	out := make([]analytics.Category, 0, len(cats))
	for _, c := range cats {
		out = append(out, analytics.Category{ID: c.ID, Name: c.Name})
	}
	return out, nil
}

func (d PostgresDirectory) Waiters(ctx context.Context) ([]analytics.Waiter, error) {
	var users []models.User
	if err := d.DB.WithContext(ctx).Where("role = ?", models.RoleWaiter).Order("name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("querying waiters: %w", err)
	}
	out := make([]analytics.Waiter, 0, len(users))
	for _, u := range users {
		out = append(out, analytics.Waiter{ID: u.WaiterKey(), Name: u.Name, Role: string(u.Role)})
	}
	return out, nil
}
