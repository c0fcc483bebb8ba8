package orderstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"restoran-analytics/internal/analytics"
	"restoran-analytics/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type fakeSource struct {
	orders []map[string]any
	err    error
	got    Query
}

func (f *fakeSource) Orders(_ context.Context, q Query) ([]map[string]any, error) {
	f.got = q
	return f.orders, f.err
}

type fakeDirectory struct {
	err error
}

func (f fakeDirectory) Catalog(context.Context) ([]analytics.MenuCatalogEntry, error) {
	return []analytics.MenuCatalogEntry{{Name: "Osh", CategoryID: "c1"}}, nil
}

func (f fakeDirectory) Categories(context.Context) ([]analytics.Category, error) {
	return []analytics.Category{{ID: "c1", Name: "Milliy taomlar"}}, nil
}

func (f fakeDirectory) Waiters(context.Context) ([]analytics.Waiter, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []analytics.Waiter{{ID: "1", Name: "Aziz", Role: "waiter"}}, nil
}

func TestLoader_Snapshot(t *testing.T) {
	now := time.Date(2024, time.May, 15, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{orders: []map[string]any{{"id": "A"}, {"id": "B"}}}
	l := &Loader{
		Orders:       src,
		Directory:    fakeDirectory{},
		LookbackDays: 30,
		Limit:        100,
		Now:          func() time.Time { return now },
	}

	s, err := l.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.Orders, 2)
	assert.Len(t, s.Catalog, 1)
	assert.Len(t, s.Categories, 1)
	assert.Len(t, s.Waiters, 1)
	assert.True(t, now.AddDate(0, 0, -30).Equal(src.got.Since))
	assert.Equal(t, 100, src.got.Limit)
}

func TestLoader_SnapshotNoLookback(t *testing.T) {
	src := &fakeSource{}
	l := &Loader{Orders: src, Directory: fakeDirectory{}}

	_, err := l.Fetcher()(context.Background())
	require.NoError(t, err)
	assert.True(t, src.got.Since.IsZero())
}

func TestLoader_SnapshotErrors(t *testing.T) {
	boom := errors.New("connection refused")

	_, err := (&Loader{Orders: &fakeSource{err: boom}, Directory: fakeDirectory{}}).Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.ErrorIs(t, err, boom)

	_, err = (&Loader{Orders: &fakeSource{}, Directory: fakeDirectory{err: boom}}).Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestRecordFromRow(t *testing.T) {
	created := time.Date(2024, time.May, 15, 9, 0, 0, 0, time.UTC)
	paid := created.Add(time.Hour)
	waiter := "3"

	row := models.Order{
		ID:        "ord1",
		OrderType: "table",
		Status:    "paid",
		Total:     decimal.NewFromInt(50000),
		WaiterID:  &waiter,
		CreatedAt: created,
		PaidAt:    &paid,
		Payload:   datatypes.JSON(`{"orderType":"delivery","createdAt":{"_seconds":1715763600,"_nanoseconds":0},"items":[{"name":"Osh","price":20000,"quantity":2}]}`),
	}
	rec := RecordFromRow(row)

	// payload wins over columns
	assert.Equal(t, "delivery", rec["orderType"])
	assert.IsType(t, map[string]any{}, rec["createdAt"])
	// columns fill the rest
	assert.Equal(t, "ord1", rec["id"])
	assert.Equal(t, "paid", rec["status"])
	assert.Equal(t, 50000.0, rec["total"])
	assert.Equal(t, "3", rec["waiterId"])
	assert.Equal(t, paid, rec["paidAt"])
	assert.NotContains(t, rec, "customerName")
	assert.Len(t, rec["items"], 1)
}

func TestRecordFromRow_BadPayload(t *testing.T) {
	rec := RecordFromRow(models.Order{ID: "ord2", Status: "pending", Payload: datatypes.JSON(`[1,2,3]`)})
	assert.Equal(t, "ord2", rec["id"])
	assert.Equal(t, "pending", rec["status"])
}

func TestConvertDocument(t *testing.T) {
	oid := primitive.NewObjectID()
	created := primitive.NewDateTimeFromTime(time.Date(2024, time.May, 15, 9, 0, 0, 0, time.UTC))
	total, err := primitive.ParseDecimal128("45000.50")
	require.NoError(t, err)

	rec := convertDocument(bson.M{
		"_id":       oid,
		"createdAt": created,
		"paidAt":    primitive.Timestamp{T: 1715763600},
		"total":     total,
		"note":      primitive.Null{},
		"items": bson.A{
			bson.D{{Key: "name", Value: "Osh"}, {Key: "quantity", Value: int32(2)}},
		},
	})

	assert.Equal(t, oid.Hex(), rec["_id"])
	assert.Equal(t, created, rec["createdAt"])
	assert.Equal(t, map[string]any{"seconds": int64(1715763600)}, rec["paidAt"])
	assert.Equal(t, 45000.5, rec["total"])
	assert.Nil(t, rec["note"])
	items, ok := rec["items"].([]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"name": "Osh", "quantity": int32(2)}, items[0])

	// the normalizer reads every converted shape
	n := analytics.Normalizer{Now: time.Now}
	o := n.Normalize(rec)
	assert.True(t, created.Time().Equal(o.CreatedAt))
	assert.Equal(t, 2, o.ItemCount())
}

func TestMongoFilter(t *testing.T) {
	assert.Empty(t, mongoFilter(Query{}))

	f := mongoFilter(Query{Since: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)})
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	assert.Len(t, or, 3)
}

func TestFindOptions_NewestFirst(t *testing.T) {
	opts := findOptions(Query{Limit: 100})
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, opts.Sort)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(100), *opts.Limit)

	assert.Nil(t, findOptions(Query{}).Limit)
}

func TestPostgresSource_NewestFirst(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost dbname=restoran"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	q := Query{Since: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), Limit: 100}
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []models.Order
		return PostgresSource{DB: tx}.ordersQuery(context.Background(), q).Find(&rows)
	})
	assert.Contains(t, sql, "ORDER BY created_at DESC")
	assert.Contains(t, sql, "LIMIT 100")
}
