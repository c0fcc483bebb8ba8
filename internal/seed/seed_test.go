package seed

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"restoran-analytics/internal/analytics"
	"restoran-analytics/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.May, 15, 14, 30, 0, 0, time.UTC)

func generate(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Generate(Options{Orders: 300, Days: 30, Waiters: 4, Seed: 42, Now: fixedNow})
	require.NoError(t, err)
	return ds
}

func TestGenerate_Shape(t *testing.T) {
	ds := generate(t)

	assert.Len(t, ds.Categories, len(demoMenu))
	assert.Len(t, ds.Waiters, 4)
	assert.Len(t, ds.Orders, 300)
	assert.Equal(t, "6 categories, 23 menu items, 4 waiters, 300 orders", ds.Summary())

	ids := map[string]bool{}
	for _, o := range ds.Orders {
		assert.False(t, ids[o.ID], "duplicate id %s", o.ID)
		ids[o.ID] = true

		assert.False(t, o.CreatedAt.After(fixedNow))
		assert.True(t, o.CreatedAt.After(fixedNow.AddDate(0, 0, -32)))
		if o.PaidAt != nil {
			assert.False(t, o.PaidAt.After(fixedNow))
			assert.Equal(t, string(analytics.StatusPaid), o.Status)
		}
		if o.WaiterID != nil {
			assert.Equal(t, string(analytics.OrderTypeTable), o.OrderType)
		}

		var payload map[string]any
		require.NoError(t, json.Unmarshal(o.Payload, &payload))
		assert.Equal(t, o.ID, payload["id"])
		assert.NotEmpty(t, payload["items"])
	}
}

func TestGenerate_MixesTimestampShapes(t *testing.T) {
	ds := generate(t)

	kinds := map[analytics.TimestampKind]int{}
	missing := 0
	for _, o := range ds.Orders {
		var payload map[string]any
		require.NoError(t, json.Unmarshal(o.Payload, &payload))
		v, ok := payload["createdAt"]
		if !ok {
			missing++
			continue
		}
		kinds[analytics.NewRawTimestamp(v).Kind]++
	}
	assert.Positive(t, kinds[analytics.TimestampString])
	assert.Positive(t, kinds[analytics.TimestampEpoch])
	assert.Positive(t, missing)
}

func TestDataset_SnapshotFeedsEngine(t *testing.T) {
	ds := generate(t)
	snap := ds.Snapshot()
	require.Len(t, snap.Orders, len(ds.Orders))

	want := decimal.Zero
	for _, o := range ds.Orders {
		want = want.Add(o.Total)
	}

	engine := analytics.NewEngine(nil, analytics.WithClock(func() time.Time { return fixedNow }))
	rep, err := engine.Compute(analytics.Params{Range: analytics.RangeParams{
		Granularity: analytics.GranularityCustom,
		Preset:      analytics.PresetSpecific,
		From:        fixedNow.AddDate(0, 0, -40),
		To:          fixedNow,
	}}, snap)
	require.NoError(t, err)

	assert.Equal(t, len(ds.Orders), rep.Headline.Orders)
	assert.True(t, want.Equal(rep.Headline.Revenue), "want %s got %s", want, rep.Headline.Revenue)

	var uncategorized int
	for _, c := range rep.TopCategories {
		if c.Name == analytics.OtherCategory {
			uncategorized++
		}
	}
	assert.Zero(t, uncategorized)
}

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(7, fixedNow, 10)
	b := NewGenerator(7, fixedNow, 10)
	_, items := a.Menu()

	for i := 0; i < 20; i++ {
		oa, err := a.Order(items, []string{"1", "2"})
		require.NoError(t, err)
		ob, err := b.Order(items, []string{"1", "2"})
		require.NoError(t, err)
		assert.Equal(t, oa.OrderType, ob.OrderType)
		assert.True(t, oa.Total.Equal(ob.Total))
		assert.True(t, oa.CreatedAt.Equal(ob.CreatedAt))
	}
}

func TestGenerate_Reproducible(t *testing.T) {
	a, b := generate(t), generate(t)

	assert.Equal(t, a.Snapshot(), b.Snapshot())
	require.Len(t, b.Orders, len(a.Orders))
	for i := range a.Orders {
		assert.Equal(t, a.Orders[i].ID, b.Orders[i].ID)
		assert.JSONEq(t, string(a.Orders[i].Payload), string(b.Orders[i].Payload))
	}
	assert.Equal(t, a.Waiters[0].Email, b.Waiters[0].Email)

	other, err := Generate(Options{Orders: 300, Days: 30, Waiters: 4, Seed: 43, Now: fixedNow})
	require.NoError(t, err)
	assert.NotEqual(t, a.Orders[0].ID, other.Orders[0].ID)
}

func TestGenerator_DatabaseIDsDiffer(t *testing.T) {
	ca, _ := NewGenerator(7, fixedNow, 10).Menu()
	cb, _ := NewGenerator(7, fixedNow, 10).Menu()
	assert.NotEqual(t, ca[0].ID, cb[0].ID)
	assert.Equal(t, ca[0].Name, cb[0].Name)
}

func TestGenerate_Progress(t *testing.T) {
	var buf bytes.Buffer
	_, err := Generate(Options{Orders: 10, Days: 5, Seed: 1, Now: fixedNow, Progress: &buf})
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}

func TestWaiters_PasswordHash(t *testing.T) {
	users, err := NewGenerator(1, fixedNow, 1).Waiters(2)
	require.NoError(t, err)
	for _, u := range users {
		assert.Equal(t, models.RoleWaiter, u.Role)
		assert.NotEqual(t, DefaultWaiterPassword, u.PasswordHash)
		assert.Contains(t, u.Email, "@restoran.local")
	}
}
