package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday afternoon.
var fixedNow = time.Date(2024, time.May, 15, 14, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveRange(t *testing.T) {
	tests := []struct {
		name      string
		params    RangeParams
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "today",
			params:    RangeParams{Granularity: GranularityToday},
			wantStart: day(2024, time.May, 15),
			wantEnd:   day(2024, time.May, 16).Add(-time.Millisecond),
		},
		{
			name:      "empty granularity means today",
			params:    RangeParams{},
			wantStart: day(2024, time.May, 15),
			wantEnd:   day(2024, time.May, 16).Add(-time.Millisecond),
		},
		{
			name:      "week",
			params:    RangeParams{Granularity: GranularityWeek},
			wantStart: day(2024, time.May, 9),
			wantEnd:   day(2024, time.May, 16).Add(-time.Millisecond),
		},
		{
			name:      "current month",
			params:    RangeParams{Granularity: GranularityMonth},
			wantStart: day(2024, time.May, 1),
			wantEnd:   day(2024, time.June, 1).Add(-time.Millisecond),
		},
		{
			name:      "leap february",
			params:    RangeParams{Granularity: GranularityMonth, Month: "2024-02"},
			wantStart: day(2024, time.February, 1),
			wantEnd:   day(2024, time.March, 1).Add(-time.Millisecond),
		},
		{
			name:      "year",
			params:    RangeParams{Granularity: GranularityYear},
			wantStart: day(2024, time.January, 1),
			wantEnd:   day(2025, time.January, 1).Add(-time.Millisecond),
		},
		{
			name:      "last 30 days",
			params:    RangeParams{Granularity: GranularityCustom, Preset: PresetLast30Days},
			wantStart: day(2024, time.April, 16),
			wantEnd:   day(2024, time.May, 16).Add(-time.Millisecond),
		},
		{
			name:      "custom without preset",
			params:    RangeParams{Granularity: GranularityCustom},
			wantStart: day(2024, time.May, 9),
			wantEnd:   day(2024, time.May, 16).Add(-time.Millisecond),
		},
		{
			name: "specific range is swapped when reversed",
			params: RangeParams{
				Granularity: GranularityCustom,
				Preset:      PresetSpecific,
				From:        time.Date(2024, time.March, 10, 18, 0, 0, 0, time.UTC),
				To:          time.Date(2024, time.March, 3, 9, 0, 0, 0, time.UTC),
			},
			wantStart: day(2024, time.March, 3),
			wantEnd:   day(2024, time.March, 11).Add(-time.Millisecond),
		},
		{
			name: "specific single day",
			params: RangeParams{
				Granularity: GranularityCustom,
				Preset:      PresetSpecific,
				From:        time.Date(2024, time.March, 10, 18, 0, 0, 0, time.UTC),
			},
			wantStart: day(2024, time.March, 10),
			wantEnd:   day(2024, time.March, 11).Add(-time.Millisecond),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ResolveRange(fixedNow, tt.params)
			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(r.Current.Start), "start %s", r.Current.Start)
			assert.True(t, tt.wantEnd.Equal(r.Current.End), "end %s", r.Current.End)

			// previous window: same length, ends right before the current one
			assert.Equal(t, r.Current.Length(), r.Previous.Length())
			assert.True(t, r.Previous.End.Add(time.Millisecond).Equal(r.Current.Start))
			assert.False(t, r.Previous.Contains(r.Current.Start))
			assert.False(t, r.Current.Contains(r.Previous.End))
		})
	}
}

func TestResolveRange_Previous(t *testing.T) {
	r, err := ResolveRange(fixedNow, RangeParams{Granularity: GranularityMonth, Month: "2024-02"})
	require.NoError(t, err)
	assert.True(t, day(2024, time.January, 3).Equal(r.Previous.Start), "previous start %s", r.Previous.Start)
	assert.True(t, day(2024, time.February, 1).Add(-time.Millisecond).Equal(r.Previous.End))

	r, err = ResolveRange(fixedNow, RangeParams{Granularity: GranularityToday})
	require.NoError(t, err)
	assert.True(t, day(2024, time.May, 14).Equal(r.Previous.Start))
}

func TestResolveRange_Errors(t *testing.T) {
	_, err := ResolveRange(fixedNow, RangeParams{Granularity: "fortnight"})
	assert.ErrorIs(t, err, ErrInvalidGranularity)

	_, err = ResolveRange(fixedNow, RangeParams{Granularity: GranularityMonth, Month: "May 2024"})
	assert.ErrorIs(t, err, ErrInvalidMonth)

	_, err = ResolveRange(fixedNow, RangeParams{Granularity: GranularityCustom, Preset: "last5years"})
	assert.ErrorIs(t, err, ErrInvalidPreset)

	_, err = ResolveRange(fixedNow, RangeParams{Granularity: GranularityCustom, Preset: PresetSpecific})
	assert.ErrorIs(t, err, ErrMissingCustomRange)
}

func TestBuckets(t *testing.T) {
	tests := []struct {
		params    RangeParams
		wantLen   int
		wantFirst string
		wantLast  string
	}{
		{RangeParams{Granularity: GranularityToday}, 24, "00:00", "23:00"},
		{RangeParams{Granularity: GranularityWeek}, 7, "2024-05-09", "2024-05-15"},
		{RangeParams{Granularity: GranularityMonth, Month: "2024-02"}, 29, "2024-02-01", "2024-02-29"},
		{RangeParams{Granularity: GranularityMonth, Month: "2023-04"}, 30, "2023-04-01", "2023-04-30"},
		{RangeParams{Granularity: GranularityYear}, 12, "2024-01", "2024-12"},
		{RangeParams{Granularity: GranularityCustom, Preset: PresetLast90Days}, 90, "2024-02-16", "2024-05-15"},
	}
	for _, tt := range tests {
		t.Run(string(tt.params.Granularity)+tt.params.Month, func(t *testing.T) {
			r, err := ResolveRange(fixedNow, tt.params)
			require.NoError(t, err)
			b := Buckets(r)
			require.Len(t, b, tt.wantLen)
			assert.Equal(t, tt.wantFirst, b[0].Label)
			assert.Equal(t, tt.wantLast, b[len(b)-1].Label)
		})
	}
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 29, daysIn(2024, time.February, time.UTC))
	assert.Equal(t, 28, daysIn(2023, time.February, time.UTC))
	assert.Equal(t, 31, daysIn(2024, time.December, time.UTC))
}

func TestTimeWindow_ContainsSubMillisecond(t *testing.T) {
	r, err := ResolveRange(fixedNow, RangeParams{Granularity: GranularityToday})
	require.NoError(t, err)

	edge := r.Current.End.Add(500 * time.Microsecond)
	assert.True(t, r.Current.Contains(edge))
	assert.False(t, r.Current.Contains(r.Current.End.Add(time.Millisecond)))
	assert.True(t, r.Previous.Contains(r.Previous.End.Add(999*time.Microsecond)))
	assert.False(t, r.Previous.Contains(r.Current.Start))
}
