package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tr(start, end int) TimeRange { return TimeRange{Start: start, End: end} }

func TestMergeRanges(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, mergeRanges(nil))
		assert.Empty(t, mergeRanges([]TimeRange{}))
	})

	t.Run("coalesces overlapping and touching", func(t *testing.T) {
		got := mergeRanges([]TimeRange{tr(540, 660), tr(630, 720), tr(840, 900)})
		assert.Equal(t, []TimeRange{tr(540, 720), tr(840, 900)}, got)

		// touching counts as overlapping
		got = mergeRanges([]TimeRange{tr(540, 600), tr(600, 660)})
		assert.Equal(t, []TimeRange{tr(540, 660)}, got)
	})

	t.Run("sorts unordered input", func(t *testing.T) {
		got := mergeRanges([]TimeRange{tr(840, 900), tr(540, 600)})
		assert.Equal(t, []TimeRange{tr(540, 600), tr(840, 900)}, got)
	})

	t.Run("idempotent", func(t *testing.T) {
		in := []TimeRange{tr(540, 660), tr(600, 720), tr(60, 120)}
		once := mergeRanges(in)
		assert.Equal(t, once, mergeRanges(once))
	})

	t.Run("output sorted and pairwise disjoint", func(t *testing.T) {
		inputs := [][]TimeRange{
			{tr(0, 10), tr(5, 15), tr(20, 30), tr(29, 31), tr(2, 3)},
			{tr(100, 200), tr(150, 160), tr(90, 101)},
			{tr(0, 1440)},
		}
		for _, in := range inputs {
			out := mergeRanges(in)
			for i := 1; i < len(out); i++ {
				assert.Greater(t, out[i].Start, out[i-1].End)
			}
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []TimeRange{tr(840, 900), tr(540, 600)}
		mergeRanges(in)
		assert.Equal(t, []TimeRange{tr(840, 900), tr(540, 600)}, in)
	})
}

func TestSubtractRanges(t *testing.T) {
	t.Run("no busy returns available unchanged", func(t *testing.T) {
		avail := []TimeRange{tr(540, 720)}
		assert.Equal(t, avail, subtractRanges(avail, nil))
	})

	t.Run("no availability yields nothing", func(t *testing.T) {
		assert.Empty(t, subtractRanges(nil, []TimeRange{tr(540, 600)}))
	})

	t.Run("carves holes", func(t *testing.T) {
		avail := []TimeRange{tr(540, 900)} // 09:00-15:00
		busy := []TimeRange{tr(600, 660), tr(780, 840)}
		got := subtractRanges(avail, busy)
		assert.Equal(t, []TimeRange{tr(540, 600), tr(660, 780), tr(840, 900)}, got)
	})

	t.Run("busy outside availability is skipped", func(t *testing.T) {
		avail := []TimeRange{tr(540, 720)}
		busy := []TimeRange{tr(0, 60), tr(900, 960)}
		assert.Equal(t, avail, subtractRanges(avail, busy))
	})

	t.Run("busy covering the whole range leaves nothing", func(t *testing.T) {
		got := subtractRanges([]TimeRange{tr(540, 720)}, []TimeRange{tr(500, 800)})
		assert.Empty(t, got)
	})

	t.Run("overlapping busy ranges merged before subtraction", func(t *testing.T) {
		avail := []TimeRange{tr(540, 900)}
		busy := []TimeRange{tr(600, 700), tr(650, 720)}
		got := subtractRanges(avail, busy)
		assert.Equal(t, []TimeRange{tr(540, 600), tr(720, 900)}, got)
	})

	t.Run("never emits degenerate ranges", func(t *testing.T) {
		cases := [][2][]TimeRange{
			{{tr(540, 720)}, {tr(540, 720)}},
			{{tr(540, 720)}, {tr(540, 600), tr(600, 720)}},
			{{tr(0, 100), tr(100, 200)}, {tr(50, 150)}},
		}
		for _, cse := range cases {
			for _, r := range subtractRanges(cse[0], cse[1]) {
				assert.Less(t, r.Start, r.End)
			}
		}
	})
}

func TestEnumerateStarts(t *testing.T) {
	t.Run("empty or non-positive duration", func(t *testing.T) {
		assert.Empty(t, enumerateStarts(nil, 60, 30))
		assert.Empty(t, enumerateStarts([]TimeRange{tr(540, 720)}, 0, 30))
		assert.Empty(t, enumerateStarts([]TimeRange{tr(540, 720)}, -10, 30))
	})

	t.Run("session may end exactly at range end", func(t *testing.T) {
		got := enumerateStarts([]TimeRange{tr(540, 660)}, 60, 30)
		assert.Equal(t, []int{540, 570, 600}, got) // 10:00 start ends at 11:00 == range end
	})

	t.Run("range shorter than duration yields nothing", func(t *testing.T) {
		assert.Empty(t, enumerateStarts([]TimeRange{tr(540, 580)}, 60, 30))
	})

	t.Run("no start exceeds its range", func(t *testing.T) {
		free := []TimeRange{tr(540, 725), tr(840, 1000)}
		for _, s := range enumerateStarts(free, 50, 30) {
			ok := false
			for _, r := range free {
				if s >= r.Start && s+50 <= r.End {
					ok = true
				}
			}
			assert.True(t, ok, "start %d escapes its free range", s)
		}
	})
}

func TestParseHHMM(t *testing.T) {
	m, err := parseHHMM("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, m)

	// trailing seconds are truncated
	m, err = parseHHMM("14:05:00")
	require.NoError(t, err)
	assert.Equal(t, 845, m)

	for _, bad := range []string{"", "9:3", "25:00", "ab:cd"} {
		_, err := parseHHMM(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "00:00", formatMinutes(0))
	assert.Equal(t, "09:05", formatMinutes(545))
	assert.Equal(t, "23:59", formatMinutes(1439))
}
