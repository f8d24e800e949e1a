package reporting_test

import (
	"testing"
	"time"

	"github.com/jihwankim/faultsched/pkg/logging"
	"github.com/jihwankim/faultsched/pkg/reporting"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Level: logging.LevelError, Format: logging.FormatText})
}

func TestStorage_SaveAndLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	st, err := reporting.NewStorage(dir, 0, newTestLogger())
	require.NoError(t, err)

	summary := &reporting.RunSummary{
		RunID:       "r1",
		SystemName:  "demo",
		FaultModule: "demo_faults",
		StartTime:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
		Duration:    "1m0s",
		Status:      reporting.StatusCompleted,
		Ticks:       60,
		EventsFired: 3,
		FaultCounts: map[string]int64{"kill": 2, "restart": 1},
	}

	path, err := st.Save(summary)
	require.NoError(t, err)

	loaded, err := st.Load(path)
	require.NoError(t, err)
	require.Equal(t, summary.RunID, loaded.RunID)
	require.Equal(t, int64(2), loaded.FaultCounts["kill"])
}

func TestStorage_ListOrdersNewestFirstAndPrunes(t *testing.T) {
	dir := t.TempDir()
	st, err := reporting.NewStorage(dir, 2, newTestLogger())
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := st.Save(&reporting.RunSummary{
			RunID:      string(rune('a' + i)),
			SystemName: "demo",
			StartTime:  base.Add(time.Duration(i) * time.Hour),
			Status:     reporting.StatusCompleted,
		})
		require.NoError(t, err)
	}

	summaries, err := st.List()
	require.NoError(t, err)
	require.Len(t, summaries, 2) // pruned down to keepLastN
	require.Equal(t, "c", summaries[0].RunID)
	require.Equal(t, "b", summaries[1].RunID)
}
