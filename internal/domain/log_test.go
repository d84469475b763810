package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleLog() []LogEntry {
	return []LogEntry{
		{Description: "feb", Duration: 10, Date: day("2024-02-01")},
		{Description: "jan", Duration: 20, Date: day("2024-01-01")},
		{Description: "mar", Duration: 30, Date: day("2024-03-01").Add(15 * time.Hour)},
		{Description: "jan-late", Duration: 40, Date: day("2024-01-20")},
	}
}

func descriptions(entries []LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Description
	}
	return out
}

func TestApplyWithoutFilterKeepsAppendOrder(t *testing.T) {
	got := LogFilter{}.Apply(sampleLog())
	require.Equal(t, []string{"feb", "jan", "mar", "jan-late"}, descriptions(got))
}

func TestApplyBoundsAreInclusive(t *testing.T) {
	from, to := day("2024-01-20"), day("2024-03-01")
	got := LogFilter{From: &from, To: &to}.Apply(sampleLog())
	require.Equal(t, []string{"feb", "mar", "jan-late"}, descriptions(got))
}

func TestApplyLimitTakesFromStartAfterFiltering(t *testing.T) {
	from := day("2024-01-15")
	got := LogFilter{From: &from, Limit: 2}.Apply(sampleLog())
	require.Equal(t, []string{"feb", "mar"}, descriptions(got))

	got = LogFilter{Limit: 10}.Apply(sampleLog())
	require.Len(t, got, 4)
}

func TestApplyDoesNotAliasInput(t *testing.T) {
	log := sampleLog()
	got := LogFilter{}.Apply(log)
	got[0].Description = "changed"
	require.Equal(t, "feb", log[0].Description)
}

func TestUserAppendRecomputesCount(t *testing.T) {
	u := &User{ID: "u1", Username: "alice", LogCount: 7}
	u.Append(LogEntry{Description: "run", Duration: 30, Date: day("2024-01-01")})
	require.Equal(t, 1, u.LogCount)
	u.Append(LogEntry{Description: "swim", Duration: 45, Date: day("2024-02-01")})
	require.Equal(t, len(u.Log), u.LogCount)
}

func TestParseDuration(t *testing.T) {
	n, err := ParseDuration(" 45 ")
	require.NoError(t, err)
	require.Equal(t, 45, n)

	for _, raw := range []string{"", "-5", "0", "abc", "1.5"} {
		_, err := ParseDuration(raw)
		require.ErrorIs(t, err, ErrValidation, raw)
	}
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2024-02-01")
	require.True(t, ok)
	require.True(t, got.Equal(day("2024-02-01")))

	got, ok = ParseDate("2024-02-01T10:30:00+02:00")
	require.True(t, ok)
	require.Equal(t, time.UTC, got.Location())
	require.Equal(t, 8, got.Hour())

	_, ok = ParseDate("not a date")
	require.False(t, ok)
	_, ok = ParseDate("")
	require.False(t, ok)
}

func TestParseLogFilter(t *testing.T) {
	f, err := ParseLogFilter("", "", "")
	require.NoError(t, err)
	require.Nil(t, f.From)
	require.Nil(t, f.To)
	require.Zero(t, f.Limit)

	f, err = ParseLogFilter("2024-01-01", "2024-12-31", "3")
	require.NoError(t, err)
	require.True(t, f.From.Equal(day("2024-01-01")))
	require.True(t, f.To.Equal(day("2024-12-31")))
	require.Equal(t, 3, f.Limit)

	_, err = ParseLogFilter("yesterday", "", "")
	require.ErrorIs(t, err, ErrValidation)
	_, err = ParseLogFilter("", "", "0")
	require.ErrorIs(t, err, ErrValidation)
	_, err = ParseLogFilter("", "2024-13-40", "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestApplyWithoutToKeepsFutureDatedEntries(t *testing.T) {
	u := &User{ID: "u1", Username: "alice"}
	u.Append(LogEntry{Description: "past", Duration: 10, Date: day("2024-01-01")})
	u.Append(LogEntry{Description: "planned", Duration: 20, Date: Day(time.Now()).AddDate(1, 0, 0)})

	from := day("2023-12-31")
	got := LogFilter{From: &from}.Apply(u.Log)
	require.Equal(t, []string{"past", "planned"}, descriptions(got))
	require.Len(t, LogFilter{}.Apply(u.Log), u.LogCount)
}
