package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordersIncrementCounters(t *testing.T) {
	before := testutil.ToFloat64(entriesAppended)
	RecordEntryAppended()
	RecordEntryAppended()
	require.Equal(t, before+2, testutil.ToFloat64(entriesAppended))

	beforeUsers := testutil.ToFloat64(usersCreated)
	RecordUserCreated()
	require.Equal(t, beforeUsers+1, testutil.ToFloat64(usersCreated))
}

func TestRecordEventPublishedSplitsOutcome(t *testing.T) {
	ok := eventsPublished.WithLabelValues("exercise.logged", "ok")
	failed := eventsPublished.WithLabelValues("exercise.logged", "error")
	okBefore := testutil.ToFloat64(ok)
	failedBefore := testutil.ToFloat64(failed)

	RecordEventPublished("exercise.logged", nil)
	RecordEventPublished("exercise.logged", errors.New("broker down"))

	require.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	require.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}
