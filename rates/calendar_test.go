package rates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewSortsObservations(t *testing.T) {
	t.Parallel()

	cal, err := New([]Observation{
		{Date: day(2020, 1, 15), Rate: 0.02},
		{Date: day(2020, 1, 1), Rate: 0.01},
		{Date: day(2020, 1, 8), Rate: 0.015},
	})
	require.NoError(t, err)

	require.Equal(t, 3, cal.Len())
	assert.Equal(t, day(2020, 1, 1), cal.First().Date)
	assert.Equal(t, day(2020, 1, 15), cal.Last().Date)
	assert.Equal(t, []time.Time{day(2020, 1, 1), day(2020, 1, 8), day(2020, 1, 15)}, cal.Dates())
	assert.Equal(t, 1, cal.Index(day(2020, 1, 8)))
	assert.Equal(t, -1, cal.Index(day(2020, 1, 9)))
}

func TestNewRejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := New([]Observation{
		{Date: day(2020, 1, 1), Rate: 0.01},
		{Date: day(2020, 1, 1), Rate: 0.02},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2020-01-01")
}
