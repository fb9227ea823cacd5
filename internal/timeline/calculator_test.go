package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/snapback/internal/cuepoint"
)

// Two breaks: 10s at 10-20 and 15s at 50-65
func createTestCuepoints() []cuepoint.Cuepoint {
	return []cuepoint.Cuepoint{
		{StartTime: 10, EndTime: 20},
		{StartTime: 50, EndTime: 65},
	}
}

func TestLocate_NegativeTime(t *testing.T) {
	_, err := Locate(-1, createTestCuepoints())
	assert.ErrorIs(t, err, ErrNegativeTime)
}

func TestLocate_NoCuepoints(t *testing.T) {
	pos, err := Locate(42, nil)

	require.NoError(t, err)
	assert.Equal(t, 42.0, pos.ContentTime)
	assert.False(t, pos.InBreak)
	assert.Equal(t, 0, pos.BreaksBefore)
}

func TestLocate_Positions(t *testing.T) {
	testCases := []struct {
		name         string
		streamTime   float64
		contentTime  float64
		inBreak      bool
		breaksBefore int
	}{
		{"Start", 0, 0, false, 0},
		{"Before first break", 5, 5, false, 0},
		{"At first break start", 10, 10, false, 0},
		{"Inside first break", 15, 10, true, 0},
		{"At first break end", 20, 10, false, 1},
		{"Between breaks", 30, 20, false, 1},
		{"At second break start", 50, 40, false, 1},
		{"Inside second break", 60, 40, true, 1},
		{"After both breaks", 100, 75, false, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := Locate(tc.streamTime, createTestCuepoints())

			require.NoError(t, err)
			assert.InDelta(t, tc.contentTime, pos.ContentTime, 1e-9)
			assert.Equal(t, tc.inBreak, pos.InBreak)
			assert.Equal(t, tc.breaksBefore, pos.BreaksBefore)
		})
	}
}

func TestLocate_AtBreakStartIsNotInBreakUntilItBegins(t *testing.T) {
	// a break starting exactly at the playhead has not been entered yet
	pos, err := Locate(10, createTestCuepoints())

	require.NoError(t, err)
	assert.Equal(t, 0.0, pos.AdSecondsBefore)
}

func TestStreamTimeForContentTime(t *testing.T) {
	testCases := []struct {
		name        string
		contentTime float64
		streamTime  float64
	}{
		{"Start", 0, 0},
		{"Before first break", 5, 5},
		{"At first break start plays the break", 10, 10},
		{"Just after first break start", 11, 21},
		{"Between breaks", 20, 30},
		{"At second break start", 40, 50},
		{"After both breaks", 75, 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := StreamTimeForContentTime(tc.contentTime, createTestCuepoints())

			require.NoError(t, err)
			assert.InDelta(t, tc.streamTime, got, 1e-9)
		})
	}
}

func TestStreamTimeForContentTime_NegativeTime(t *testing.T) {
	_, err := StreamTimeForContentTime(-0.5, createTestCuepoints())
	assert.ErrorIs(t, err, ErrNegativeTime)
}

func TestContentStreamRoundTrip(t *testing.T) {
	cuepoints := createTestCuepoints()

	for content := 0.0; content < 200; content += 2.5 {
		stream, err := StreamTimeForContentTime(content, cuepoints)
		require.NoError(t, err)

		back, err := ContentTimeForStreamTime(stream, cuepoints)
		require.NoError(t, err)

		assert.InDelta(t, content, back, 1e-9, "content time %v", content)
	}
}

func BenchmarkLocate_1000Cuepoints(b *testing.B) {
	cuepoints := make([]cuepoint.Cuepoint, 1000)
	for i := range cuepoints {
		start := float64(i * 600)
		cuepoints[i] = cuepoint.Cuepoint{StartTime: start, EndTime: start + 30}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Locate(599_999, cuepoints)
	}
}
