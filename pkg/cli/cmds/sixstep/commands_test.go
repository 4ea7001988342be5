package sixstep

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseInterval(t *testing.T) {
	testCases := []struct {
		in     string
		expect uint32
		fail   bool
	}{
		{in: "1000", expect: 1000},
		{in: "500us", expect: 500},
		{in: "2ms", expect: 2000},
		{in: "10ns", fail: true},
		{in: "fast", fail: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			us, err := ParseInterval(tc.in)
			if tc.fail {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, us)
		})
	}
}
