package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMajor(t *testing.T) {
	tests := []struct {
		name    string
		major   float64
		want    Amount
		wantErr error
	}{
		{"whole units", 100.00, 10000, nil},
		{"fractional", 30.50, 3050, nil},
		{"zero", 0, 0, nil},
		{"rounds up", 0.005, 1, nil},
		{"rounds down", 0.004, 0, nil},
		{"one cent", 0.01, 1, nil},
		{"negative", -1, 0, ErrInvalidAmount},
		{"nan", math.NaN(), 0, ErrInvalidAmount},
		{"positive inf", math.Inf(1), 0, ErrInvalidAmount},
		{"negative inf", math.Inf(-1), 0, ErrInvalidAmount},
		{"too large", math.MaxFloat64, 0, ErrAmountTooLarge},
		{"just past max", float64(math.MaxInt64), 0, ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromMajor(tt.major)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMajor(t *testing.T) {
	major, err := ToMajor(10000)
	require.NoError(t, err)
	assert.Equal(t, 100.00, major)

	_, err = ToMajor(-1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRoundTrip(t *testing.T) {
	// Any valid major-unit value with at most two decimal places survives
	// the conversion both ways within rounding tolerance.
	for _, major := range []float64{0, 0.01, 0.99, 1, 19.99, 100, 1234.56, 99999.99} {
		minor, err := FromMajor(major)
		require.NoError(t, err)

		back, err := ToMajor(minor)
		require.NoError(t, err)
		assert.InDelta(t, major, back, 0.005, "round trip for %v", major)
	}
}

func TestAdd(t *testing.T) {
	sum, err := Add(100, 250)
	require.NoError(t, err)
	assert.Equal(t, Amount(350), sum)

	_, err = Add(Max, 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Add(Max-1, 1)
	assert.NoError(t, err)

	_, err = Add(-1, 1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSubtract(t *testing.T) {
	diff, err := Subtract(350, 100)
	require.NoError(t, err)
	assert.Equal(t, Amount(250), diff)

	_, err = Subtract(100, 101)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	diff, err = Subtract(100, 100)
	require.NoError(t, err)
	assert.Equal(t, Amount(0), diff)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1234.56", Format(123456))
	assert.Equal(t, "0.00", Format(0))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, "100.00", Format(10000))
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Amount
		wantErr error
	}{
		{"1234.56", 123456, nil},
		{"1234,56", 123456, nil},
		{" 100.00 ", 10000, nil},
		{"0", 0, nil},
		{"not-a-number", 0, ErrInvalidFormat},
		{"", 0, ErrInvalidFormat},
		{"12.34.56", 0, ErrInvalidFormat},
		{"-5", 0, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
