package accrual

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok, "invalid big.Int literal %q", s)
	return v
}

func TestGrowthFactor(t *testing.T) {
	tests := []struct {
		name    string
		rate    *big.Int
		elapsed int64
		want    *big.Int
	}{
		{
			name:    "zero rate yields no growth",
			rate:    big.NewInt(0),
			elapsed: 1000,
			want:    Precision,
		},
		{
			name:    "zero elapsed yields no growth",
			rate:    big.NewInt(5e10),
			elapsed: 0,
			want:    Precision,
		},
		{
			name:    "linear growth over elapsed seconds",
			rate:    big.NewInt(5e10),
			elapsed: 100,
			want:    new(big.Int).Add(new(big.Int).Set(Precision), big.NewInt(5e12)),
		},
		{
			name:    "one year at a per-second rate",
			rate:    big.NewInt(1e9),
			elapsed: 365 * 24 * 3600,
			want:    new(big.Int).Add(new(big.Int).Set(Precision), big.NewInt(31536000*1e9)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GrowthFactor(tt.rate, tt.elapsed)
			require.NoError(t, err)
			assert.Zero(t, got.Cmp(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestGrowthFactor_IsLinearNotCompounding(t *testing.T) {
	rate := big.NewInt(5e10)

	whole, err := GrowthFactor(rate, 200)
	require.NoError(t, err)

	// Two consecutive 100s windows applied multiplicatively would exceed the
	// single 200s factor; linear accrual makes the split additive instead
	half, err := GrowthFactor(rate, 100)
	require.NoError(t, err)
	halfGrowth := new(big.Int).Sub(half, Precision)
	sum := new(big.Int).Add(Precision, new(big.Int).Mul(halfGrowth, big.NewInt(2)))

	assert.Zero(t, whole.Cmp(sum))
}

func TestGrowthFactor_Errors(t *testing.T) {
	t.Run("negative rate", func(t *testing.T) {
		_, err := GrowthFactor(big.NewInt(-1), 10)
		require.Error(t, err)
	})

	t.Run("nil rate", func(t *testing.T) {
		_, err := GrowthFactor(nil, 10)
		require.Error(t, err)
	})

	t.Run("factor overflow", func(t *testing.T) {
		huge := new(big.Int).Lsh(big.NewInt(1), 250)
		_, err := GrowthFactor(huge, 1<<40)
		require.ErrorIs(t, err, ErrOverflow)
	})
}

func TestDisplayedBalance(t *testing.T) {
	tokens1000 := mustBig(t, "1000000000000000000000")

	tests := []struct {
		name      string
		principal *big.Int
		rate      *big.Int
		elapsed   int64
		want      *big.Int
	}{
		{
			name:      "zero principal stays zero at any rate",
			principal: big.NewInt(0),
			rate:      big.NewInt(5e10),
			elapsed:   1000000,
			want:      big.NewInt(0),
		},
		{
			name:      "no elapsed time returns the principal",
			principal: tokens1000,
			rate:      big.NewInt(5e10),
			elapsed:   0,
			want:      tokens1000,
		},
		{
			name:      "1000 tokens at 5e10 for 100s",
			principal: tokens1000,
			rate:      big.NewInt(5e10),
			elapsed:   100,
			want:      mustBig(t, "1000005000000000000000"),
		},
		{
			name:      "sub-precision interest floors to principal",
			principal: big.NewInt(1),
			rate:      big.NewInt(1),
			elapsed:   1,
			want:      big.NewInt(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DisplayedBalance(tt.principal, tt.rate, tt.elapsed)
			require.NoError(t, err)
			assert.Zero(t, got.Cmp(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestDisplayedBalance_FlooringNeverCreatesValue(t *testing.T) {
	principal := big.NewInt(3)
	rate := big.NewInt(333333333333333333) // just under Precision/3 per second

	displayed, err := DisplayedBalance(principal, rate, 1)
	require.NoError(t, err)

	// 3 * (1e18 + 0.333...e18) / 1e18 floors to 3, not 4
	assert.Zero(t, displayed.Cmp(big.NewInt(3)))
}

func TestDisplayedBalance_Overflow(t *testing.T) {
	nearMax := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	_, err := DisplayedBalance(nearMax, big.NewInt(1e18), 1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestCheckRange(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	assert.NoError(t, CheckRange(max))
	assert.ErrorIs(t, CheckRange(new(big.Int).Add(max, big.NewInt(1))), ErrOverflow)
}

func TestElapsed(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(0), Elapsed(base, base))
	assert.Equal(t, int64(90), Elapsed(base, base.Add(90*time.Second)))

	// Sub-second progress does not count as an elapsed second
	assert.Equal(t, int64(0), Elapsed(base, base.Add(900*time.Millisecond)))

	// A clock reading behind the stored timestamp clamps to zero
	assert.Equal(t, int64(0), Elapsed(base, base.Add(-time.Minute)))
}
