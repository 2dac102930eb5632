package models

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_Resolve(t *testing.T) {
	available := big.NewInt(1000)

	t.Run("exact resolves to its value", func(t *testing.T) {
		resolved, err := Exact(big.NewInt(40)).Resolve(available)
		require.NoError(t, err)
		assert.Zero(t, resolved.Cmp(big.NewInt(40)))
	})

	t.Run("all resolves to the full balance", func(t *testing.T) {
		resolved, err := All().Resolve(available)
		require.NoError(t, err)
		assert.Zero(t, resolved.Cmp(available))

		// A copy, not the caller's balance itself
		resolved.Add(resolved, big.NewInt(1))
		assert.Zero(t, available.Cmp(big.NewInt(1000)))
	})

	t.Run("all on an empty balance is zero", func(t *testing.T) {
		resolved, err := All().Resolve(new(big.Int))
		require.NoError(t, err)
		assert.Zero(t, resolved.Sign())
	})

	t.Run("exact must be positive", func(t *testing.T) {
		_, err := Exact(big.NewInt(0)).Resolve(available)
		require.Error(t, err)

		_, err = Exact(big.NewInt(-5)).Resolve(available)
		require.Error(t, err)

		_, err = Exact(nil).Resolve(available)
		require.Error(t, err)
	})
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "all", All().String())
	assert.Equal(t, "75", Exact(big.NewInt(75)).String())
}
