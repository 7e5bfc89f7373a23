package dialect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentMapPreservesOrder(t *testing.T) {
	inputs := []int{5, 4, 3, 2, 1, 0}
	out, err := ConcurrentMap(inputs, 3, func(n int) (int, error) {
		return n * n, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{25, 16, 9, 4, 1, 0}, out)
}

func TestConcurrentMapPropagatesFirstError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ConcurrentMap([]int{1, 2, 3}, 0, func(n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestConcurrentMapEmptyInput(t *testing.T) {
	out, err := ConcurrentMap([]int{}, 4, func(n int) (int, error) {
		t.Fatal("f should never be called")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}
