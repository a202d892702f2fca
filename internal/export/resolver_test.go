package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectSubtree(t *testing.T) {
	children := map[int64][]int64{
		1: {2, 5},
		2: {3, 4},
		5: {6},
	}

	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, collectSubtree(1, children))
	assert.Equal(t, []int64{2, 3, 4}, collectSubtree(2, children))
	assert.Equal(t, []int64{4}, collectSubtree(4, children))
	assert.Equal(t, []int64{99}, collectSubtree(99, children))
}
