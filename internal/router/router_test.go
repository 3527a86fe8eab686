package router

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeShard struct{ size int }

func (f *fakeShard) UncommittedSize() int { return f.size }

func TestRouteChoosesSmallestShard(t *testing.T) {
	shards := []Shard{&fakeShard{size: 10}, &fakeShard{size: 2}, &fakeShard{size: 7}}
	r := New(shards)
	require.Equal(t, 1, r.Route())
}

func TestRouteTiesBreakToLowestIndex(t *testing.T) {
	shards := []Shard{&fakeShard{size: 5}, &fakeShard{size: 5}}
	r := New(shards)
	require.Equal(t, 0, r.Route())
}

func TestDefaultShardCountPositive(t *testing.T) {
	require.Greater(t, DefaultShardCount(), 0)
}
