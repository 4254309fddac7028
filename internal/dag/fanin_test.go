package dag

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordWork returns a work function producing a fixed record.
func recordWork(rec map[string]any) Work {
	return func(ctx context.Context, input any) (any, error) {
		return rec, nil
	}
}

func TestFanInFiresExactlyOnce(t *testing.T) {
	ctx := context.Background()

	p1 := NewVertex(passthrough, WithName("p1"))
	p2 := NewVertex(passthrough, WithName("p2"))
	p3 := NewVertex(passthrough, WithName("p3"))

	var fired atomic.Int32
	child := NewVertex(func(ctx context.Context, input any) (any, error) {
		fired.Add(1)
		return input, nil
	}, WithName("child"))

	require.NoError(t, p1.AddChild(child))
	require.NoError(t, p2.AddChild(child))
	require.NoError(t, p3.AddChild(child))

	require.NoError(t, child.UpdateParentStatus(ctx, p1.ID(), 1))
	assert.Equal(t, int32(0), fired.Load())
	assert.Equal(t, StateAwaiting, child.State())

	// A duplicate report from the same parent must not advance readiness.
	require.NoError(t, child.UpdateParentStatus(ctx, p1.ID(), 1))
	assert.Equal(t, int32(0), fired.Load())

	require.NoError(t, child.UpdateParentStatus(ctx, p2.ID(), 2))
	assert.Equal(t, int32(0), fired.Load())

	require.NoError(t, child.UpdateParentStatus(ctx, p3.ID(), 3))
	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, StateDone, child.State())

	// Reports after firing are ignored for the wave.
	require.NoError(t, child.UpdateParentStatus(ctx, p2.ID(), 99))
	assert.Equal(t, int32(1), fired.Load())
}

func TestFanInUnknownParent(t *testing.T) {
	ctx := context.Background()

	parent := NewVertex(passthrough, WithName("parent"))
	child := NewVertex(passthrough, WithName("child"))
	require.NoError(t, parent.AddChild(child))

	stranger := NewVertex(passthrough, WithName("stranger"))
	err := child.UpdateParentStatus(ctx, stranger.ID(), "x")
	require.ErrorIs(t, err, ErrUnknownParent)
	assert.Equal(t, StateIdle, child.State())
}

func TestSingleParentPassthrough(t *testing.T) {
	ctx := context.Background()

	parent := NewVertex(recordWork(map[string]any{"x": 1}), WithName("parent"))

	var got any
	child := NewVertex(func(ctx context.Context, input any) (any, error) {
		got = input
		return nil, nil
	}, WithName("child"))
	require.NoError(t, parent.AddChild(child))

	_, err := parent.Execute(ctx, nil)
	require.NoError(t, err)

	// No wrapping, no extra keys: the parent's result arrives unchanged.
	want := map[string]any{"x": 1}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestMultiParentRecordUnion(t *testing.T) {
	ctx := context.Background()

	p1 := NewVertex(passthrough, WithName("p1"))
	p2 := NewVertex(passthrough, WithName("p2"))

	var got any
	child := NewVertex(func(ctx context.Context, input any) (any, error) {
		got = input
		return nil, nil
	}, WithName("child"))
	require.NoError(t, p1.AddChild(child))
	require.NoError(t, p2.AddChild(child))

	require.NoError(t, child.UpdateParentStatus(ctx, p1.ID(), map[string]any{"a": 1, "shared": "first"}))
	require.NoError(t, child.UpdateParentStatus(ctx, p2.ID(), map[string]any{"b": 2, "shared": "second"}))

	// Shallow union in arrival order; the later-arriving parent wins the
	// collided key.
	want := map[string]any{"a": 1, "b": 2, "shared": "second"}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestMultiParentMixedTypesFallBackToSlice(t *testing.T) {
	ctx := context.Background()

	p1 := NewVertex(passthrough, WithName("p1"))
	p2 := NewVertex(passthrough, WithName("p2"))

	var got any
	child := NewVertex(func(ctx context.Context, input any) (any, error) {
		got = input
		return nil, nil
	}, WithName("child"))
	require.NoError(t, p1.AddChild(child))
	require.NoError(t, p2.AddChild(child))

	require.NoError(t, child.UpdateParentStatus(ctx, p1.ID(), map[string]any{"a": 1}))
	require.NoError(t, child.UpdateParentStatus(ctx, p2.ID(), "not a record"))

	// Not all results are records: raw values in arrival order.
	want := []any{map[string]any{"a": 1}, "not a record"}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestCustomMerger(t *testing.T) {
	ctx := context.Background()

	p1 := NewVertex(passthrough, WithName("p1"))
	p2 := NewVertex(passthrough, WithName("p2"))

	var got any
	child := NewVertex(func(ctx context.Context, input any) (any, error) {
		got = input
		return nil, nil
	}, WithName("child"), WithMerger(func(results []ParentResult) any {
		sum := 0
		for _, r := range results {
			sum += r.Value.(int)
		}
		return sum
	}))
	require.NoError(t, p1.AddChild(child))
	require.NoError(t, p2.AddChild(child))

	require.NoError(t, child.UpdateParentStatus(ctx, p1.ID(), 4))
	require.NoError(t, child.UpdateParentStatus(ctx, p2.ID(), 38))
	assert.Equal(t, 42, got)
}

func TestConcurrentParentsFireChildOnce(t *testing.T) {
	ctx := context.Background()

	var fired atomic.Int32
	child := NewVertex(func(ctx context.Context, input any) (any, error) {
		fired.Add(1)
		return input, nil
	}, WithName("child"))

	parents := make([]*Vertex, 4)
	for i := range parents {
		parents[i] = NewVertex(recordWork(map[string]any{"k": i}))
		require.NoError(t, parents[i].AddChild(child))
	}

	var wg sync.WaitGroup
	for _, p := range parents {
		wg.Add(1)
		go func(p *Vertex) {
			defer wg.Done()
			_, err := p.Execute(ctx, nil)
			assert.NoError(t, err)
		}(p)
	}
	wg.Wait()

	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, StateDone, child.State())
}

func TestMergeResults(t *testing.T) {
	a, b := ID("a"), ID("b")

	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, mergeResults(nil))
	})

	t.Run("single value unchanged", func(t *testing.T) {
		assert.Equal(t, 7, mergeResults([]ParentResult{{Parent: a, Value: 7}}))
	})

	t.Run("arrival order decides collisions", func(t *testing.T) {
		first := []ParentResult{
			{Parent: a, Value: map[string]any{"k": "a"}},
			{Parent: b, Value: map[string]any{"k": "b"}},
		}
		assert.Equal(t, map[string]any{"k": "b"}, mergeResults(first))

		reversed := []ParentResult{first[1], first[0]}
		assert.Equal(t, map[string]any{"k": "a"}, mergeResults(reversed))
	})
}
