package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/editgrid/internal/column"
	"github.com/roach88/editgrid/internal/grid"
)

func TestDeterministicClock_Sequence(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(2), clock.Current())

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
}

func TestDeterministicClock_At(t *testing.T) {
	clock := NewDeterministicClockAt(40)
	assert.Equal(t, int64(41), clock.Next())
	clock.Reset()
	assert.Equal(t, int64(40), clock.Current())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const workers, calls = 20, 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int64]bool)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				v := clock.Next()
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*calls)
	assert.Equal(t, int64(workers*calls), clock.Current())
}

func TestDeterministicClock_StampsEngineEvents(t *testing.T) {
	model := &column.Model{
		Name:    "T",
		DataKey: "id",
		Columns: []column.ColumnConfig{{Field: "name", Visible: true, Edit: &column.ColumnEditConfig{}}},
	}
	row := grid.Record{"id": "1", "name": "a"}

	run := func() []int64 {
		clock := NewDeterministicClock()
		var seqs []int64
		e := grid.New(model, grid.RecordAccessor{},
			grid.WithClock[grid.Record](clock),
			grid.WithHandler[grid.Record](func(ev grid.Event[grid.Record]) { seqs = append(seqs, ev.Seq) }))
		e.SetRows([]grid.Record{row})
		require.NoError(t, e.InitRowEdit(row))
		require.NoError(t, e.CancelRowEdit(row))
		return seqs
	}

	first := run()
	assert.Equal(t, []int64{1, 2}, first)
	assert.Equal(t, first, run(), "fresh clocks replay identical seqs")
}
