package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestBuildOrderNumber(t *testing.T) {
	numbering := NewNumbering(newFakeSequenceRepo())
	numbering.now = fixedClock(time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC))

	code, err := numbering.BuildOrderNumber(context.Background(), "t1", "b1", "")
	require.NoError(t, err)
	assert.Equal(t, "ORD-20260309-0001", code)

	code, err = numbering.BuildOrderNumber(context.Background(), "t1", "b1", "{YYYY}/{MM}/{DD}#{SEQ}")
	require.NoError(t, err)
	assert.Equal(t, "2026/03/09#0002", code)
}

func TestBuildOrderNumberScopesPerBranch(t *testing.T) {
	numbering := NewNumbering(newFakeSequenceRepo())
	numbering.now = fixedClock(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))

	first, err := numbering.BuildOrderNumber(context.Background(), "t1", "b1", "")
	require.NoError(t, err)
	other, err := numbering.BuildOrderNumber(context.Background(), "t1", "b2", "")
	require.NoError(t, err)

	// each branch gets its own counter
	assert.Equal(t, first, "ORD-20260309-0001")
	assert.Equal(t, other, "ORD-20260309-0001")
}

func TestBuildTicketNumber(t *testing.T) {
	numbering := NewNumbering(newFakeSequenceRepo())
	numbering.now = fixedClock(time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC))

	number, err := numbering.BuildTicketNumber(context.Background(), "t1", "b1", "checkout", "", "C")
	require.NoError(t, err)
	assert.Equal(t, "C-0001", number.Code)
	assert.Equal(t, int64(1), number.Seq)
	assert.Equal(t, "20260309", number.DayKey)
}

func TestBuildTicketNumberPrefixPlaceholder(t *testing.T) {
	numbering := NewNumbering(newFakeSequenceRepo())
	numbering.now = fixedClock(time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC))

	number, err := numbering.BuildTicketNumber(context.Background(), "t1", "b1", "pickup", "{PREFIX}{MM}{DD}-{SEQ}", "P")
	require.NoError(t, err)
	assert.Equal(t, "P0309-0001", number.Code)
}

func TestBuildTicketNumberReplacesDefaultPrefixLiteral(t *testing.T) {
	numbering := NewNumbering(newFakeSequenceRepo())
	numbering.now = fixedClock(time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC))

	number, err := numbering.BuildTicketNumber(context.Background(), "t1", "b1", "pickup", "T-{SEQ}", "K")
	require.NoError(t, err)
	assert.Equal(t, "K-0001", number.Code)
}

func TestSequenceDensityUnderConcurrency(t *testing.T) {
	sequences := newFakeSequenceRepo()
	const n = 200

	results := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := sequences.Next(context.Background(), "ticket:t1:b1:checkout:20260309")
			assert.NoError(t, err)
			results <- seq
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	for seq := range results {
		assert.False(t, seen[seq], "sequence %d returned twice", seq)
		seen[seq] = true
	}
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "sequence %d missing", i)
	}
}
