package region

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkAt(t *testing.T) {
	file := buildContainer(t, 1024, 256, map[int]testRecord{
		33: {raw: []byte("not a document")},
	})
	c := openTest(t, file, -2, -3)

	ck, err := c.ChunkAt(33)
	require.NoError(t, err)
	assert.Equal(t, -63, ck.X)
	assert.Equal(t, -95, ck.Z)

	_, err = c.ChunkAt(34)
	require.ErrorIs(t, err, ErrEmptySlot)
}

func TestChunksOrder(t *testing.T) {
	records := map[int]testRecord{
		5:   {raw: []byte("a")},
		0:   {raw: []byte("b")},
		100: {raw: []byte("c")},
		99:  {raw: []byte("d")},
	}
	file := buildContainer(t, 1024, 256, records)
	c := openTest(t, file, 0, 0)

	var slots []int
	for ck := range c.Chunks() {
		slots = append(slots, ck.Z*GridSize+ck.X)
	}
	assert.Equal(t, []int{0, 5, 99, 100}, slots)
	assert.Equal(t, Stats{Decoded: 4}, c.Stats())
}

func TestChunksSkipsCorruptSlot(t *testing.T) {
	records := map[int]testRecord{}
	for slot := range 8 {
		records[slot] = testRecord{raw: []byte{byte(slot)}}
	}
	records[4] = testRecord{raw: []byte("bad"), corrupt: true}
	file := buildContainer(t, 1024, 256, records)
	c := openTest(t, file, 0, 0, WithLogger(discardLogger()))

	n := 0
	for range c.Chunks() {
		n++
	}
	assert.Equal(t, 7, n)
	assert.Equal(t, Stats{Decoded: 7, Failed: 1}, c.Stats())
}

func TestChunksEarlyStop(t *testing.T) {
	records := map[int]testRecord{}
	for slot := range 10 {
		records[slot] = testRecord{raw: []byte{byte(slot)}}
	}
	file := buildContainer(t, 1024, 256, records)
	c := openTest(t, file, 0, 0)

	n := 0
	for range c.Chunks() {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestChunksRestartable(t *testing.T) {
	file := buildContainer(t, 1024, 256, map[int]testRecord{
		1: {raw: []byte("a")},
		2: {raw: []byte("b")},
	})
	c := openTest(t, file, 0, 0)

	for range 2 {
		n := 0
		for range c.Chunks() {
			n++
		}
		assert.Equal(t, 2, n)
		assert.Equal(t, Stats{Decoded: 2}, c.Stats())
	}
}

func TestChunksParallel(t *testing.T) {
	records := map[int]testRecord{}
	for slot := 0; slot < 200; slot += 7 {
		records[slot] = testRecord{raw: []byte{byte(slot)}}
	}
	records[49] = testRecord{raw: []byte("bad"), corrupt: true}
	file := buildContainer(t, 1024, 256, records)
	c := openTest(t, file, 0, 0, WithLogger(discardLogger()))

	var want []int
	for ck := range c.Chunks() {
		want = append(want, ck.Z*GridSize+ck.X)
	}

	var got []int
	for ck := range c.ChunksParallel(4) {
		got = append(got, ck.Z*GridSize+ck.X)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, Stats{Decoded: len(want), Failed: 1}, c.Stats())
}

func TestChunksParallelStatsSettledAfterBreak(t *testing.T) {
	// Slot 0 is the only readable slot; the rest fail in workers that may
	// still be in flight when the consumer breaks.
	records := map[int]testRecord{0: {raw: []byte("ok")}}
	for slot := 1; slot < 40; slot++ {
		records[slot] = testRecord{raw: []byte("bad"), corrupt: true}
	}
	file := buildContainer(t, 1024, 256, records)
	c := openTest(t, file, 0, 0, WithLogger(discardLogger()))

	for range c.ChunksParallel(8) {
		break
	}

	// The iterator drains outstanding workers before returning, so the
	// counters must not move afterwards.
	settled := c.Stats()
	assert.Equal(t, 1, settled.Decoded)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, c.Stats())
}

func TestChunksParallelEarlyStop(t *testing.T) {
	records := map[int]testRecord{}
	for slot := range 50 {
		records[slot] = testRecord{raw: []byte{byte(slot)}}
	}
	file := buildContainer(t, 1024, 256, records)
	c := openTest(t, file, 0, 0)

	n := 0
	for range c.ChunksParallel(8) {
		n++
		if n == 5 {
			break
		}
	}
	assert.Equal(t, 5, n)
}
