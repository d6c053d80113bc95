package srtp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplayWindow(t *testing.T) {
	w := &replayWindow{}

	for _, index := range []int64{5, 6, 7} {
		advanced, ok := w.accept(index)
		assert.True(t, ok, "index %d", index)
		assert.True(t, advanced, "index %d", index)
	}

	_, ok := w.accept(6)
	assert.False(t, ok)
	assert.Equal(t, int64(7), w.highest)

	advanced, ok := w.accept(200)
	assert.True(t, ok)
	assert.True(t, advanced)
	assert.Equal(t, int64(200), w.highest)
	assert.Equal(t, uint64(1), w.window)

	// 193 behind the highest index, outside the window.
	_, ok = w.accept(7)
	assert.False(t, ok)
	assert.Equal(t, int64(200), w.highest)
}

func TestReplayWindowOutOfOrder(t *testing.T) {
	w := &replayWindow{}
	w.accept(100)

	advanced, ok := w.accept(90)
	assert.True(t, ok)
	assert.False(t, advanced)
	assert.Equal(t, int64(100), w.highest)

	_, ok = w.accept(90)
	assert.False(t, ok)

	_, ok = w.accept(100 - 63)
	assert.True(t, ok)
	_, ok = w.accept(100 - 64)
	assert.False(t, ok)

	// A jump inside the window keeps earlier bits.
	w.accept(110)
	_, ok = w.accept(90)
	assert.False(t, ok)
	_, ok = w.accept(100)
	assert.False(t, ok)
}

func TestRolloverEstimation(t *testing.T) {
	s := &rtpStreamState{started: true, sequence: 65530}

	index, commit := s.nextIndex(10)
	assert.Equal(t, int64(1<<16|10), index)
	assert.Greater(t, index, int64(65530))
	assert.Equal(t, uint32(0), s.rolloverCounter, "nothing changes before commit")

	assert.True(t, s.check(index, commit))
	assert.Equal(t, uint32(1), s.rolloverCounter)
	assert.Equal(t, uint16(10), s.sequence)

	// Late packet from before the wrap.
	index, commit = s.nextIndex(65531)
	assert.Equal(t, int64(65531), index)
	assert.True(t, s.check(index, commit))
	assert.Equal(t, uint32(1), s.rolloverCounter, "old packets do not move state")
	assert.Equal(t, uint16(10), s.sequence)
}

func TestComputeRoc(t *testing.T) {
	s := &rtpStreamState{started: true, rolloverCounter: 3, sequence: 100}
	assert.Equal(t, int64(3), s.computeRoc(101))
	assert.Equal(t, int64(3), s.computeRoc(50))
	assert.Equal(t, int64(2), s.computeRoc(65000))

	s.sequence = 65000
	assert.Equal(t, int64(4), s.computeRoc(100))
	assert.Equal(t, int64(3), s.computeRoc(64000))
}

func TestFirstPacketSeedsSequence(t *testing.T) {
	s := &rtpStreamState{}

	index, commit := s.nextIndex(0)
	assert.Equal(t, int64(0), index)
	assert.True(t, s.check(index, commit))
	assert.True(t, s.started)

	index, commit = s.nextIndex(0)
	assert.False(t, s.check(index, commit))
}

func TestRTCPStreamState(t *testing.T) {
	s := &rtcpStreamState{}
	assert.True(t, s.check(1))
	assert.True(t, s.check(3))
	assert.True(t, s.check(2))
	assert.False(t, s.check(2))
	assert.Equal(t, int64(3), s.replay.highest)
}
