package srtp

const (
	replayWindowSize = 64
	seqNumMedian     = 1 << 15
)

// replayWindow: bit k of window stands for logical index highest-k.
type replayWindow struct {
	highest int64
	window  uint64
}

// accept marks index as seen. advanced is true when index moved highest
// forward; ok is false for a duplicate or an index older than the window.
func (w *replayWindow) accept(index int64) (advanced bool, ok bool) {
	diff := index - w.highest
	if diff > 0 {
		if diff >= replayWindowSize {
			w.window = 0
		} else {
			w.window <<= uint(diff)
		}
		w.window |= 1
		w.highest = index
		return true, true
	}
	back := -diff
	if back >= replayWindowSize || (w.window>>uint(back))&1 == 1 {
		return false, false
	}
	w.window |= 1 << uint(back)
	return false, true
}

// rtpStreamState tracks the RTP direction: rollover counter, highest
// sequence number, replay window.
type rtpStreamState struct {
	rolloverCounter uint32
	sequence        uint16
	started         bool
	packets         uint64
	replay          replayWindow
}

// computeRoc guesses the rollover counter the sender used for seq.
func (s *rtpStreamState) computeRoc(seq uint16) int64 {
	roc := int64(s.rolloverCounter)
	if seq-s.sequence < seqNumMedian {
		// ahead of us
		if seq < s.sequence {
			roc++
		}
	} else if seq > s.sequence {
		// from before the last wrap
		roc--
	}
	return roc
}

// nextIndex returns the 48 bit logical index for seq and a commit that
// records it as the newest packet. Nothing changes until commit runs.
func (s *rtpStreamState) nextIndex(seq uint16) (int64, func()) {
	var index int64
	if s.started {
		index = s.computeRoc(seq)<<16 | int64(seq)
	} else {
		// The first packet seeds the tracked sequence with roc 0.
		index = int64(seq)
	}
	return index, func() {
		s.started = true
		s.rolloverCounter = uint32(index >> 16)
		s.sequence = uint16(index & 0xffff)
	}
}

// check runs the replay window for index and commits it when it is newer
// than anything accepted so far.
func (s *rtpStreamState) check(index int64, commit func()) bool {
	advanced, ok := s.replay.accept(index)
	if !ok {
		return false
	}
	if advanced || !s.started {
		commit()
	}
	return true
}

// rtcpStreamState tracks the RTCP direction. The SRTCP index travels in
// full with every packet, so no rollover guessing is needed.
type rtcpStreamState struct {
	packets uint64
	replay  replayWindow
}

func (s *rtcpStreamState) check(index uint32) bool {
	_, ok := s.replay.accept(int64(index))
	return ok
}
