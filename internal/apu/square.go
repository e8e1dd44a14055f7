package apu

// Duty waveforms, read LSB first by duty position.
var dutyPatterns = [4]uint8{
	0x01, // 12.5%
	0x81, // 25%
	0x87, // 50%
	0x7E, // 75%
}

// NRx4 bits.
const (
	triggerBit      = 0x80
	lengthEnableBit = 0x40
)

// square is one square-wave channel. nr holds NRx0-NRx4; channel 2 has no
// sweep register so its nr[0] is never used.
type square struct {
	nr [5]uint8

	enabled       bool
	timer         int
	dutyPos       uint8
	length        uint8
	volume        uint8
	envelopeTimer uint8
	output        uint8
}

func (s *square) frequency() int {
	return int(s.nr[3]) | int(s.nr[4]&0x07)<<8
}

func (s *square) period() int {
	return (2048 - s.frequency()) * 4
}

func (s *square) duty() uint8 {
	return s.nr[1] >> 6
}

// write stores register n (0-4) and applies its side effects.
func (s *square) write(n int, value uint8) {
	s.nr[n] = value
	switch n {
	case 1:
		s.length = 64 - value&0x3F
	case 4:
		if value&triggerBit != 0 {
			s.trigger()
		}
	}
}

func (s *square) trigger() {
	s.enabled = true
	s.volume = s.nr[2] >> 4
	s.envelopeTimer = s.nr[2] & 0x07
	s.timer = s.period()
	if s.length == 0 {
		s.length = 64
	}
}

// update runs the frequency timer for cycles and refreshes the output level.
func (s *square) update(cycles int) {
	if !s.enabled {
		return
	}

	s.timer -= cycles
	if s.timer <= 0 {
		s.timer += s.period()
		s.dutyPos = (s.dutyPos + 1) & 7
	}

	if dutyPatterns[s.duty()]>>s.dutyPos&1 != 0 {
		s.output = s.volume
	} else {
		s.output = 0
	}
}

func (s *square) clockLength() {
	if s.nr[4]&lengthEnableBit == 0 || s.length == 0 {
		return
	}
	s.length--
	if s.length == 0 {
		s.enabled = false
	}
}

func (s *square) clockEnvelope() {
	period := s.nr[2] & 0x07
	if !s.enabled || period == 0 || s.envelopeTimer == 0 {
		return
	}

	s.envelopeTimer--
	if s.envelopeTimer != 0 {
		return
	}
	s.envelopeTimer = period

	if s.nr[2]&0x08 != 0 {
		if s.volume < 15 {
			s.volume++
		}
	} else if s.volume > 0 {
		s.volume--
	}
}

// sample returns the channel's contribution to the mix.
func (s *square) sample() int {
	if !s.enabled || s.output == 0 {
		return 0
	}
	return int(s.output)*2000 - 15000
}

func (s *square) state() ChannelState {
	return ChannelState{
		Enabled:       s.enabled,
		Timer:         int32(s.timer),
		DutyPos:       s.dutyPos,
		Length:        s.length,
		Volume:        s.volume,
		EnvelopeTimer: s.envelopeTimer,
		Output:        s.output,
	}
}

func (s *square) setState(st ChannelState) {
	s.enabled = st.Enabled
	s.timer = int(st.Timer)
	s.dutyPos = st.DutyPos & 7
	s.length = st.Length
	s.volume = st.Volume & 0x0F
	s.envelopeTimer = st.EnvelopeTimer
	s.output = st.Output
}
