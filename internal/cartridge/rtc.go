package cartridge

import "time"

// Clock returns the current wall time. The MBC3 clock reads it lazily so
// that it keeps running while the emulator is paused or closed.
type Clock func() time.Time

// RTC register indices, in the order they are selected by RAM bank 0x08-0x0C.
const (
	rtcSeconds = iota
	rtcMinutes
	rtcHours
	rtcDaysLow
	rtcDaysHigh
)

const (
	dhDayBit8  = 0x01
	dhHalt     = 0x40
	dhDayCarry = 0x80

	secondsPerDay = 24 * 60 * 60
	maxDays       = 512
)

// rtc is the MBC3 real-time clock. The live time is an offset plus the wall
// time elapsed since base; halting folds the elapsed time into the offset.
type rtc struct {
	now Clock

	base    time.Time
	seconds int64
	halted  bool
	carry   bool

	latched   [5]uint8
	latchLast uint8
}

func newRTC(now Clock) *rtc {
	return &rtc{now: now, base: now(), latchLast: 0xFF}
}

func (r *rtc) elapsed() int64 {
	total := r.seconds
	if !r.halted {
		total += int64(r.now().Sub(r.base) / time.Second)
	}
	return total
}

// live returns the running clock as register values.
func (r *rtc) live() [5]uint8 {
	total := r.elapsed()
	days := total / secondsPerDay
	carry := r.carry
	if days >= maxDays {
		carry = true
		days %= maxDays
	}

	var regs [5]uint8
	regs[rtcSeconds] = uint8(total % 60)           //nolint:gosec // G115: < 60
	regs[rtcMinutes] = uint8(total / 60 % 60)      //nolint:gosec // G115: < 60
	regs[rtcHours] = uint8(total / 3600 % 24)      //nolint:gosec // G115: < 24
	regs[rtcDaysLow] = uint8(days & 0xFF)          //nolint:gosec // G115: masked
	regs[rtcDaysHigh] = uint8(days>>8) & dhDayBit8 //nolint:gosec // G115: masked
	if r.halted {
		regs[rtcDaysHigh] |= dhHalt
	}
	if carry {
		regs[rtcDaysHigh] |= dhDayCarry
	}
	return regs
}

// set restarts the live clock from register values.
func (r *rtc) set(regs [5]uint8) {
	days := int64(regs[rtcDaysLow]) | int64(regs[rtcDaysHigh]&dhDayBit8)<<8
	r.seconds = days*secondsPerDay +
		int64(regs[rtcHours])*3600 +
		int64(regs[rtcMinutes])*60 +
		int64(regs[rtcSeconds])
	r.halted = regs[rtcDaysHigh]&dhHalt != 0
	r.carry = regs[rtcDaysHigh]&dhDayCarry != 0
	r.base = r.now()
}

// write changes one live register.
func (r *rtc) write(reg int, value uint8) {
	regs := r.live()
	regs[reg] = value
	r.set(regs)
}

// latch handles a write to 0x6000-0x7FFF; 0x00 then 0x01 copies the live
// clock into the readable registers.
func (r *rtc) latch(value uint8) {
	if r.latchLast == 0x00 && value == 0x01 {
		r.latched = r.live()
	}
	r.latchLast = value
}

func (r *rtc) state() RTCState {
	return RTCState{Live: r.live(), Latched: r.latched, LatchLast: r.latchLast}
}

func (r *rtc) setState(s RTCState) {
	r.set(s.Live)
	r.latched = s.Latched
	r.latchLast = s.LatchLast
}
