package apu

import "testing"

func TestAPU_InitialRegisters(t *testing.T) {
	a := New()

	tests := []struct {
		addr uint16
		want uint8
	}{
		{0xFF10, 0x80},
		{0xFF11, 0xBF},
		{0xFF12, 0xF3},
		{0xFF14, 0xBF},
		{0xFF16, 0x3F},
		{0xFF24, 0x77},
		{0xFF25, 0xF3},
		{0xFF26, 0xF0},
	}

	for _, tt := range tests {
		if got := a.Read(tt.addr); got != tt.want {
			t.Errorf("Read(0x%04X) = 0x%02X, want 0x%02X", tt.addr, got, tt.want)
		}
	}
}

func TestAPU_NR52ChannelStatus(t *testing.T) {
	a := New()
	a.Write(0xFF12, 0xF0)
	a.Write(0xFF14, 0x80)

	if got := a.Read(NR52); got&0x03 != 0x01 {
		t.Errorf("NR52 = 0x%02X, want channel 1 only", got)
	}

	a.Write(0xFF17, 0xF0)
	a.Write(0xFF19, 0x80)

	if got := a.Read(NR52); got&0x03 != 0x03 {
		t.Errorf("NR52 = 0x%02X, want channels 1 and 2", got)
	}
}

func TestAPU_PowerOff(t *testing.T) {
	a := New()
	a.Write(0xFF30, 0x12)
	a.Write(0xFF12, 0xF0)
	a.Write(0xFF14, 0x80)

	a.Write(NR52, 0x00)

	for addr := uint16(0xFF10); addr < 0xFF30; addr++ {
		if got := a.Read(addr); got != 0 {
			t.Errorf("Read(0x%04X) after power off = 0x%02X, want 0", addr, got)
		}
	}
	if got := a.Read(0xFF30); got != 0x12 {
		t.Errorf("wave RAM after power off = 0x%02X, want 0x12", got)
	}

	a.Write(0xFF12, 0xF0)
	if got := a.Read(0xFF12); got != 0 {
		t.Errorf("NR12 written while off = 0x%02X, want 0", got)
	}

	a.Write(0xFF31, 0x34)
	if got := a.Read(0xFF31); got != 0x34 {
		t.Errorf("wave RAM written while off = 0x%02X, want 0x34", got)
	}

	a.Write(NR52, 0x80)
	a.Write(0xFF12, 0xF0)
	if got := a.Read(0xFF12); got != 0xF0 {
		t.Errorf("NR12 after power on = 0x%02X, want 0xF0", got)
	}
}

func TestAPU_Trigger(t *testing.T) {
	a := New()
	a.Write(0xFF12, 0xA3) // volume 10, period 3
	a.Write(0xFF13, 0x00)
	a.Write(0xFF14, 0x87) // trigger, frequency 0x700

	ch := &a.ch[0]
	if !ch.enabled {
		t.Fatal("channel 1 not enabled by trigger")
	}
	if ch.volume != 10 {
		t.Errorf("volume = %d, want 10", ch.volume)
	}
	if ch.envelopeTimer != 3 {
		t.Errorf("envelopeTimer = %d, want 3", ch.envelopeTimer)
	}
	if want := (2048 - 0x700) * 4; ch.timer != want {
		t.Errorf("timer = %d, want %d", ch.timer, want)
	}
}

func TestAPU_LengthCounter(t *testing.T) {
	a := New()
	a.Write(0xFF11, 0x3F) // length 1
	a.Write(0xFF12, 0xF0)
	a.Write(0xFF14, 0xC0) // trigger with length enabled

	if a.ch[0].length != 1 {
		t.Fatalf("length = %d, want 1", a.ch[0].length)
	}

	a.Step(frameSequencerPeriod)

	if a.ch[0].enabled {
		t.Error("channel 1 still enabled after length expired")
	}
}

func TestAPU_LengthIgnoredWhenDisabled(t *testing.T) {
	a := New()
	a.Write(0xFF11, 0x3F)
	a.Write(0xFF12, 0xF0)
	a.Write(0xFF14, 0x80) // trigger without length enable

	a.Step(frameSequencerPeriod * 8)

	if !a.ch[0].enabled {
		t.Error("channel 1 disabled although length enable is clear")
	}
	if a.ch[0].length != 1 {
		t.Errorf("length = %d, want 1", a.ch[0].length)
	}
}

func TestAPU_TriggerReloadsZeroLength(t *testing.T) {
	a := New()
	a.Write(0xFF16, 0x3F)
	a.Write(0xFF17, 0xF0)
	a.Write(0xFF19, 0xC0)
	a.Step(frameSequencerPeriod)

	if a.ch[1].length != 0 {
		t.Fatalf("length = %d, want 0", a.ch[1].length)
	}

	a.Write(0xFF19, 0x80)
	if a.ch[1].length != 64 {
		t.Errorf("length after retrigger = %d, want 64", a.ch[1].length)
	}
}

func TestAPU_Envelope(t *testing.T) {
	tests := []struct {
		name string
		nr2  uint8
		want uint8
	}{
		{"decrease", 0x51, 4},
		{"increase", 0x59, 6},
		{"clamp high", 0xF9, 15},
		{"clamp low", 0x01, 0},
		{"period zero", 0x50, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New()
			a.Write(0xFF12, tt.nr2)
			a.Write(0xFF14, 0x80)

			// Envelope clocks on step 7, the eighth sequencer tick.
			a.Step(frameSequencerPeriod * 8)

			if a.ch[0].volume != tt.want {
				t.Errorf("volume = %d, want %d", a.ch[0].volume, tt.want)
			}
		})
	}
}

func TestAPU_DutyOutput(t *testing.T) {
	a := New()
	a.Write(0xFF11, 0x80) // 50%
	a.Write(0xFF12, 0xF0)
	a.Write(0xFF13, 0xFF)
	a.Write(0xFF14, 0x87) // frequency 0x7FF, period 4 cycles

	// 0x87 is high at positions 0, 1, 2 and 7.
	want := []uint8{15, 15, 0, 0, 0, 0, 15, 15}
	for i, w := range want {
		a.Step(4)
		if got := a.ch[0].output; got != w {
			t.Errorf("step %d: output = %d, want %d (dutyPos %d)", i, got, w, a.ch[0].dutyPos)
		}
	}
}

func TestAPU_SampleGeneration(t *testing.T) {
	a := New()

	a.Step(70224)

	// One frame at 44.1 kHz is about 738 samples.
	if n := a.Samples().Len(); n < 735 || n > 740 {
		t.Errorf("samples after one frame = %d, want about 738", n)
	}
}

func TestAPU_MixSilentChannels(t *testing.T) {
	a := New()
	a.Step(1000)

	for a.Samples().Len() > 0 {
		if s := a.Samples().Pop(); s != 0 {
			t.Fatalf("sample = %d, want 0 with both channels off", s)
		}
	}
}

func TestAPU_MixScale(t *testing.T) {
	a := New()
	a.ch[0] = square{enabled: true, output: 15}
	a.ch[1] = square{enabled: true, output: 15}

	if got := a.mix(); got != 30000 {
		t.Errorf("mix() = %d, want 30000", got)
	}

	a.ch[0].output = 1
	a.ch[1].output = 1
	if got := a.mix(); got != -26000 {
		t.Errorf("mix() = %d, want -26000", got)
	}
}

func TestAPU_StateRoundTrip(t *testing.T) {
	a := New()
	a.Write(0xFF11, 0x80)
	a.Write(0xFF12, 0xA3)
	a.Write(0xFF14, 0xC3)
	a.Step(12345)

	saved := a.State()

	b := New()
	b.Step(500)
	b.SetState(saved)

	if got := b.State(); got != saved {
		t.Errorf("State() after SetState = %+v, want %+v", got, saved)
	}
	if b.Samples().Len() != 0 {
		t.Errorf("ring holds %d samples after SetState, want 0", b.Samples().Len())
	}
	if b.ch[0].nr[1] != 0x80 {
		t.Errorf("channel 1 NR11 = 0x%02X, want 0x80", b.ch[0].nr[1])
	}
}
