// Package input implements the joypad and its P1/JOYP register.
package input

// Button is a bit in the joypad button mask. A set bit means pressed.
type Button uint8

// Buttons. The low nibble is the action group and the high nibble the
// direction group, each in P1 bit order.
const (
	ButtonA      Button = 0x01
	ButtonB      Button = 0x02
	ButtonSelect Button = 0x04
	ButtonStart  Button = 0x08
	ButtonRight  Button = 0x10
	ButtonLeft   Button = 0x20
	ButtonUp     Button = 0x40
	ButtonDown   Button = 0x80
)

// P1 select lines. A line is active when its bit is 0.
const (
	selectDirection = 0x10 // P14
	selectAction    = 0x20 // P15
)

// Joypad holds the pressed-button mask and the group select bits.
type Joypad struct {
	buttons Button
	selects uint8
}

// New returns a joypad with nothing pressed and neither group selected.
func New() *Joypad {
	return &Joypad{selects: selectAction | selectDirection}
}

// Read composes the P1 register from the select bits and the buttons of the
// selected groups. Unused bits 6-7 read as 1.
func (j *Joypad) Read() uint8 {
	result := 0xC0 | j.selects | 0x0F

	if j.selects&selectAction == 0 {
		result &^= uint8(j.buttons) & 0x0F
	}
	if j.selects&selectDirection == 0 {
		result &^= uint8(j.buttons>>4) & 0x0F
	}
	return result
}

// Write stores the group select bits; the rest of P1 is read-only.
func (j *Joypad) Write(value uint8) {
	j.selects = value & (selectAction | selectDirection)
}

// Buttons returns the pressed-button mask.
func (j *Joypad) Buttons() Button {
	return j.buttons
}

// SetButtons replaces the pressed-button mask. It reports whether a button
// was newly pressed in a selected group, which is when hardware raises the
// joypad interrupt.
func (j *Joypad) SetButtons(mask Button) bool {
	pressed := mask &^ j.buttons
	j.buttons = mask

	var visible Button
	if j.selects&selectAction == 0 {
		visible |= 0x0F
	}
	if j.selects&selectDirection == 0 {
		visible |= 0xF0
	}
	return pressed&visible != 0
}

// Press marks b as pressed.
func (j *Joypad) Press(b Button) bool {
	return j.SetButtons(j.buttons | b)
}

// Release marks b as released.
func (j *Joypad) Release(b Button) {
	j.buttons &^= b
}

// State returns the button mask and select bits.
func (j *Joypad) State() (Button, uint8) {
	return j.buttons, j.selects
}

// SetState restores the button mask and select bits.
func (j *Joypad) SetState(buttons Button, selects uint8) {
	j.buttons = buttons
	j.selects = selects & (selectAction | selectDirection)
}
