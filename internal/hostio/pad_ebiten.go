package hostio

import "github.com/hajimehoshi/ebiten/v2"

// EE digital pad button bits (active-low in the frame buffer word), in
// the documented order: SELECT, L3, R3, START, UP, RIGHT, DOWN, LEFT,
// L2, R2, L1, R1, TRIANGLE, CIRCLE, CROSS, SQUARE.
const (
	padUp       = 1 << 4
	padRight    = 1 << 5
	padDown     = 1 << 6
	padLeft     = 1 << 7
	padTriangle = 1 << 12
	padCircle   = 1 << 13
	padCross    = 1 << 14
	padSquare   = 1 << 15
)

// keyBinding maps a host keyboard key to one pad bit, mirroring
// video_backend_ebiten.go's specialKeys-table approach to input
// translation, generalized from terminal escape sequences to button
// bits.
var keyBindings = []struct {
	key ebiten.Key
	bit uint16
}{
	{ebiten.KeyArrowUp, padUp},
	{ebiten.KeyArrowDown, padDown},
	{ebiten.KeyArrowLeft, padLeft},
	{ebiten.KeyArrowRight, padRight},
	{ebiten.KeyX, padCross},
	{ebiten.KeyZ, padSquare},
	{ebiten.KeyS, padCircle},
	{ebiten.KeyA, padTriangle},
}

// PollKeyboard reads the current ebiten key state and writes the
// resulting active-low button mask into p. Called once per host frame
// from the same goroutine that drives the ebiten game loop.
func (p *PadState) PollKeyboard() {
	var pressed uint16
	for _, b := range keyBindings {
		if ebiten.IsKeyPressed(b.key) {
			pressed |= b.bit
		}
	}
	p.SetButtons(^pressed)
}
