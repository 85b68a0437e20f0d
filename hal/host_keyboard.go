//go:build !tinygo && cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// hostKeys maps desktop keys onto the bytes the keypad UART would send.
var hostKeys = []struct {
	key ebiten.Key
	b   byte
}{
	{ebiten.KeyArrowUp, 'w'},
	{ebiten.KeyW, 'w'},
	{ebiten.KeyArrowDown, 's'},
	{ebiten.KeyS, 's'},
	{ebiten.KeyArrowLeft, 'a'},
	{ebiten.KeyA, 'a'},
	{ebiten.KeyArrowRight, 'd'},
	{ebiten.KeyD, 'd'},
	{ebiten.KeyEnter, '\r'},
	{ebiten.KeyNumpadEnter, '\r'},
	{ebiten.KeyEscape, 0x1b},
}

func pollKeyboard(s *hostSerial) {
	for _, k := range hostKeys {
		if inpututil.IsKeyJustPressed(k.key) {
			s.inject(k.b)
		}
	}
}
