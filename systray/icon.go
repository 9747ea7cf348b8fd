package systray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 32

// Icon renders the tray icon: a rounded square with a pen stroke.
// Windows wants ICO, so the PNG is wrapped in a single-entry ICO there.
func Icon() []byte {
	data := iconPNG()
	if runtime.GOOS == "windows" {
		return wrapICO(data, iconSize)
	}
	return data
}

func iconPNG() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	bg := color.NRGBA{R: 0x2f, G: 0x6f, B: 0xeb, A: 0xff}
	fg := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			if cornerCut(x, y) {
				continue
			}
			img.Set(x, y, bg)
		}
	}
	// diagonal stroke from bottom-left to top-right
	for i := 8; i < iconSize-8; i++ {
		for w := -1; w <= 1; w++ {
			img.Set(i+w, iconSize-1-i, fg)
		}
	}

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func cornerCut(x, y int) bool {
	const r = 5
	far := iconSize - 1 - r
	dx, dy := 0, 0
	switch {
	case x < r:
		dx = r - x
	case x > far:
		dx = x - far
	}
	switch {
	case y < r:
		dy = r - y
	case y > far:
		dy = y - far
	}
	return dx*dx+dy*dy > r*r
}

// wrapICO builds an ICO container around one PNG image
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	// ICONDIR: reserved, type 1 (icon), one image
	binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.Write([]byte{byte(size), byte(size), 0, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // planes
	binary.Write(&buf, binary.LittleEndian, uint16(32)) // bits per pixel
	binary.Write(&buf, binary.LittleEndian, uint32(len(pngData)))
	binary.Write(&buf, binary.LittleEndian, uint32(6+16))
	buf.Write(pngData)
	return buf.Bytes()
}
