package project

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spaces successive track hues so neighbours never collide.
const goldenAngle = 137.508

// TrackColor assigns a display color to the nth track.
func TrackColor(n int) [3]uint8 {
	hue := math.Mod(float64(n)*goldenAngle+15, 360)
	return rgb(colorful.Hsv(hue, 0.62, 0.92))
}

// NoteColor maps a pitch class onto the hue circle (C=red) with octave
// brightening; cached on the note at insertion.
func NoteColor(pitch int) [3]uint8 {
	class := pitch % 12
	octave := pitch / 12
	hue := float64(class) * 30
	val := 0.55 + 0.04*float64(octave)
	if val > 0.95 {
		val = 0.95
	}
	return rgb(colorful.Hsv(hue, 0.75, val))
}

func rgb(c colorful.Color) [3]uint8 {
	r, g, b := c.Clamped().RGB255()
	return [3]uint8{r, g, b}
}
