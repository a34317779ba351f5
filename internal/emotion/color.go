package emotion

import (
	"fmt"
	"math"
)

const (
	maxSaturation = 0.9
	lightness     = 0.5
)

// wheel places the six non-neutral emotions on the colour wheel, 60° apart.
// Neutral has no hue; it only drains saturation. A slice keeps summation
// order fixed so results are bit-for-bit reproducible.
var wheel = [...]struct {
	label Label
	deg   float64
}{
	{Anger, 0},
	{Joy, 60},
	{Disgust, 120},
	{Surprise, 180},
	{Sadness, 240},
	{Fear, 300},
}

// Color is the perceptual colour derived from an emotion distribution.
type Color struct {
	HueDeg     float64  `json:"hue"`
	Saturation float64  `json:"saturation"`
	Lightness  float64  `json:"lightness"`
	RGB        [3]uint8 `json:"rgb"`
	Hex        string   `json:"hex"`
}

// ToColor maps emotion scores to a colour. The hue is the circular weighted
// mean of the non-neutral emotions; saturation shrinks as opposing emotions
// cancel and as the neutral share of the total grows. Labels outside the
// seven known ones are ignored. The function is pure and deterministic.
func ToColor(scores map[Label]float64) Color {
	var nonNeutral float64
	for _, h := range wheel {
		nonNeutral += scores[h.label]
	}

	var x, y float64
	if nonNeutral > 0 {
		for _, h := range wheel {
			w := scores[h.label] / nonNeutral
			rad := h.deg * math.Pi / 180
			x += w * math.Cos(rad)
			y += w * math.Sin(rad)
		}
	}

	hue := math.Atan2(y, x) * 180 / math.Pi
	if hue < 0 {
		hue += 360
	}
	if hue >= 360 {
		hue -= 360
	}

	var total float64
	for _, l := range Labels {
		total += scores[l]
	}
	var neutralWeight float64
	if total > 0 {
		neutralWeight = scores[Neutral] / total
	}

	magnitude := math.Hypot(x, y)
	saturation := maxSaturation * magnitude * (1 - neutralWeight)

	rgb := hslToRGB(hue/360, saturation, lightness)
	return Color{
		HueDeg:     hue,
		Saturation: saturation,
		Lightness:  lightness,
		RGB:        rgb,
		Hex:        fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]),
	}
}

// hslToRGB converts h, s, l in [0,1] to 8-bit channels.
func hslToRGB(h, s, l float64) [3]uint8 {
	if s == 0 {
		v := channel(l)
		return [3]uint8{v, v, v}
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	hueToChannel := func(t float64) float64 {
		if t < 0 {
			t++
		}
		if t > 1 {
			t--
		}
		switch {
		case t < 1.0/6:
			return p + (q-p)*6*t
		case t < 1.0/2:
			return q
		case t < 2.0/3:
			return p + (q-p)*(2.0/3-t)*6
		default:
			return p
		}
	}

	return [3]uint8{
		channel(hueToChannel(h + 1.0/3)),
		channel(hueToChannel(h)),
		channel(hueToChannel(h - 1.0/3)),
	}
}

func channel(v float64) uint8 {
	c := math.Round(v * 255)
	if c < 0 {
		return 0
	}
	if c > 255 {
		return 255
	}
	return uint8(c)
}
