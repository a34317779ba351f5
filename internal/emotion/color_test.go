package emotion

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestToColor_SingleEmotion(t *testing.T) {
	tests := []struct {
		name    string
		scores  map[Label]float64
		wantHue float64
		wantHex string
	}{
		{name: "anger", scores: map[Label]float64{Anger: 1}, wantHue: 0, wantHex: "#f20d0d"},
		{name: "joy", scores: map[Label]float64{Joy: 1}, wantHue: 60, wantHex: "#f2f20d"},
		{name: "fear", scores: map[Label]float64{Fear: 1}, wantHue: 300, wantHex: "#f20df2"},
		{name: "sadness", scores: map[Label]float64{Sadness: 1}, wantHue: 240, wantHex: "#0d0df2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToColor(tt.scores)
			if math.Abs(got.HueDeg-tt.wantHue) > eps {
				t.Errorf("ToColor() hue = %v, want %v", got.HueDeg, tt.wantHue)
			}
			if math.Abs(got.Saturation-0.9) > eps {
				t.Errorf("ToColor() saturation = %v, want 0.9", got.Saturation)
			}
			if got.Lightness != 0.5 {
				t.Errorf("ToColor() lightness = %v, want 0.5", got.Lightness)
			}
			if got.Hex != tt.wantHex {
				t.Errorf("ToColor() hex = %v, want %v", got.Hex, tt.wantHex)
			}
			want := hslToRGB(tt.wantHue/360, 0.9, 0.5)
			if got.RGB != want {
				t.Errorf("ToColor() rgb = %v, want %v", got.RGB, want)
			}
		})
	}
}

func TestToColor_Achromatic(t *testing.T) {
	tests := []struct {
		name   string
		scores map[Label]float64
	}{
		{name: "empty", scores: map[Label]float64{}},
		{name: "nil", scores: nil},
		{name: "neutral only", scores: map[Label]float64{Neutral: 0.97}},
		{name: "explicit zeros", scores: Vector{}.Map()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToColor(tt.scores)
			if got.Saturation != 0 {
				t.Errorf("ToColor() saturation = %v, want 0", got.Saturation)
			}
			if got.Hex != "#808080" {
				t.Errorf("ToColor() hex = %v, want #808080", got.Hex)
			}
			if got.RGB != [3]uint8{128, 128, 128} {
				t.Errorf("ToColor() rgb = %v, want [128 128 128]", got.RGB)
			}
		})
	}
}

func TestToColor_ScaleInvariantHue(t *testing.T) {
	base := map[Label]float64{Anger: 0.1, Joy: 0.3, Sadness: 0.2, Surprise: 0.05, Fear: 0.15, Disgust: 0.02}
	ref := ToColor(base)

	for _, k := range []float64{0.01, 0.5, 2, 37} {
		scaled := make(map[Label]float64, len(base))
		for l, v := range base {
			scaled[l] = v * k
		}
		got := ToColor(scaled)
		if math.Abs(got.HueDeg-ref.HueDeg) > 1e-6 {
			t.Errorf("scale %v: hue = %v, want %v", k, got.HueDeg, ref.HueDeg)
		}
		if math.Abs(got.Saturation-ref.Saturation) > 1e-9 {
			t.Errorf("scale %v: saturation = %v, want %v", k, got.Saturation, ref.Saturation)
		}
	}
}

func TestToColor_MixedReducesSaturation(t *testing.T) {
	got := ToColor(map[Label]float64{Anger: 0.5, Joy: 0.5})
	if got.Saturation >= 0.9 {
		t.Errorf("ToColor() saturation = %v, want < 0.9", got.Saturation)
	}
	if math.Abs(got.HueDeg-30) > eps {
		t.Errorf("ToColor() hue = %v, want 30", got.HueDeg)
	}

	opposed := ToColor(map[Label]float64{Anger: 0.5, Surprise: 0.5})
	if opposed.Saturation > eps {
		t.Errorf("opposite emotions saturation = %v, want ~0", opposed.Saturation)
	}
}

func TestToColor_NeutralDrainsSaturation(t *testing.T) {
	got := ToColor(map[Label]float64{Joy: 0.5, Neutral: 0.5})
	if math.Abs(got.Saturation-0.45) > eps {
		t.Errorf("ToColor() saturation = %v, want 0.45", got.Saturation)
	}
	if math.Abs(got.HueDeg-60) > eps {
		t.Errorf("ToColor() hue = %v, want 60", got.HueDeg)
	}
}

func TestToColor_Deterministic(t *testing.T) {
	scores := map[Label]float64{Anger: 0.12, Disgust: 0.03, Fear: 0.4, Joy: 0.2, Neutral: 0.1, Sadness: 0.1, Surprise: 0.05}
	first := ToColor(scores)
	for i := 0; i < 50; i++ {
		if got := ToColor(scores); got != first {
			t.Fatalf("ToColor() run %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestVector_Color(t *testing.T) {
	v := Vector{Joy: 1}
	if got := v.Color().Hex; got != "#f2f20d" {
		t.Errorf("Color() hex = %v, want #f2f20d", got)
	}
}
