package vision

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

type Mood string

const (
	MoodSerenity Mood = "serenity"
	MoodCalm     Mood = "calm"
	MoodSad      Mood = "sad"
	MoodJoy      Mood = "joy"
	MoodNeutral  Mood = "neutral"
)

// MoodResult is the mood payload returned to clients.
type MoodResult struct {
	Mood Mood `json:"mood"`
}

// MoodTheme pairs a mood with the UI palette clients render for it.
type MoodTheme struct {
	Mood    Mood   `json:"mood"`
	Theme   string `json:"theme"`
	Palette string `json:"palette"`
}

var moodThemes = []MoodTheme{
	{Mood: MoodSerenity, Theme: "Serenity", Palette: "pale greens and blues"},
	{Mood: MoodSad, Theme: "Sad", Palette: "muted grays and blues"},
	{Mood: MoodJoy, Theme: "Joy", Palette: "bright yellows and oranges"},
	{Mood: MoodCalm, Theme: "Calm", Palette: "soft blues and purples"},
	{Mood: MoodNeutral, Theme: "Neutral", Palette: "light grays"},
}

// MoodThemes lists every mood the classifier can produce.
func MoodThemes() []MoodTheme {
	out := make([]MoodTheme, len(moodThemes))
	copy(out, moodThemes)
	return out
}

// ClassifyMood decodes data and classifies its average color.
func ClassifyMood(data []byte) (MoodResult, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return MoodResult{}, err
	}
	return MoodOf(img), nil
}

// MoodOf classifies an already decoded image.
func MoodOf(img image.Image) MoodResult {
	avg, ok := AverageColor(img)
	if !ok {
		return MoodResult{Mood: MoodNeutral}
	}
	h, s, v := avg.Hsv()
	return MoodResult{Mood: moodFromHSV(h/360, s, v)}
}

// AverageColor returns the per-channel mean over all pixels, each channel in [0,1].
// ok is false for an image without pixels.
func AverageColor(img image.Image) (colorful.Color, bool) {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	n := uint64(w) * uint64(h)
	if n == 0 {
		return colorful.Color{}, false
	}

	var sumR, sumG, sumB uint64
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			sumR += uint64(row[x])
			sumG += uint64(row[x+1])
			sumB += uint64(row[x+2])
		}
	}

	count := float64(n)
	return colorful.Color{
		R: float64(sumR) / count / 255,
		G: float64(sumG) / count / 255,
		B: float64(sumB) / count / 255,
	}, true
}

// moodFromHSV applies the thresholds in order; hue is in [0,1).
func moodFromHSV(h, s, v float64) Mood {
	switch {
	case s < 0.2 && v > 0.75:
		return MoodSerenity
	case h >= 0.5 && h <= 0.7:
		if v < 0.5 {
			return MoodSad
		}
		return MoodCalm
	case h > 0.12 && h < 0.18 && v > 0.2:
		return MoodJoy
	default:
		return MoodNeutral
	}
}
