package vision

import (
	"context"
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"
)

// ScoreThreshold is the minimum confidence (exclusive) a candidate needs to be reported.
const ScoreThreshold = 0.5

// Box is a bounding box in original image pixel coordinates.
type Box struct {
	X1 float32 `json:"x1"`
	Y1 float32 `json:"y1"`
	X2 float32 `json:"x2"`
	Y2 float32 `json:"y2"`
}

// Detection is one labelled, above-threshold prediction.
type Detection struct {
	Object     string  `json:"object"`
	Confidence float32 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Candidate is a raw prediction straight out of the inference engine.
type Candidate struct {
	ClassID int64
	Score   float32
	Box     Box
}

// Tensor is a CHW float32 image with values in [0,1].
type Tensor struct {
	Data     []float32
	Channels int
	Height   int
	Width    int
}

// Engine runs one forward pass of a two-stage detector.
type Engine interface {
	Infer(ctx context.Context, input Tensor) ([]Candidate, error)
	Close() error
}

// Detector turns image bytes into labelled detections. It holds no per-request state
// and is safe for concurrent use when its engine is.
type Detector struct {
	engine  Engine
	maxSide int
}

func NewDetector(engine Engine, maxSide int) *Detector {
	if maxSide <= 0 {
		maxSide = 1333
	}
	return &Detector{engine: engine, maxSide: maxSide}
}

// Detect decodes data and runs detection over it.
func (d *Detector) Detect(ctx context.Context, data []byte) ([]Detection, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return d.DetectImage(ctx, img)
}

// DetectImage runs detection over an already decoded image. Results keep the engine's order.
func (d *Detector) DetectImage(ctx context.Context, img image.Image) ([]Detection, error) {
	input, sx, sy := toTensor(img, d.maxSide)
	if len(input.Data) == 0 {
		return []Detection{}, nil
	}

	candidates, err := d.engine.Infer(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("run detector failed: %w", err)
	}
	return postprocess(candidates, sx, sy), nil
}

func (d *Detector) Close() error {
	if d.engine == nil {
		return nil
	}
	return d.engine.Close()
}

// Labels returns the object names of dets in their given order.
func Labels(dets []Detection) []string {
	out := make([]string, 0, len(dets))
	for _, det := range dets {
		out = append(out, det.Object)
	}
	return out
}

// SortByConfidence returns a copy of dets ordered by descending confidence.
func SortByConfidence(dets []Detection) []Detection {
	out := make([]Detection, len(dets))
	copy(out, dets)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// postprocess drops low-confidence and unmapped candidates and scales boxes back by
// the resize factors sx, sy.
func postprocess(candidates []Candidate, sx, sy float64) []Detection {
	out := make([]Detection, 0, len(candidates))
	for _, c := range candidates {
		if c.Score <= ScoreThreshold {
			continue
		}
		label, ok := LabelForClass(c.ClassID)
		if !ok {
			continue
		}
		out = append(out, Detection{
			Object:     label,
			Confidence: c.Score,
			Box: Box{
				X1: float32(float64(c.Box.X1) / sx),
				Y1: float32(float64(c.Box.Y1) / sy),
				X2: float32(float64(c.Box.X2) / sx),
				Y2: float32(float64(c.Box.Y2) / sy),
			},
		})
	}
	return out
}

// toTensor converts img to a CHW float32 tensor, shrinking it so the longer side is at
// most maxSide. sx and sy are the applied scale factors.
func toTensor(img image.Image, maxSide int) (Tensor, float64, float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return Tensor{}, 1, 1
	}

	var src *image.NRGBA
	sx, sy := 1.0, 1.0
	if w > maxSide || h > maxSide {
		src = imaging.Fit(img, maxSide, maxSide, imaging.CatmullRom)
		sx = float64(src.Rect.Dx()) / float64(w)
		sy = float64(src.Rect.Dy()) / float64(h)
	} else {
		src = toNRGBA(img)
	}

	tw, th := src.Rect.Dx(), src.Rect.Dy()
	size := tw * th
	data := make([]float32, 3*size)
	for y := 0; y < th; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < tw; x++ {
			idx := y*tw + x
			p := row[x*4 : x*4+3]
			data[idx] = float32(p[0]) / 255.0
			data[size+idx] = float32(p[1]) / 255.0
			data[2*size+idx] = float32(p[2]) / 255.0
		}
	}
	return Tensor{Data: data, Channels: 3, Height: th, Width: tw}, sx, sy
}
