package app

import (
	"context"
	"image"

	"go.uber.org/zap"

	"snapcaption/internal/vision"
)

// ObjectDetector finds objects in a decoded image.
type ObjectDetector interface {
	DetectImage(ctx context.Context, img image.Image) ([]vision.Detection, error)
}

// ProcessResult is the payload returned for one uploaded image.
type ProcessResult struct {
	DetectedObjects []string           `json:"detected_objects"`
	Detections      []vision.Detection `json:"detections"`
	Mood            vision.MoodResult  `json:"mood"`
	Captions        []string           `json:"captions"`
	Hashtags        []string           `json:"hashtags"`
}

type ImageService struct {
	detector ObjectDetector
	captions *CaptionGenerator
	hashtags *HashtagGenerator
	logger   *zap.Logger
}

func NewImageService(detector ObjectDetector, captions *CaptionGenerator, hashtags *HashtagGenerator, logger *zap.Logger) *ImageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageService{
		detector: detector,
		captions: captions,
		hashtags: hashtags,
		logger:   logger.Named("image"),
	}
}

// ProcessImage runs detection, mood classification, captions and hashtags in that order.
// Only decode and detection errors are returned; text generation always falls back.
func (s *ImageService) ProcessImage(ctx context.Context, data []byte) (*ProcessResult, error) {
	img, err := vision.DecodeImage(data)
	if err != nil {
		return nil, err
	}

	detections, err := s.detector.DetectImage(ctx, img)
	if err != nil {
		return nil, err
	}
	objects := vision.Labels(detections)
	mood := vision.MoodOf(img)

	s.logger.Debug("image analysed",
		zap.Int("objects", len(objects)),
		zap.String("mood", string(mood.Mood)),
	)

	return &ProcessResult{
		DetectedObjects: objects,
		Detections:      vision.SortByConfidence(detections),
		Mood:            mood,
		Captions:        s.captions.GenerateCaptions(ctx, objects, mood.Mood),
		Hashtags:        s.hashtags.GenerateHashtags(ctx, objects),
	}, nil
}
