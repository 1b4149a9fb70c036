package stream

import (
	"context"

	"github.com/injuryshield/ppe-monitor/internal/s3"
)

// S3Source выдаёт кадры потока, выгруженные из папки бакета
type S3Source struct {
	frames [][]byte
	next   int
	fps    float64
}

// NewS3Source downloads the frame folder referenced by sourceURL up front.
// fps is the frame rate reported by whoever recorded the stream; 0 means
// unknown and lets the driver fall back to its default pacing.
func NewS3Source(ctx context.Context, client *s3.Client, sourceURL string, fps float64) (*S3Source, error) {
	frames, err := client.DownloadFramesFromURL(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	return &S3Source{frames: frames, fps: fps}, nil
}

// ReadFrame returns the next frame, or nil once the stream is exhausted.
func (s *S3Source) ReadFrame() []byte {
	if s.next >= len(s.frames) {
		return nil
	}

	frame := s.frames[s.next]
	s.next++
	return frame
}

// FrameRateHint reports the source frame rate, 0 if unknown.
func (s *S3Source) FrameRateHint() float64 {
	return s.fps
}

// Len возвращает общее число кадров источника
func (s *S3Source) Len() int {
	return len(s.frames)
}
