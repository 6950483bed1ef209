package detector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrSourceExhausted the sequence ended and rewinding produced no frame
var ErrSourceExhausted = errors.New("frame source exhausted")

// Frame encoded image bytes plus the file they came from
type Frame struct {
	Name string
	Data []byte
}

// FrameSource yields frames for inference
type FrameSource interface {
	Next() (*Frame, error)
	Close() error
}

// ImageSource a single still image, re-read on every call so an external
// process can refresh it in place
type ImageSource struct {
	path string
}

// NewImageSource fails when the file does not exist
func NewImageSource(path string) (*ImageSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	return &ImageSource{path: path}, nil
}

// Next reads the image
func (s *ImageSource) Next() (*Frame, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", s.path, err)
	}
	return &Frame{Name: filepath.Base(s.path), Data: data}, nil
}

// Close no-op
func (s *ImageSource) Close() error { return nil }

var frameExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// SequenceSource ordered frame files of a recording (a directory of
// extracted frames, sorted by name)
type SequenceSource struct {
	mu        sync.Mutex
	frames    []string
	frameSkip int
	pos       int
	closed    bool
}

// NewSequenceSource lists image files under dir
func NewSequenceSource(dir string, frameSkip int) (*SequenceSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame directory %s: %w", dir, err)
	}

	frames := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			frames = append(frames, filepath.Join(dir, e.Name()))
		}
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames found in %s", dir)
	}
	sort.Strings(frames)

	return newSequenceSource(frames, frameSkip), nil
}

// newSequenceSource plays frames in the given order; a negative skip reads every frame
func newSequenceSource(frames []string, frameSkip int) *SequenceSource {
	if frameSkip < 0 {
		frameSkip = 0
	}
	return &SequenceSource{frames: frames, frameSkip: frameSkip}
}

// Next skips frameSkip frames then reads one.
// At end of stream it rewinds to frame 0 and tries exactly once more.
func (s *SequenceSource) Next() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSourceExhausted
	}

	s.pos += s.frameSkip
	if frame, ok := s.readAt(s.pos); ok {
		s.pos++
		return frame, nil
	}

	// rewind
	s.pos = 0
	if frame, ok := s.readAt(s.pos); ok {
		s.pos++
		return frame, nil
	}
	return nil, ErrSourceExhausted
}

// Close releases the sequence; later reads fail
func (s *SequenceSource) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *SequenceSource) readAt(i int) (*Frame, bool) {
	if i < 0 || i >= len(s.frames) {
		return nil, false
	}
	data, err := os.ReadFile(s.frames[i])
	if err != nil {
		return nil, false
	}
	return &Frame{Name: filepath.Base(s.frames[i]), Data: data}, true
}
