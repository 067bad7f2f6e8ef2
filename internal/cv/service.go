package cv

import (
	"context"
	"fmt"
	"image"
	"sync"
)

// TemplateSource resolves a catalog name to its template image
type TemplateSource interface {
	Load(name string) (*image.RGBA, Template, error)
}

// Service handles all computer vision operations for the control loop.
//
// Frames are tagged with the epoch they were captured in. Locate reuses the
// cached frame while the epoch is unchanged; Advance starts a new epoch and
// Refresh forces a capture within the current one.
type Service struct {
	capturer  Capturer
	templates TemplateSource
	threshold float64

	epoch      uint64
	frame      *image.RGBA
	frameEpoch uint64
	captures   uint64

	mu sync.Mutex
}

// NewService creates a new CV service
func NewService(capturer Capturer, templates TemplateSource) *Service {
	return &Service{
		capturer:  capturer,
		templates: templates,
		threshold: DefaultThreshold,
	}
}

// WithThreshold sets the default acceptance threshold
func (s *Service) WithThreshold(threshold float64) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	if threshold > 0 {
		s.threshold = threshold
	}
	return s
}

// Threshold returns the default acceptance threshold
func (s *Service) Threshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold
}

// Advance starts a new frame epoch and returns it
func (s *Service) Advance() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	return s.epoch
}

// Epoch returns the current frame epoch
func (s *Service) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Captures returns how many frames have been captured
func (s *Service) Captures() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captures
}

// Refresh forces a new capture for the current epoch
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.Frame(ctx, true)
	return err
}

// Frame returns the cached frame, capturing a new one when forced, when
// nothing is cached, or when the epoch has moved on.
func (s *Service) Frame(ctx context.Context, force bool) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !force && s.frame != nil && s.frameEpoch == s.epoch {
		return s.frame, nil
	}

	frame, err := s.capturer.Capture(ctx)
	if err != nil {
		return nil, err
	}

	s.frame = frame
	s.frameEpoch = s.epoch
	s.captures++
	return frame, nil
}

// Locate finds a catalog template in the current frame
func (s *Service) Locate(ctx context.Context, name string, opts ...Option) (*MatchResult, error) {
	frame, err := s.Frame(ctx, false)
	if err != nil {
		return nil, err
	}
	return s.LocateIn(frame, name, opts...)
}

// LocateIn finds a catalog template in the given frame
func (s *Service) LocateIn(frame *image.RGBA, name string, opts ...Option) (*MatchResult, error) {
	needle, template, err := s.templates.Load(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", name, err)
	}

	return FindTemplate(frame, needle, s.matchConfig(template, opts)), nil
}

// matchConfig merges call options over template settings over service defaults
func (s *Service) matchConfig(template Template, opts []Option) *MatchConfig {
	o := &cvOptions{}
	for _, opt := range opts {
		opt(o)
	}

	config := DefaultMatchConfig()
	config.Threshold = s.Threshold()

	if template.Threshold > 0 {
		config.Threshold = template.Threshold
	}
	if template.Region != nil {
		config.SearchRegion = template.Region.ToImageRectangle()
	}
	if template.Scale > 0 {
		config.Scale = template.Scale
	}

	if o.threshold > 0 {
		config.Threshold = o.threshold
	}
	if o.region != nil {
		config.SearchRegion = o.region.ToImageRectangle()
	}

	return config
}
