package cv

// Option overrides per-call matching settings
type Option func(*cvOptions)

type cvOptions struct {
	threshold float64
	region    *Region
}

// WithThreshold sets the matching threshold option
func WithThreshold(t float64) Option {
	return func(opts *cvOptions) {
		opts.threshold = t
	}
}

// WithRegion sets the search region option
func WithRegion(r Region) Option {
	return func(opts *cvOptions) {
		opts.region = &r
	}
}

