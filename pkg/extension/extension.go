// Package extension defines how deployments plug term extraction into the
// searchterms plugin. An implementation supplies an eligibility predicate
// and an extractor; a Registry holds the registered implementations and
// uses the last one registered for each callback.
package extension

import (
	"context"
	"sync"

	"github.com/agentstation/searchterms/pkg/errors"
	"github.com/agentstation/searchterms/pkg/host"
	"github.com/agentstation/searchterms/pkg/terms"
)

// Eligibility decides whether search terms are computed for a resource.
type Eligibility interface {
	IsEligible(resource *host.Resource) bool
}

// Extractor computes the search terms of one resource.
type Extractor interface {
	Extract(ctx context.Context, req Request) (*terms.Table, error)
}

// Request is the input of an extraction.
type Request struct {
	Resource *host.Resource
	Dataset  *host.Dataset
	// Existing is the dataset's current consolidated table, or nil.
	Existing *terms.Table
	// Path is the local file of the resource, when the host stores one.
	Path string
}

// EligibilityFunc adapts a function to Eligibility.
type EligibilityFunc func(resource *host.Resource) bool

// IsEligible calls f.
func (f EligibilityFunc) IsEligible(resource *host.Resource) bool {
	return f(resource)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, req Request) (*terms.Table, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, req Request) (*terms.Table, error) {
	return f(ctx, req)
}

// Registry holds registered extension implementations.
type Registry struct {
	mu          sync.RWMutex
	eligibility []Eligibility
	extractors  []Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds impl for every callback it implements. It returns a
// validation error when impl implements neither.
func (r *Registry) Register(impl any) error {
	e, isEligibility := impl.(Eligibility)
	x, isExtractor := impl.(Extractor)
	if !isEligibility && !isExtractor {
		return errors.NewValidationError("extension", impl, "implements neither Eligibility nor Extractor")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if isEligibility {
		r.eligibility = append(r.eligibility, e)
	}
	if isExtractor {
		r.extractors = append(r.extractors, x)
	}
	return nil
}

// Eligibility returns the last registered eligibility predicate.
func (r *Registry) Eligibility() (Eligibility, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.eligibility) == 0 {
		return nil, errors.NewConfigError("extension", "no eligibility predicate is registered", errors.ErrNoExtension)
	}
	return r.eligibility[len(r.eligibility)-1], nil
}

// Extractor returns the last registered extractor.
func (r *Registry) Extractor() (Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.extractors) == 0 {
		return nil, errors.NewConfigError("extension", "no extractor is registered", errors.ErrNoExtension)
	}
	return r.extractors[len(r.extractors)-1], nil
}

// IsEligible applies the registered predicate. It fails with a
// configuration error when none is registered.
func (r *Registry) IsEligible(resource *host.Resource) (bool, error) {
	e, err := r.Eligibility()
	if err != nil {
		return false, err
	}
	return e.IsEligible(resource), nil
}

// Extract runs the registered extractor. Failures of the extractor are
// returned as extraction errors; a missing extractor is a configuration
// error.
func (r *Registry) Extract(ctx context.Context, req Request) (*terms.Table, error) {
	x, err := r.Extractor()
	if err != nil {
		return nil, err
	}
	table, err := x.Extract(ctx, req)
	if err != nil {
		return nil, errors.NewExtractionError(req.Resource.ID, err)
	}
	if table == nil {
		return nil, errors.NewExtractionError(req.Resource.ID, errors.New("extractor returned no table"))
	}
	return table, nil
}
