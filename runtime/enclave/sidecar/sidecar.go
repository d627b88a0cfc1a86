// Package sidecar implements the Reference Sidecar: a content-addressed,
// in-memory store that keeps large strings out of the sandbox while still
// letting AgentScript resolve them through __safe_resolveRef.
package sidecar

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
)

// ReferenceConfig bounds a Store. It mirrors enclave.ReferenceConfig field
// for field; duplicated (rather than imported) so this package has no
// dependency on the enclave package, which in turn depends on this one
// through the enclave.Sidecar interface — importing it back would cycle.
type ReferenceConfig struct {
	MaxTotalSize        int
	MaxReferenceSize    int
	ExtractionThreshold int
	MaxResolvedSize     int
	AllowComposites     bool
	MaxReferenceCount   int
	MaxResolutionDepth  int
}

type entry struct {
	value string
}

// refPrefix marks a stored value that is itself a pointer to another
// reference rather than terminal content. Resolve follows these chains when
// AllowComposites is set, counting hops against MaxResolutionDepth; when it
// isn't, such a value is returned verbatim as an opaque string, matching the
// invariant that composites are rejected.
const refPrefix = "ref:"

// Store is an in-memory Reference Sidecar bounded by a ReferenceConfig. Its
// Store/Resolve/Dispose methods satisfy enclave.Sidecar by signature. A Store
// is scoped to a single execution, so resolvedBytes accumulates across every
// Resolve call made during that execution's lifetime.
type Store struct {
	mu            sync.Mutex
	cfg           ReferenceConfig
	byID          map[string]entry
	total         int
	resolvedBytes int
	closed        bool
}

// New constructs a Store bounded by cfg.
func New(cfg ReferenceConfig) *Store {
	return &Store{cfg: cfg, byID: make(map[string]entry)}
}

// Store persists value and returns a reference id resolvable via Resolve
// for the lifetime of this Store. Fails with REFERENCE_SIZE_EXCEEDED if
// storing value would exceed MaxTotalSize or MaxReferenceSize, and with
// ENCLAVE_ERROR if MaxReferenceCount is already reached.
func (s *Store) Store(value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", enclaveerrors.New(enclaveerrors.CodeEnclave, "sidecar is disposed")
	}
	if s.cfg.MaxReferenceSize > 0 && len(value) > s.cfg.MaxReferenceSize {
		return "", enclaveerrors.Newf(enclaveerrors.CodeReferenceTooBig,
			"value of %d bytes exceeds max reference size %d", len(value), s.cfg.MaxReferenceSize)
	}
	if s.cfg.MaxTotalSize > 0 && s.total+len(value) > s.cfg.MaxTotalSize {
		return "", enclaveerrors.Newf(enclaveerrors.CodeReferenceTooBig,
			"storing %d bytes would exceed max total sidecar size %d", len(value), s.cfg.MaxTotalSize)
	}
	if s.cfg.MaxReferenceCount > 0 && len(s.byID) >= s.cfg.MaxReferenceCount {
		return "", enclaveerrors.Newf(enclaveerrors.CodeEnclave,
			"sidecar reference count limit of %d reached", s.cfg.MaxReferenceCount)
	}

	id := fmt.Sprintf("ref:%s", uuid.NewString())
	s.byID[id] = entry{value: value}
	s.total += len(value)
	return id, nil
}

// Resolve returns the value stored under id. Fails with REFERENCE_NOT_FOUND
// if id (or a ref it chains to) is unknown, with REFERENCE_DEPTH_EXCEEDED if
// following a chain of composite references exceeds MaxResolutionDepth, and
// with REFERENCE_SIZE_EXCEEDED if the resolved value's bytes, added to every
// byte this Store has already resolved, would exceed MaxResolvedSize.
func (s *Store) Resolve(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", enclaveerrors.New(enclaveerrors.CodeEnclave, "sidecar is disposed")
	}

	depth := 0
	for {
		e, ok := s.byID[id]
		if !ok {
			return "", enclaveerrors.Newf(enclaveerrors.CodeReferenceMissing, "reference %q not found", id)
		}
		if s.cfg.AllowComposites && strings.HasPrefix(e.value, refPrefix) {
			depth++
			if s.cfg.MaxResolutionDepth > 0 && depth > s.cfg.MaxResolutionDepth {
				return "", enclaveerrors.Newf(enclaveerrors.CodeReferenceDepth,
					"reference chain depth exceeds max resolution depth %d", s.cfg.MaxResolutionDepth)
			}
			id = e.value
			continue
		}

		if s.cfg.MaxResolvedSize > 0 && s.resolvedBytes+len(e.value) > s.cfg.MaxResolvedSize {
			return "", enclaveerrors.Newf(enclaveerrors.CodeReferenceTooBig,
				"resolving %d more bytes would exceed max resolved size %d (already resolved %d)",
				len(e.value), s.cfg.MaxResolvedSize, s.resolvedBytes)
		}
		s.resolvedBytes += len(e.value)
		return e.value, nil
	}
}

// Dispose releases all stored values. Idempotent.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.byID = nil
}
