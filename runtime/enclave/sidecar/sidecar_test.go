package sidecar_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/goa-ai/runtime/enclave/enclaveerrors"
	"goa.design/goa-ai/runtime/enclave/sidecar"
)

func TestStoreAndResolve_RoundTrips(t *testing.T) {
	s := sidecar.New(sidecar.ReferenceConfig{MaxTotalSize: 1024, MaxResolvedSize: 1024})
	id, err := s.Store("hello world")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "ref:"))

	value, err := s.Resolve(id)
	require.NoError(t, err)
	assert.Equal(t, "hello world", value)
}

func TestResolve_UnknownID(t *testing.T) {
	s := sidecar.New(sidecar.ReferenceConfig{})
	_, err := s.Resolve("ref:does-not-exist")
	require.Error(t, err)
	assert.True(t, enclaveerrors.As(err, enclaveerrors.CodeReferenceMissing))
}

func TestStore_RejectsOverReferenceSize(t *testing.T) {
	s := sidecar.New(sidecar.ReferenceConfig{MaxReferenceSize: 4})
	_, err := s.Store("too long")
	require.Error(t, err)
	assert.True(t, enclaveerrors.As(err, enclaveerrors.CodeReferenceTooBig))
}

func TestStore_RejectsOverTotalSize(t *testing.T) {
	s := sidecar.New(sidecar.ReferenceConfig{MaxTotalSize: 10})
	_, err := s.Store("0123456789")
	require.NoError(t, err)
	_, err = s.Store("x")
	require.Error(t, err)
	assert.True(t, enclaveerrors.As(err, enclaveerrors.CodeReferenceTooBig))
}

func TestStore_RejectsOverReferenceCount(t *testing.T) {
	s := sidecar.New(sidecar.ReferenceConfig{MaxReferenceCount: 1})
	_, err := s.Store("a")
	require.NoError(t, err)
	_, err = s.Store("b")
	require.Error(t, err)
	assert.True(t, enclaveerrors.As(err, enclaveerrors.CodeEnclave))
}

func TestResolve_CumulativeBudgetAcrossCalls(t *testing.T) {
	s := sidecar.New(sidecar.ReferenceConfig{MaxResolvedSize: 6})
	idA, err := s.Store("abc")
	require.NoError(t, err)
	idB, err := s.Store("def")
	require.NoError(t, err)
	idC, err := s.Store("ghi")
	require.NoError(t, err)

	_, err = s.Resolve(idA)
	require.NoError(t, err)
	_, err = s.Resolve(idB)
	require.NoError(t, err)

	_, err = s.Resolve(idC)
	require.Error(t, err)
	assert.True(t, enclaveerrors.As(err, enclaveerrors.CodeReferenceTooBig))
}

func TestResolve_FollowsCompositeChainWhenAllowed(t *testing.T) {
	s := sidecar.New(sidecar.ReferenceConfig{AllowComposites: true, MaxResolutionDepth: 2})
	inner, err := s.Store("leaf value")
	require.NoError(t, err)
	outer, err := s.Store(inner)
	require.NoError(t, err)

	value, err := s.Resolve(outer)
	require.NoError(t, err)
	assert.Equal(t, "leaf value", value)
}

func TestResolve_RejectsChainDeeperThanMaxDepth(t *testing.T) {
	s := sidecar.New(sidecar.ReferenceConfig{AllowComposites: true, MaxResolutionDepth: 1})
	inner, err := s.Store("leaf value")
	require.NoError(t, err)
	outer, err := s.Store(inner)
	require.NoError(t, err)
	outermost, err := s.Store(outer)
	require.NoError(t, err)

	_, err = s.Resolve(outermost)
	require.Error(t, err)
	assert.True(t, enclaveerrors.As(err, enclaveerrors.CodeReferenceDepth))
}

func TestDispose_IsIdempotentAndClearsState(t *testing.T) {
	s := sidecar.New(sidecar.ReferenceConfig{})
	id, err := s.Store("x")
	require.NoError(t, err)

	s.Dispose()
	s.Dispose()

	_, err = s.Resolve(id)
	require.Error(t, err)
	assert.True(t, enclaveerrors.As(err, enclaveerrors.CodeEnclave))
}
