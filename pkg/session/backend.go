package session

import (
	"context"
	"fmt"

	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/manifold"
	"github.com/chazu/kerf/pkg/kernel/sdfx"
)

// Backend names accepted by BackendFactory.
const (
	BackendSdfx     = "sdfx"
	BackendManifold = "manifold"
)

// BackendOptions tunes the kernel a BackendFactory builds.
type BackendOptions struct {
	MeshCells        int // sdfx marching cubes resolution
	CylinderSegments int // manifold facets per circle
}

// BackendFactory returns a Factory for the named kernel backend.
func BackendFactory(name string, opts BackendOptions) (Factory, error) {
	switch name {
	case BackendSdfx, "":
		return func(context.Context) (kernel.Kernel, error) {
			return sdfx.New(sdfx.WithMeshCells(opts.MeshCells)), nil
		}, nil
	case BackendManifold:
		return func(context.Context) (kernel.Kernel, error) {
			return manifold.New(opts.CylinderSegments)
		}, nil
	default:
		return nil, fmt.Errorf("session: unknown kernel backend %q", name)
	}
}
