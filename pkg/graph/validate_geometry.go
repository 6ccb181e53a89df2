package graph

import (
	"fmt"
	"math"
)

// ---------------------------------------------------------------------------
// Tier 2: geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// validateGeometry runs all Tier 2 geometric checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(g *Graph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	errs = append(errs, validateDimensions(g)...)
	errs = append(errs, validateFilletRadii(g)...)
	warnings = append(warnings, validateFilletLimits(g)...)

	return errs, warnings
}

// validateDimensions checks that every primitive has positive, finite
// dimensions and a finite placement.
func validateDimensions(g *Graph) []ValidationError {
	var errs []ValidationError
	for _, n := range g.Nodes() {
		pd, ok := n.Data.(PrimitiveData)
		if !ok {
			continue
		}
		if err := pd.Check(); err != nil {
			errs = append(errs, ValidationError{
				ID:       n.ID,
				Message:  err.Error(),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateFilletRadii checks every fillet against its edges' feasibility
// bounds.
func validateFilletRadii(g *Graph) []ValidationError {
	var errs []ValidationError
	for _, n := range g.Nodes() {
		fd, ok := n.Data.(FilletData)
		if !ok {
			continue
		}
		if len(fd.Edges) == 0 {
			errs = append(errs, ValidationError{
				ID:       n.ID,
				Message:  "fillet has no edges",
				Severity: SeverityError,
			})
			continue
		}
		for _, e := range fd.Edges {
			owner, err := g.Primitive(e.Solid)
			if err != nil {
				continue // reported by Tier 1
			}
			if err := owner.CheckFilletRadius(e.Index, fd.Radius); err != nil {
				errs = append(errs, ValidationError{
					ID:       n.ID,
					Message:  err.Error(),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateFilletLimits warns when a box fillet sits exactly on its bound:
// the rounds from both sides of a face meet and leave no flat strip.
func validateFilletLimits(g *Graph) []ValidationWarning {
	var warnings []ValidationWarning
	for _, n := range g.Nodes() {
		fd, ok := n.Data.(FilletData)
		if !ok {
			continue
		}
		for _, e := range fd.Edges {
			owner, err := g.Primitive(e.Solid)
			if err != nil {
				continue
			}
			limit, exclusive, err := owner.MaxFillet(e.Index)
			if err != nil || exclusive {
				continue
			}
			if math.Abs(fd.Radius-limit) <= 1e-9*math.Max(1, limit) {
				warnings = append(warnings, ValidationWarning{
					ID:      n.ID,
					Message: fmt.Sprintf("fillet radius %g on %s consumes the whole adjacent face", fd.Radius, e),
				})
			}
		}
	}
	return warnings
}
