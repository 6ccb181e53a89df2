package command

import (
	"strings"

	"github.com/chazu/kerf/pkg/cad"
)

// primitiveFamily maps a primitive to the words that name it.
type primitiveFamily struct {
	Operation cad.Operation
	Keywords  []string
}

// primitiveFamilies is scanned in order; the first family with a keyword
// in the text wins.
var primitiveFamilies = []primitiveFamily{
	{Operation: cad.OpBox, Keywords: []string{"box", "cube", "block", "rectangular"}},
	{Operation: cad.OpCylinder, Keywords: []string{"cylinder", "tube", "pipe", "circular"}},
	{Operation: cad.OpSphere, Keywords: []string{"sphere", "ball", "round"}},
}

// ClassifyPrimitive names the primitive text asks for. Matching is a
// case-insensitive substring test; text naming no primitive is a box.
func ClassifyPrimitive(text string) cad.Operation {
	op, _ := classify(text)
	return op
}

// classify reports the primitive text names and whether any keyword hit.
func classify(text string) (cad.Operation, bool) {
	lower := strings.ToLower(text)
	for _, fam := range primitiveFamilies {
		for _, kw := range fam.Keywords {
			if strings.Contains(lower, kw) {
				return fam.Operation, true
			}
		}
	}
	return cad.OpBox, false
}
