package cad

import "fmt"

// SolidID is an index handle into a kernel session's solid arena. Epoch
// identifies the session generation that allocated it; the zero value is
// never a valid handle.
type SolidID struct {
	Epoch uint32 `json:"epoch"`
	Index uint32 `json:"index"`
}

// IsZero reports whether id is the zero (invalid) handle.
func (id SolidID) IsZero() bool {
	return id.Index == 0
}

func (id SolidID) String() string {
	if id.IsZero() {
		return "solid<nil>"
	}
	return fmt.Sprintf("s%d@%d", id.Index, id.Epoch)
}

// EdgeRef names one edge of a primitive solid. Edges survive booleans and
// fillets under the identity of the primitive that created them.
type EdgeRef struct {
	Solid SolidID `json:"solid"`
	Index int     `json:"index"`
}

func (e EdgeRef) String() string {
	return fmt.Sprintf("%s/e%d", e.Solid, e.Index)
}

// SelectionKind distinguishes picked sub-entities.
type SelectionKind int

const (
	SelectEdge SelectionKind = iota
	SelectFace
)

func (k SelectionKind) String() string {
	switch k {
	case SelectEdge:
		return "edge"
	case SelectFace:
		return "face"
	default:
		return "unknown"
	}
}

// Selection is a sub-entity picked in the viewport. Its lifetime is bound
// to the viewport's pick state.
type Selection struct {
	Solid SolidID       `json:"solid"`
	Kind  SelectionKind `json:"kind"`
	Index int           `json:"index"`
}

func (s Selection) String() string {
	return fmt.Sprintf("%s %s#%d", s.Solid, s.Kind, s.Index)
}
