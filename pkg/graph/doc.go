// Package graph defines the feature graph for Kerf.
// The feature graph is an arena of solid nodes (primitives, booleans and
// fillets) addressed by cad.SolidID handles. Each handle is handed off
// exactly once: consuming it as an operand retires it from later use.
package graph
