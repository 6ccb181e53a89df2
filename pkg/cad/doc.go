// Package cad defines the typed command model shared by the parser, the
// script engine, and the executor: operations, sparse shape parameters,
// command trees, solid handles, and viewport selections.
package cad
