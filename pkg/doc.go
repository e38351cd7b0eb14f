// Package pkg provides the core libraries for the Heirloom genealogy canvas.
//
// # Overview
//
// Heirloom models a family tree as a graph of people and renders it on a
// pannable, zoomable canvas. The pkg directory is organized by concern:
//
//  1. [tree] - Graph model (people, parent/partner edges, invariants)
//  2. [geom] - Connector and grid geometry (Bézier curves, arrowheads)
//  3. [layout] - Deterministic generation-row auto-layout
//  4. [canvas] - Viewport, interaction state machine, scene composition
//  5. [render] - SVG, DOT, and raster export
//  6. [store] - Persistence backends (memory, sqlite, mongo)
//  7. [palette] - Generation color assignments
//  8. [media] - Attachment vault for portraits
//  9. [cache] - Content-addressed artifact cache (file, redis)
//
// # Architecture
//
// The typical data flow through Heirloom:
//
//	store (load snapshot)
//	     ↓
//	[tree] package (graph model + invariants)
//	     ↓
//	[layout] package (positions per generation)
//	     ↓
//	[canvas] package (viewport transform + scene)
//	     ↓
//	[render] package (SVG/PNG/PDF/DOT output)
//
// Interactive editing runs the other way: gestures reach the canvas
// controllers, which mutate the tree and push snapshots back to the store.
package pkg
