// Package facade defines the authoring data model for building facades.
//
// A Building is an ordered stack of Layers. Each Layer owns a clockwise
// footprint polygon, vertical extents, and per-face authoring data: a
// default wall depth, bays with their own depth specs and openings,
// segment-level depth overrides, and corner cutout wants. The model is
// read-only input to the fabrication pipeline; one build never mutates it.
package facade
