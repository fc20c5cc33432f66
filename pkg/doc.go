// Package pkg provides the core libraries for genealogical layout.
//
// # Overview
//
// Genart turns family relationship data into deterministic 2D layouts
// for generative art. The pkg directory is organized into:
//
//  1. [gen] - Relationship graphs (individuals, child and spouse links)
//  2. [walker] - Tree building and Walker-style positioning
//  3. [visual] - The shared visual-attribute document stages rewrite
//  4. [pipeline] - Stage assembly and orchestration
//  5. [cache] - Content-addressed caching of graphs and documents
//
// # Architecture
//
// The typical data flow:
//
//	family.json
//	     ↓
//	gen.Graph ──► pipeline (tree-layout → canvas-fit → tree-metrics)
//	                  ↓
//	          visual.Document
//
// Supporting packages: [errors] for structured error codes shared by
// the CLI and HTTP surfaces, [observability] for pipeline and cache
// hooks, [buildinfo] for version stamping.
package pkg
