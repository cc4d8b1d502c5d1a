// Package textutil provides filename helpers and caption chunking.
//
// Segment names become part of per-run artifact names, and long captions are
// split into provider-sized chunks on sentence and clause boundaries.
package textutil
