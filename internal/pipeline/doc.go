// Package pipeline sequences one render:
//
//	synthesize-narration ─┐
//	prepare-visuals ──────┴─> build-visual-tracks -> composite-visual
//	                          -> mix-audio -> attach-audio -> export
//
// Narration synthesis and visual preparation (source probe, still resizing)
// run concurrently; every later stage waits for both. The only fork in the
// flow is whether a background bed is mixed.
//
// A RunContext owns everything a run creates: its id, timestamped working
// directories, the per-run log file teed with the console, and the output
// directory lock. Close releases all of them on every exit path.
package pipeline
