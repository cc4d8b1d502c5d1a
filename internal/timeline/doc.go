// Package timeline defines the segment, track, and canvas types shared by the
// narration, visual, audio, and export stages.
//
// A run starts from an ordered list of Segments. Narration synthesis turns
// each Segment into a NarrationTrack whose measured duration is authoritative;
// every later stage places its output using the NarrationTrack start offsets
// computed here, never the Segment's nominal start.
//
// Key helpers:
//   - Offsets: cumulative start offsets for a list of durations
//   - TotalDuration: end time of the latest track
//   - Slot: explicit present/absent visual per timeline entry
package timeline
