// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Client implements Prober, which the narration builder, visual compositor
// and audio mixer use to measure synthesized speech, the source clip and the
// background music. Durations reported here are authoritative for timeline
// placement.
package ffprobe
