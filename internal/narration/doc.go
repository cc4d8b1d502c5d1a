// Package narration turns captions into timed speech tracks.
//
// Builder synthesizes each caption in order, writes the audio into the run's
// audio directory, measures it with ffprobe and places it on the timeline at
// the running sum of the measured durations. Nominal caption timings are never
// consulted.
//
// Two Synthesizer implementations are provided: the Google Translate speech
// endpoint (no account required) and Google Cloud Text-to-Speech.
package narration
