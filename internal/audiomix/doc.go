// Package audiomix builds the soundtrack graph: every narration clip delayed
// to its start offset and summed at unity gain, plus an optional background
// bed that is looped, trimmed to the narration length and attenuated.
package audiomix
