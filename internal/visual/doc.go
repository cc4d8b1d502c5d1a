// Package visual builds the canvas-sized video tracks that sit under the
// narration.
//
// Slot 0 shows the source clip, trimmed to the intro narration and cover-fit
// onto the canvas. Every later slot shows a still image resized to exactly the
// canvas with Lanczos-3 and held for its narration. Slots without an image are
// narration only. Composite overlays every present track on a black base at
// its narration offset, producing a single ffmpeg-go stream for the exporter.
package visual
