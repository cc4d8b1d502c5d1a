// Package export encodes the composited video and the soundtrack into the
// final MP4 with a fixed H.264/AAC profile.
//
// Encodes go to a "<name>.partial.mp4" sibling and are renamed into place
// only after ffmpeg exits cleanly, so a failed run never leaves something
// that looks like a finished artifact.
package export
