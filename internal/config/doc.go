// Package config loads, normalizes, and validates xhsvideo configuration and
// project files.
//
// It supplies repository defaults (a 1080x1440 canvas at 24 fps), expands user
// paths (including tilde shortcuts), derives the per-purpose directories from
// paths.work_dir, reads TOML files, and honours environment fallbacks such as
// GOOGLE_APPLICATION_CREDENTIALS and XHSVIDEO_BGM.
//
// A project file lists the captions, the source video directory and the still
// images for one render; LoadProject resolves it into timeline segments.
package config
