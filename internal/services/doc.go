// Package services defines shared utilities consumed by the pipeline stages
// and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and segment names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (configuration, synthesis, asset, encoding) without losing the cause.
//
// Every stage failure is wrapped once with its marker and then returned
// unchanged; nothing in the pipeline retries.
package services
