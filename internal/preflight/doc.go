// Package preflight provides readiness checks for the binaries, directories
// and credentials a render depends on.
//
// These checks run in two contexts:
//   - The render command calls RunAll before any narration is synthesized,
//     so a doomed run fails before spending network and encode time.
//   - The CLI "xhsvideo doctor" command prints every check as a table.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
