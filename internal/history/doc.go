// Package history keeps a SQLite ledger of render runs and the segment
// boundaries each run produced. Comparing boundaries across runs of the same
// project shows whether narration timing was reproduced exactly.
package history
