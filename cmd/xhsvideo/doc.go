// Package main hosts the xhsvideo CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration, wires the render pipeline and
// surfaces the supporting tools: config and project scaffolding, the doctor
// preflight and the run history ledger. Rendering logic lives in the internal
// packages; commands here only resolve inputs and format results.
package main
