// Package recompiled holds the output of the recompiler command: one
// F_%08x function per recompiled guest function plus RegisterFunctions,
// which wires every one of them into a Runtime's function table.
//
// This file is the placeholder the repository ships before any binary
// has been recompiled. Running `recompiler <config.toml>` overwrites
// every file in this directory, including this one, with the real
// generated functions for whatever ELF the config names.
package recompiled

import "github.com/ran-j/ps2recomp/internal/runtime"

// RegisterFunctions installs no functions. cmd/runtime still starts with
// an empty table rejected by Runtime.Run, so running it against this
// placeholder fails fast with a clear error instead of silently doing
// nothing.
func RegisterFunctions(rt *runtime.Runtime) {}
