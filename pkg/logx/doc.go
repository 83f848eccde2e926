// Package logx configures meetremind's structured logging.
//
// A small value-type wrapper (logx.Logger) on top of zerolog keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured, one object per line
//   - Level and sinks swappable at runtime through Service.Apply
package logx
