// Package security gates source code before it runs in the host process.
//
// A Scanner runs two layers in order:
//
//   - Pre-parse shell scanning: cell magics, shell-escape lines and
//     get_ipython() bypasses that never reach the Python parser
//   - AST scanning: seven rule families over the parsed tree, with import
//     aliases resolved (see package pyscan)
//
// Both layers produce findings from one rule catalog. The Policy decides
// which severities block. Scanning never executes, persists or fails: every
// input yields a ScanResult.
package security
