// Package cmd implements the locustgen CLI commands using Cobra.
//
// Available commands:
//   - record: Run an intercepting proxy and write one script per host
//   - generate: Rebuild scripts from a flow journal
//   - import: Build scripts from HAR exports or curl command files
//   - clip: Copy rendered tasks or a full script to the clipboard
//   - init: Write a starter .locustgen.yaml
//   - version: Show locustgen version information
//
// Settings are read from .locustgen.yaml and overridden by flags that
// are set explicitly on the command line.
package cmd
