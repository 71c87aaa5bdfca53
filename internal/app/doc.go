// Package app contains the core application logic: building the host
// pipeline, attaching the verification integrations behind the containment
// boundary, applying settings-file overrides, and driving the
// finalize-then-run lifecycle. It is decoupled from any specific entrypoint
// like the CLI.
package app
