// Package depscan is the dependency vulnerability-scanning integration. It
// owns the integration's configuration extension, selects the vulnerability
// data source, and wires the scan and suppression-file lifecycle tasks into
// the host pipeline. The scan engine itself is an external collaborator
// behind the Scanner interface.
package depscan
