// Package extension holds the configuration extensions of the verification
// integrations. A typed registry keys each extension by its integration ID
// and hands back strongly-typed handles; a single finalization barrier runs
// each extension's automatic policy exactly once and freezes its fields, so
// activation conditions evaluated later always observe settled state.
package extension
