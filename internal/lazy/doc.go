// Package lazy implements a small algebra of deferred, possibly-unset
// values. A Value carries no result until it is read; combinators build new
// deferred values without evaluating their inputs, and the unset state
// propagates through every combinator without invoking user transforms.
package lazy
