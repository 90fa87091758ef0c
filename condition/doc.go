// Package condition evaluates boolean conditions over model variables and
// keeps dependent state, such as object visibility, in sync as the
// variables change.
//
// A [Condition] is a fixed list of clauses joined by AND and OR. Each
// clause tests one [Variable]. Instead of re-evaluating whole expressions,
// every condition keeps a weighted counter that is non-negative exactly
// when the condition holds, and every variable keeps the list of clauses
// that test it. Setting a variable walks only that list, adjusts the
// counters of the clauses whose result flipped, and notifies the listeners
// of each condition whose truth changed.
//
// AND clauses weigh one more than the number of OR clauses and OR clauses
// weigh one. The counter starts at minus the total AND weight, less one
// more when any OR clause is present, so it reaches zero once every AND
// clause and at least one OR clause is satisfied.
//
// Values of this package are not safe for concurrent use.
package condition
