// Package classify maps parsed filenames onto upload destinations: a target
// library chosen by weighted attribute scoring, and a target collection
// chosen from a priority-ordered routing table keyed by content type and
// term.
package classify
