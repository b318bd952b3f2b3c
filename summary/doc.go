// Package summary turns a cluster assignment into per-cluster demographics
// and narratives, and tallies population-wide gender and age distributions.
//
// Demographic parsing is lenient: fields that cannot be found are omitted.
package summary
