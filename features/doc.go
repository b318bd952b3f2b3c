// Package features builds the mixed semantic and numeric feature matrix used
// for clustering.
//
// Each row concatenates a persona's cluster embedding with standardized
// numeric attributes mined from inline "name = number" tokens in its free-text
// key values. The demographics entry is never scanned. Missing numeric values
// are imputed with the column median, and every row of the final matrix is
// L2-normalized. The construction is deterministic.
package features
