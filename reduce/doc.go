// Package reduce implements a seeded, neighborhood-preserving nonlinear
// projection in the style of UMAP.
//
// Points are connected to their k nearest neighbors under cosine distance,
// neighbor distances are turned into fuzzy memberships and symmetrized, and
// a low-dimensional layout is initialized from the graph's spectral embedding
// and refined by stochastic gradient descent with negative sampling.
//
// Neighbor search is exhaustive, which suits the few hundred retrieved
// personas a query clusters. All randomness flows from Params.Seed.
package reduce
