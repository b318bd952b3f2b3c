// Package cluster segments a retrieved persona subset.
//
// Cluster builds the mixed feature matrix, projects it with reduce, groups
// the projection with density, folds noise points into the nearest cluster
// centroid, renumbers clusters from zero and picks each cluster's medoid as
// its representative. Subsets smaller than MinPersonas skip all of this and
// form one cluster.
//
// AssignNoise, Relabel and Medoids are exported so each step can be used and
// tested on its own.
package cluster
