// Package density implements HDBSCAN, hierarchical density-based clustering
// over Euclidean distance.
//
// Points are linked by mutual reachability distance, the minimum spanning
// tree of that graph is turned into a single-linkage hierarchy, the hierarchy
// is condensed by the minimum cluster size, and the most stable clusters are
// selected (excess of mass). The number of clusters is found automatically;
// points that belong to no selected cluster are labeled Noise.
package density
