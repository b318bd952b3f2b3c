// Package ingest prepares persona records for the engine and stores them.
//
// Ingestion fills in what a raw persona export lacks: the embedding
// profile text, the retrieval vector and the clustering vector. Missing
// vectors are generated in batches on a worker pool, with retry and
// exponential backoff around every embedding call, then scrubbed and
// normalized to unit length. Personas that end up without both vectors
// are skipped so the stored population can always be indexed and
// clustered.
package ingest
