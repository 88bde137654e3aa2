// Package enrich attaches embeddings to profiles ahead of ranking.
//
// Ranking never calls an embedding service. Instead, Enricher turns text
// responses into vectors for requesters and candidates, caching each vector
// under a key derived from the model name and the text. Reembedder walks
// every stored candidate in batches to recompute vectors after a model change.
package enrich
