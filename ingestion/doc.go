// Package ingestion turns a folder of circulars into a corpus snapshot.
//
// The Pipeline type manages the ingestion workflow, including:
//   - Listing supported files in a directory, in filename order
//   - Extracting raw text concurrently on a worker pool
//   - Embedding documents in batches with retry and an optional cache
//   - Building the immutable corpus.Snapshot
//
// Ingestion is synchronous: Build returns only once the snapshot is ready
// to serve, or fails as a whole.
package ingestion
