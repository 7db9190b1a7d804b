// Package testutil builds deterministic reference genomes, simulated reads
// and FASTA fixtures for tests. Not intended for production usage.
package testutil
