// Package archive provides the layered record store the integrator reads
// content units from and writes patched units to.
//
// An archive is a flat set of named byte records. Three layers are searched
// when a graph is requested:
//
//   - the output archive (so strategies that patch the same unit compose)
//   - mod archives, highest priority first
//   - base-game archives
//
// Writes always go to the single output archive.
//
// # Container format
//
// On disk an archive is a SQLite database with one records table. Each
// record stores its payload compressed with zstd or lz4 (or uncompressed when
// compression does not pay off) next to the blake3 digest of the uncompressed
// bytes, which is verified on every read.
package archive
