// Package record tracks which images have already been written.
//
// A Memory record lives for one run and is passed explicitly to the
// downloader. OpenSQLite returns a record persisted in an SQLite database so
// later runs skip images an earlier run already stored.
//
// Identity and Checksum compute the two deduplication keys: the canonical
// image URL and a BLAKE2b-256 digest of its bytes.
package record
