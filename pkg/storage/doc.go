// Package storage lays out downloaded images on disk.
//
// Files live under <output>/<text>/<section>/<filename>. Names are derived
// deterministically from section labels and image URLs, and writes go
// through a temporary file plus rename.
package storage
