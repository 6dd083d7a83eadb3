// Package tombs discovers the tomb documentation pages of the Valley of the
// Kings.
//
// The index page is scanned for links of the form /tombs/kv-<n>, optionally
// with a letter suffix. An unreachable index and an index without any tomb
// links are reported as distinct kinds of errors.DiscoveryError.
package tombs
