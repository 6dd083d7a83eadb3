// Package downloader writes classified tomb images to disk exactly once.
//
// Two images are the same when their resolved URLs share a canonical
// identity or when their bytes share a BLAKE2b checksum. The record of
// what has been written is owned by the caller and passed to every
// Download call, so a run can use a fresh in-memory record or one that
// persists across runs.
//
//	rec := record.NewMemory()
//	d := downloader.New(client, storageManager, "amduat", log)
//	res := d.Download(ctx, ref, rec)
//	if res.Outcome == downloader.Failed {
//		// res.Err is a *errors.DownloadError
//	}
package downloader
