// Package verdin implements the cursor read path of a B-tree storage
// engine: materializing the externally visible key and value bytes for
// a positioned page slot, together with the MVCC time window the value
// was written under.
//
// A positioning operation (search, iteration) selects a slot on a
// row-store leaf or a column-store page, optionally with a pending
// insert-list entry and an exact-match indicator. The cursor then
// reconciles the possible sources of truth for the current key/value:
//
//   - the in-memory insert entry's key and update chain,
//   - the exact-match key a search already decoded into scratch,
//   - the raw on-page cell (compressed, overflow-resolved), or
//   - one bit-packed unit of a fixed-width column.
//
// Key features:
//   - Row-store and column-store (fixed and variable) page layouts
//   - Per-value MVCC time windows with a globally-visible default
//   - Snappy cell compression and single-page overflow values
//   - xxhash64 page checksums verified at load
//   - Memory-mapped page files
//
// Basic usage:
//
//	src, err := verdin.OpenFileSource("/path/to/pages", verdin.DefaultPageSize, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer src.Close()
//
//	page, err := src.Page(0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cur := verdin.NewCursor(src, nil)
//	cur.SetRowPosition(&verdin.PageRef{Page: page}, 0, 1, nil)
//	if err := cur.EnsureKey(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := cur.EnsureValue(verdin.NoUpdate); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%s = %s\n", cur.Key(), cur.Value())
//
// Visibility decisions are out of scope: the transaction layer selects
// which version to read (producing an UpdateView) and interprets the
// time windows this package extracts.
package verdin
