// Command verdin-dump prints the contents of a verdin page file:
// page headers, cells, resolved values and their time windows.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/verdindb/verdin"
)

var (
	pageSize = flag.Int("page-size", verdin.DefaultPageSize, "page size of the file")
	pageNo   = flag.Int64("page", -1, "dump only this page number")
	verbose  = flag.BoolP("verbose", "v", false, "dump cell contents, not just headers")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: verdin-dump [flags] <page-file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	src, err := verdin.OpenFileSource(flag.Arg(0), *pageSize, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verdin-dump: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	for no := uint32(0); no < src.NumPages(); no++ {
		if *pageNo >= 0 && uint32(*pageNo) != no {
			continue
		}
		if err := dumpPage(src, no); err != nil {
			fmt.Fprintf(os.Stderr, "verdin-dump: page %d: %v\n", no, err)
			os.Exit(1)
		}
	}
}

func dumpPage(src *verdin.FileSource, no uint32) error {
	p, err := src.Page(no)
	if err != nil {
		return err
	}

	switch p.Kind() {
	case verdin.KindRowLeaf:
		fmt.Printf("page %d: row leaf, %d entries, txn %d\n", no, p.NumEntries(), p.Txnid())
		if *verbose {
			return dumpRowLeaf(src, p)
		}
	case verdin.KindColVar:
		fmt.Printf("page %d: var column, %d entries, txn %d\n", no, p.NumEntries(), p.Txnid())
		if *verbose {
			return dumpColVar(src, p)
		}
	case verdin.KindColFix:
		fmt.Printf("page %d: fixed column, %d records, %d bits each, txn %d\n",
			no, p.RecordCount(), p.BitWidth(), p.Txnid())
		if *verbose {
			return dumpColFix(src, p)
		}
	case verdin.KindOverflow:
		fmt.Printf("page %d: overflow\n", no)
	}
	return nil
}

func dumpRowLeaf(src *verdin.FileSource, p *verdin.Page) error {
	cur := verdin.NewCursor(src, nil)
	ref := &verdin.PageRef{Page: p}
	var w verdin.TimeWindow
	for slot := 0; slot < p.NumEntries(); slot++ {
		cur.SetRowPosition(ref, slot, 1, nil)
		if err := cur.EnsureKey(); err != nil {
			return err
		}
		if err := cur.EnsureValue(verdin.NoUpdate); err != nil {
			return err
		}
		if err := cur.ReadTimeWindow(&w); err != nil {
			return err
		}
		fmt.Printf("  %d: %q = %q %s\n", slot, cur.Key(), cur.Value(), w.String())
	}
	return nil
}

func dumpColVar(src *verdin.FileSource, p *verdin.Page) error {
	cur := verdin.NewCursor(src, nil)
	ref := &verdin.PageRef{Page: p}
	var w verdin.TimeWindow
	for slot := 0; slot < p.NumEntries(); slot++ {
		cur.SetColumnPosition(ref, slot, uint64(slot), nil)
		if err := cur.EnsureValue(verdin.NoUpdate); err != nil {
			return err
		}
		if err := cur.ReadTimeWindow(&w); err != nil {
			return err
		}
		fmt.Printf("  %d: %q %s\n", slot, cur.Value(), w.String())
	}
	return nil
}

func dumpColFix(src *verdin.FileSource, p *verdin.Page) error {
	cur := verdin.NewCursor(src, nil)
	ref := &verdin.PageRef{Page: p}
	for recno := uint64(0); recno < uint64(p.RecordCount()); recno++ {
		cur.SetColumnPosition(ref, 0, recno, nil)
		if err := cur.EnsureValue(verdin.NoUpdate); err != nil {
			return err
		}
		fmt.Printf("  %d: %d\n", recno, cur.Value()[0])
	}
	return nil
}
