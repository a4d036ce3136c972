// Package logtail reads lines from the end of append-only text files.
//
// # Overview
//
// Two access patterns are supported:
//
//  1. Read returns the last N lines in file order. The UI log tab uses it to
//     show the tail of the smqueue log.
//  2. ReverseScanner walks a file from its last line towards its first. The
//     history parser uses it to collect the newest entries without reading
//     the whole file.
//
// # Ring Buffer
//
// Read scans the file once and keeps the most recent lines in a circular
// buffer of size maxLines, so memory stays O(maxLines) regardless of file size.
// A maxLines of zero or less returns every line.
//
// # Reverse Scanning
//
// ReverseScanner reads fixed-size chunks with ReadAt, starting at the end of
// the file. A single trailing newline does not produce an empty final line,
// and a trailing carriage return is stripped from every line. Each physical
// line, blank or not, is returned exactly once, which lets callers count
// physical lines for pagination offsets.
//
//	f, _ := os.Open(path)
//	info, _ := f.Stat()
//	sc := logtail.NewReverseScanner(f, info.Size())
//	for sc.Scan() {
//		fmt.Println(sc.Text()) // newest first
//	}
//	if err := sc.Err(); err != nil { ... }
//
// # Error Handling
//
// Read returns nil, nil for files that do not exist. Other errors are wrapped.
package logtail
