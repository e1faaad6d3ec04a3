// Package logtail reads the tail of tally's own log file for the activity
// screen.
//
// # Overview
//
// tally logs JSON lines through zap (see package obs). Read extracts the last
// N lines without loading the whole file and Parse turns each one into an
// Entry with its time, level, logger name, message, error and remaining
// fields.
//
// # Ring Buffer Algorithm
//
//	1. Allocate ring buffer of size maxLines
//	2. For each non-blank line in file:
//	   - Store line at current index
//	   - Increment index (wrapping at maxLines)
//	3. Return the buffer starting from the oldest stored line
//
// Memory use is O(maxLines) regardless of file size.
//
// # Error Handling
//
// Read returns nil, nil for a missing file, since nothing has been logged yet.
// Other I/O errors are returned wrapped. Parse never fails: a line that is
// not JSON becomes an entry holding the raw text.
package logtail
