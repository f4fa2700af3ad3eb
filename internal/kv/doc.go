// Package kv implements a small persistent key/value store backed by an
// append-only CSV log.
//
// # File Layout
//
// Each Put appends one two-field record to the log:
//
//	example.com/feed.xml-etag,"W/""abc"""
//	example.com/feed.xml-lastModified,"Mon, 02 Jan 2006 15:04:05 GMT"
//
// Load replays the file line by line; the last record for a key wins.
// Lines that do not parse, and records without a key or value, are skipped
// without affecting the lines around them. Keys and values therefore never
// contain line breaks, and values carry no surrounding whitespace.
//
// # Compaction
//
// Load(true) rewrites the log so that it holds a single record per key.
// The rewrite goes to a "_compact" sibling which is then renamed over the log.
//
// # Locking
//
// A sibling ".lock" file marks exclusive access and only exists while
// compaction runs. While it is present Put fails with [ErrLocked] and Load
// starts with an empty mapping. The holder also keeps an flock on the
// marker, so a marker left behind by a crashed process can be told apart
// with [Marker.Stale]. The marker is advisory: nothing stops
// two processes from appending to the same log outside a compaction.
package kv
