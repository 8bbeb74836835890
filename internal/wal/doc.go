// Package wal provides a durable, segmented, append-only write-ahead log.
//
//   - Entries are addressed by 64-bit indices, strictly sequential starting at 1 for a fresh log.
//   - A log is a directory of segment files. Every segment file is named by the index of its first
//     entry, zero-padded to exactly 20 decimal digits, with no extension.
//   - Appends always go to the tail segment. Once the tail grows past the configured segment size
//     it is cycled: closed, cached, and replaced by a fresh empty segment.
//   - TruncateFront and TruncateBack rewrite one boundary segment through a temp-file-plus-rename
//     protocol, so a crash at any point during a truncation leaves the directory in a state the
//     next Open can fully reconcile.
//   - Entries are framed either as a varint-length-prefixed binary stream or as JSON lines; see the
//     codec subpackage for the exact wire shapes.
package wal
