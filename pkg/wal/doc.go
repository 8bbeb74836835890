// Package wal provides the public API of a durable, segmented write-ahead log.
//
//   - The log is a directory of segment files. Entries are addressed by 64-bit indices, strictly
//     sequential starting at 1.
//   - Every segment file is named by the index of its first entry, zero-padded to 20 decimal
//     digits. A single writer appends to the tail segment, which is cycled into a fresh segment
//     once it grows past the configured size.
//   - TruncateFront and TruncateBack rewrite a boundary segment through a crash-safe, rename-based
//     protocol, so an interrupted truncation is fully reconciled the next time the log is opened.
//
// This package is a thin façade over the implementation in this module's internal/wal package.
package wal
