// Package ir provides the shared types of the prerequisite orderer.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Item identifiers are opaque strings, NFC-normalized at the data source
//   - All JSON tags use snake_case
//   - Logical sequence numbers (seq) only, never wall-clock timestamps
package ir
