// Package hippo provides the core of a small financial data toolkit that
// acquires per-ticker company records from a remote API and maintains a
// consistent local dataset in several encodings.
//
// The core functionalities include:
//   - Mapping Store: the authoritative id/name/ticker association table that
//     drives the pipeline's iteration and identity.
//   - Record Assembly: normalizing raw API payloads into canonical
//     CompanyRecord values, tolerant of missing nested fields.
//   - Multi-Format Encoding: deterministic projections of a record set to
//     JSON array, NDJSON, CSV, SQL and Parquet files.
//   - Consistency Validation: cross-checking record counts, ID sets and
//     field parity between the mapping and every produced encoding.
//   - Analytics: simple rolling price metrics (volatility, drawdown,
//     averages) computed from a record's stock price series.
//
// This package serves as the foundational logic for the `hippo` command-line
// tool; the remote client lives in the compoundeer sub-package and the CLI in
// cmd.
package hippo
