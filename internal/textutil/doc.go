// Package textutil provides text normalization and fingerprinting for
// collected feed entries.
//
// The primary use cases are:
//   - Normalizing titles and URLs so cosmetic differences (case, accents,
//     tracking parameters, stray whitespace) do not defeat deduplication
//   - Deriving the stable fingerprint that uniquely identifies a collected
//     item across runs
//
// Fingerprints hash the source identifier together with the normalized link
// when one exists, falling back to the normalized title. Two fetches of the
// same entry always produce the same fingerprint.
package textutil
