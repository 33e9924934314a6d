// Package sanitizer normalizes booking input before validation and storage.
//
// All functions are idempotent: applying them twice gives the same result.
// Invalid input is passed through trimmed rather than rejected, so the
// validator can report it against the field it came from.
//
// Normalization includes:
//   - Names: collapse whitespace, trim leading/trailing spaces
//   - Emails: trim and lowercase
//   - Phone numbers: convert to E.164 format (+[country][number])
//   - Identifiers: trim surrounding whitespace
package sanitizer
