// Package bodycodec selects a declared media type for a request or response
// body and converts between raw bytes and values.
//
// Supported payloads:
//
//   - JSON (application/json and +json types), decoded with json.Number
//   - application/x-www-form-urlencoded, each property decoded like a query parameter
//   - multipart/form-data, one part per property, repeated parts filling arrays
//   - text/*, as a string
//   - anything else, as raw bytes
//
// Bodies in a charset other than UTF-8 are transcoded with golang.org/x/text.
// XML payloads are not supported; documents declaring them are rejected at load time.
package bodycodec
