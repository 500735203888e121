// Package pathutil provides JSON Pointer (RFC 6901) helpers.
//
// Two kinds of paths flow through oasbind:
//
//   - document pointers, which locate nodes in a specification document
//     ("#/components/schemas/Pet")
//   - value paths, which locate a problem inside a request or response value
//     (segments such as ["items", "0", "name"], rendered as "/items/0/name")
//
// Both render through [Pointer] and parse through [ParsePointer], so escaping
// ("~0" for "~", "~1" for "/") is handled in one place.
package pathutil
