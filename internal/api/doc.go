// Package api implements the HTTP interface: request decoding and
// validation, authentication middleware, and the mapping from service
// errors to safe client-facing responses.
package api
