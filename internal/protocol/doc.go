// Package protocol owns the remote-control wire contract.
//
// Ownership boundary:
// - command ids and response kinds
// - request payload builders
// - response payload decoding
//
// Framing lives in package frame; correlation and connection state live
// in package session.
package protocol
