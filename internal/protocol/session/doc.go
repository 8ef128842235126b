// Package session turns a raw message channel to the game client into
// typed, deadline-bounded request/response calls.
//
// Ownership boundary:
// - receive loop: text control messages vs. binary frame reassembly
// - response routing: one FIFO per response kind plus a shared error FIFO
// - connection lifecycle: Disconnected -> Connected -> Ready -> Disconnected
// - request engine: send one frame, race expected response vs. error vs. deadline
// - handshake retry schedule
//
// The protocol carries no correlation id. Responses are matched by kind
// in arrival order, so at most one request per response kind is in
// flight at a time; Session enforces that with a per-kind permit.
package session
