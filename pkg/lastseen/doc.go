// Package lastseen tracks which hosts this agent has exchanged connections
// with and how reliable each connection has been, on top of a kvstore.DB.
// The schema (forward k<hostkey>, reverse a<address>, per-direction
// q<dir><hostkey> quality) and the EWMA used to update quality on every
// sighting follow the original lastseen database verbatim.
package lastseen
