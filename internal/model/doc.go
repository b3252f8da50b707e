// Package model defines the entities kept by a silvernote repository and
// the rules every backend applies to them.
//
// # Identity
//
// IDs are int64 values generated by clients. InvalidID (0) is never a valid
// identity, so creation requires a caller-supplied nonzero ID.
//
// # Hash triple
//
// Every synchronized entity carries Hash, LastSentHash and LastRecvHash.
// Hash fingerprints the current content (see hash.go); the other two record
// what was last exchanged with a peer. Equality with Hash means "in sync",
// so no timestamp comparison is needed.
//
// # Patches
//
// Update operations take an entity value as a patch: zero-valued fields are
// treated as omitted. A patch whose only populated fields are the identity
// is an empty patch and updates nothing.
package model
