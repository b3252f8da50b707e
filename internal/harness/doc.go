// Package harness runs multi-peer synchronization scenarios against real
// stores.
//
// Each scenario opens one in-memory store per named peer, seeds them from
// snapshot documents, runs a flow of edits and syncs, then checks
// assertions against the resulting repositories. A sync exports the source
// peer and imports the document into the target, the same path the import
// and export commands take.
//
// # Scenario Format
//
//	name: edit_then_sync
//	description: "Edits on one peer reach the other"
//	peers: [laptop, phone]
//	setup:
//	  - peer: laptop
//	    document:
//	      version: 1
//	      notebooks:
//	        - notebook: {id: 7, name: Main}
//	          notes:
//	            - {id: 100, title: Review, content: "<p>revenue</p>"}
//	flow:
//	  - action: sync
//	    from: laptop
//	    to: phone
//	  - action: note.update
//	    peer: laptop
//	    notebook: 7
//	    note: {id: 100, title: Annual review}
//	assertions:
//	  - type: search_results
//	    peer: phone
//	    query: revenue
//	    ids: [100]
//	  - type: metadata_equal
//	    peers: [laptop, phone]
//
// # Flow Actions
//
//   - sync: export From and import into To; Mode is update (default),
//     delete-missing or replace
//   - note.update: merge Note into Peer; Create enables auto-create
//   - note.delete, category.delete, notebook.delete: tombstone ID, or
//     remove it when Purge is set
//
// A step may name the error kind it expects (not_found, invalid_id).
//
// # Assertion Types
//
//   - search_results: the notes Query matches on Peer, as a set of IDs
//   - note_state: fields of one note (title, text, categories, deleted,
//     missing)
//   - metadata_equal: every peer reports identical sync metadata
//
// Every step is recorded in the result trace, which tests compare against
// golden files.
package harness
