// Package locationdb keeps the location databases of local and remote peer
// locations and synchronizes them between peers.
//
// Every database has a monotonic version counter; each add, update or remove
// of an entry allocates the next version, and readers poll with "entries
// after version V" cursors. Removed entries stay as tombstones so replicas
// polling from an older cursor still observe the removal. One level up, each
// location keeps a list version and the same cursor scheme over database
// descriptors.
//
// The Engine owns all state on its own queue. Service answers remote
// list-subscribe, subscribe and data-get requests from an Engine and pushes
// notifies to remote subscribers. Replica is the client side: it mirrors a
// remote location into the local Engine.
package locationdb
