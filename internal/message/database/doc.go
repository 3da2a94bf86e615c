// Package database holds the messages used to synchronize location
// databases between peers.
//
// A replica first subscribes to the database list of a peer location and
// receives every descriptor changed after its list cursor; it then subscribes
// to individual databases and receives entries changed after its per-database
// cursor. Later changes arrive as list-notify and notify messages until the
// subscription expires. Every batch carries the cursor to resume from.
package database
