// Package memory holds the role-specific memories an agent accumulates over
// a game: the seer's investigation results and the protector's history of
// protected players. Both logs are append only and return copies.
package memory
