// Package built holds the schema-tagged value tree produced by a save and
// consumed by a load: the hand-off point to an external byte-level writer.
//
// Trees are allocated from a caller-supplied Scratch and are immutable once
// returned. A tree lives as long as its Scratch is not Reset.
package built
