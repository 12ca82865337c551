// Package bind holds the runtime side of a schema: per bound id, a packed
// SchemaBinding describing how to read each member straight from memory, the
// MemberCursor that walks it, and the pull-based range protocol shared by
// the save, load and diff engines.
//
// Member access goes through unsafe.Pointer plus the byte offsets recorded at
// bind time. Offsets and sizes are validated against the runtime reflect.Type
// when a binding is created, never per access.
package bind
