// Package engine implements the save, delta save, load and diff algorithms
// over bound structs.
//
// Every operation walks a binding with a bind.MemberCursor. Custom bindings
// are consulted first, then the super member, then the remaining members in
// declared order. Values are addressed through unsafe.Pointer; the pointer
// passed to an operation must point at a value of the bound runtime type.
//
// Operations are synchronous and re-entrant as long as concurrent calls use
// distinct Contexts, since a Context owns the scratch arena of its saves.
package engine
