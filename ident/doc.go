// Package ident interns the names that identify persisted types.
//
// A Type is a (scope, typename) pair. Scopes are either flat (a single name)
// or nested inside an outer scope; typenames are either concrete (a single
// name) or parametric (a name plus an ordered parameter list of Types).
// Nested scopes and parametric typenames are interned structurally, so the
// same shape always yields the same id.
//
// Struct and enum types are further indexed into dense id spaces:
//   - DeclID: the stable, persisted identity of a struct declaration
//   - BindID: the in-memory identity used while walking member bindings
//   - EnumID: the identity of an enum declaration
//
// DeclID and BindID share one index space (StructID). They differ only when
// a runtime representation has been lowered onto another declaration.
package ident
