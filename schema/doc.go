// Package schema holds the engine-independent declarations of struct and enum
// types and the member type vocabulary shared by bindings and built values.
//
// Declarations are registered once, reference counted, and read-only for the
// save, load and diff engines. Registration bugs such as a mismatched
// re-declaration are contract violations and panic with *ContractError.
// Problems that come from external data, such as an enum alias under
// AliasFail, are returned as errors.
package schema
