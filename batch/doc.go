// Package batch describes the schemas of a set of saved values so that they
// can be loaded by another process.
//
// A Batch is self-contained: its tables reference each other by batch-local
// index, and every table entry that saved values reference by id (names,
// struct and enum schemas) records the id it had in the saving process.
//
// Build collects a batch from saved trees. A Translation maps the saved ids
// onto the ids of the loading process, either unchanged (Direct, valid only
// inside the saving process) or by re-resolving every name (ByName).
package batch
