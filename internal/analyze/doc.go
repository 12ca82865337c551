// Package analyze extracts the persisted fields of Go struct types by
// reflection.
//
// Key types:
//   - TypeID: package import path + type name
//   - FieldInfo: persisted name, offset, type, embedding and pp tag options
//   - TypePath: readable field paths for registration errors
//
// Fields are tagged with `pp:"name,option,..."`. A name of "-" skips the
// field. Options:
//   - hex: persist an integer as a hex leaf
//   - unicode: persist an integer as a code unit leaf
//   - bits=A|B||D: persist a uint8 as bitfield bools, one name per bit with
//     empty names for unused bits
package analyze
