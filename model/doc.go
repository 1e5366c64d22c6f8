// Package model projects host collections into UI-consumable lists.
//
// A projection holds an ordered sequence of flat records and a role table
// mapping field names to stable role ids. The role table only grows: once
// a field name has been observed it keeps its id for the projection's
// lifetime, across Clear and later SetData calls. Records missing a field
// yield the absent sentinel for that role.
//
// Data replacement is total: SetData swaps the entire record sequence and
// issues exactly one full-reset notification, even when the new records
// equal the old ones. There is no incremental insert/remove/move — the
// consumers are written against reset semantics.
package model
