// Package records is the typed table registry of bizsync.
//
// Every synchronised entity embeds Base (id, owner, soft-delete flag and
// writer-assigned timestamps) and is bound to its table name through a
// Table value, so callers get compile-time record types while storage and
// transport keep working with untyped Documents:
//
//	sales := records.Sales               // records.Table[*records.Sale]
//	doc, _ := records.Encode(sale)       // typed -> Document
//	s, _ := sales.Decode(doc)            // Document -> *records.Sale
//
// The registry also describes how each table is keyed locally (by id, by a
// natural key for config, by timestamp for the audit log) and which
// secondary indexes it carries.
package records
