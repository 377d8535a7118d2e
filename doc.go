/*
Package packdb implements an embedded record store with runtime-defined
tables on top of a transactional key-value store (Bolt, or memory for tests).

We implement:

1. Tables, registered at runtime from a TableDef and persisted with the data,
so a reopened database knows its schema.

2. Records: a 128-bit id plus field bytes packed with a fixed layout
(see package bytepack), so single fields are read without decoding the rest.

3. Indices, derived from table definitions. Every RecordId field is indexed
and deleting the referenced record deletes the referencing ones (cascade).
Other fields are indexed when marked HasIndex.

4. Queries: a filter and an optional group_by expression evaluated against
every record of a table (see packages expr and queryparse).

# Technical Details

**Buckets.**
All buckets are top-level:

  - $tables maps table names to packed TableDefs.
  - $meta maps table names to msgpack-encoded bookkeeping (schema hash,
    registration and last open times).
  - <table> maps 16-byte record ids to record bytes.
  - #<table>:<field> holds index rows.

Table names cannot start with '$' or '#'.

**Index rows**
An index row is a key with an empty value. The key is the sortable encoding of
the field value followed by the record id, which makes a bucket hold any
number of records per value and lets range scans walk values in order.
Sortable encodings are big-endian with the sign bit flipped for signed
integers; record ids are stored raw.

**Triggers**
Index maintenance is expressed as triggers derived from the catalog: every
index has an insert and a delete trigger on its table, and a reference index
also has a delete trigger on the referenced table. Triggers run in the same
transaction as the operation that fired them.

**Concurrency**
A read-write lock guards the catalog. Record operations and queries hold it
for reading, table registration and deletion for writing. The lock is taken
before the storage transaction is started.
*/
package packdb
