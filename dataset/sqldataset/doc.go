/*
Package sqldataset stores datasets on SQL databases and loads them back.

The dataset uses 2 database tables:
  - One for storing discrete values
  - One for the samples

Samples are stored on the samples table, with
their discrete values as references to values in the
discrete value table.

Database specifics are provided by Dialect values, see the sqlite3adapter
and pgadapter subpackages.
*/
package sqldataset
