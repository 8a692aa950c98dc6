// Package sheets records embed codes in a spreadsheet by matching video
// names against a name column and filling the embed column, without ever
// overwriting cells that already hold a value.
package sheets
