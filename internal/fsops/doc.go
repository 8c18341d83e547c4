// Package fsops holds the small file primitives shared by the storage
// backends: whole-document reads and atomic temp-file-plus-rename writes.
package fsops
