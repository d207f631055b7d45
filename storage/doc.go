// Package storage persists the module's files.
//
// Files are opaque blobs keyed by slash-separated paths. DirStore keeps
// one file per blob under a root directory; SQLiteStore keeps them in a
// single table. Reading a path that was never written fails with an
// error matching ErrNotFound, which the runtime reports to the module
// with its file-not-found code.
package storage
