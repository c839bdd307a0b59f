// Package catalog keeps a SQLite inventory of media files that still need
// subtitles.
//
// Scan walks a directory tree, probes new or changed files with ffprobe, and
// records duration plus audio and subtitle presence. Pending returns the
// shortest untranscribed files first so a long batch makes visible progress
// early. Run status (pending, done, failed, skipped) is updated by the caller
// after each pipeline job.
//
// Schema changes bump schemaVersion in schema.go; users delete the database
// and rescan to adopt the new schema.
package catalog
