// Package session records in-memory run transcripts: an append-only,
// per-run sequence of what every agent in the run tree said, dispatched and
// received. Transcripts are observability within a single process run;
// nothing is persisted across restarts.
package session
