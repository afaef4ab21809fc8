// Package model defines the core data structures shared across the
// ffgrab pipeline.
//
// # Track
//
// Track carries the per-track metadata a source resolved for one piece of
// audio. It feeds wildcard expansion, tagging, and playlist generation:
//
//	track := model.Track{
//	    ID:      "4uLU6hMCjMI75M1A2tKUQC",
//	    Artists: []string{"Artist A", "Artist B"},
//	    Title:   "Song Title",
//	    Album:   "Album Title",
//	    Number:  3,
//	}
//
// # Format
//
// Format identifies a concrete audio encoding a source can serve. The
// FormatsForQuality ladder maps a profile quality tier to the formats
// acceptable for it, best first.
package model
