// Package models defines the player-facing entities produced by the library navigator.
//
// The package contains two categories of types:
//
// 1. Browse pointers
//   - [Ref] : Named pointer to a browsable node (root, artist, album or track)
//
// 2. Library entities
//   - [Artist] : Artist with optional uri (name-only when embedded in a track)
//   - [Album] : Album with its album artists
//   - [Track] : Playable item with duration in milliseconds
//   - [SearchResult] : Concatenated tracks, artists and albums of a search
//   - [Image] : Absolute artwork url
//
// Entities are plain values built once by the mapper and never mutated afterwards.
// Artwork fields are either empty or an absolute url template (see package artwork).
package models
