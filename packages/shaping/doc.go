// Package shaping filters and merges key/value mappings before they become
// request bodies or query parameters.
//
// Every function returns a new map and leaves its inputs untouched. A nil
// value marks an absent entry.
package shaping
