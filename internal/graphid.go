package internal

import (
	"strconv"
	"strings"

	"github.com/heyvito/tilex/errors"
)

// The level occupies the lowest 3 bits of a graph id; the tile index within
// that level takes the remaining 61.
const (
	graphIDLevelBits = 3
	maxGraphLevel    = 1<<graphIDLevelBits - 1
)

// GraphIDFromPath derives the numeric graph id of a tile from its path
// relative to the tile root: "1/002/003.gph" yields 1 | 2003<<3. The level
// is the first path segment; the tile index is the decimal number formed by
// concatenating every remaining segment, extension stripped. Only member
// names carrying the tile extension are ever passed through here.
func GraphIDFromPath(name string) (uint64, error) {
	trimmed := strings.TrimSuffix(name, TileExt)
	levelStr, rest, ok := strings.Cut(trimmed, "/")
	if !ok {
		return 0, errors.MalformedPathError{Path: name, Reason: "no level separator"}
	}
	level, err := strconv.ParseUint(levelStr, 10, 64)
	if err != nil || level > maxGraphLevel {
		return 0, errors.MalformedPathError{Path: name, Reason: "invalid level " + strconv.Quote(levelStr)}
	}
	digits := strings.ReplaceAll(rest, "/", "")
	if digits == "" {
		return 0, errors.MalformedPathError{Path: name, Reason: "empty tile index"}
	}
	index, err := strconv.ParseUint(digits, 10, 64)
	if err != nil || index >= 1<<(64-graphIDLevelBits) {
		return 0, errors.MalformedPathError{Path: name, Reason: "invalid tile index " + strconv.Quote(digits)}
	}
	return level | index<<graphIDLevelBits, nil
}

// GraphIDLevel returns the level encoded in a graph id.
func GraphIDLevel(id uint64) uint64 { return id & maxGraphLevel }

// GraphIDTileIndex returns the tile index within the level encoded in a
// graph id.
func GraphIDTileIndex(id uint64) uint64 { return id >> graphIDLevelBits }
