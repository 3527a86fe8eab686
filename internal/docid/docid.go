// Package docid implements the global<->shard-local document id mapping
// described in spec.md §3: "Document ID space".
package docid

// Global is a process-wide, monotonically-assigned, never-reused document
// identifier.
type Global uint64

// Local is a document id local to one shard (0-based, gapless within a
// shard except for its trailing incomplete level).
type Local uint64

// LevelSize is the number of documents in one sealed level (spec.md §3,
// "Index levels / blocks").
const LevelSize = 65536

// ToGlobal maps a shard-local id to its global id: global = local*shardCount + shardIndex.
func ToGlobal(local Local, shardIndex, shardCount int) Global {
	return Global(uint64(local)*uint64(shardCount) + uint64(shardIndex))
}

// Split maps a global id back to its owning shard and local id.
func Split(g Global, shardCount int) (shardIndex int, local Local) {
	shardIndex = int(uint64(g) % uint64(shardCount))
	local = Local(uint64(g) / uint64(shardCount))
	return
}

// Level returns the level index and in-level offset of a local id.
func Level(l Local) (level uint32, offset uint16) {
	return uint32(l / LevelSize), uint16(l % LevelSize)
}
