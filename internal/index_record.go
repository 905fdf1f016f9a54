package internal

const IndexRecordSize = 8 + 4 + 4

// IndexRecord maps one tile to its location inside the extract. Field order
// mirrors the on-disk layout: the 64-bit offset comes first so the 16-byte
// record packs without padding.
type IndexRecord struct {
	Offset uint64
	TileID uint32
	Size   uint32
}

func (r *IndexRecord) Read(b []byte) {
	r.Offset = le.Uint64(b[indexRecordOffsets.Offset:])
	r.TileID = le.Uint32(b[indexRecordOffsets.TileID:])
	r.Size = le.Uint32(b[indexRecordOffsets.Size:])
}

func (r *IndexRecord) Write(b []byte) {
	le.PutUint64(b[indexRecordOffsets.Offset:], r.Offset)
	le.PutUint32(b[indexRecordOffsets.TileID:], r.TileID)
	le.PutUint32(b[indexRecordOffsets.Size:], r.Size)
}
