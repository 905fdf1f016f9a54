package internal

import "fmt"

// IndexTable accumulates the records destined for the index member, in
// extract member order. Its size is reserved before any tile is written,
// its records are appended once member offsets are known, and its
// serialized form is patched over the reserved byte range.
type IndexTable struct {
	records  []IndexRecord
	reserved int
}

// Reserve computes the byte size of the index member for n tiles and pins
// it: Serialize refuses to produce a blob of any other length, since
// patching the extract with a blob of a different size would corrupt it.
func (t *IndexTable) Reserve(n int) int {
	t.reserved = n * IndexRecordSize
	return t.reserved
}

// Reserved returns the byte size pinned by the last call to Reserve.
func (t *IndexTable) Reserved() int { return t.reserved }

// Placeholder returns a zero-filled blob of the reserved size, used as the
// index member content before any offset is known. It only makes sense
// after Reserve; without a prior reservation the blob is empty.
func (t *IndexTable) Placeholder() []byte { return make([]byte, t.reserved) }

func (t *IndexTable) Append(offset uint64, tileID, size uint32) {
	t.records = append(t.records, IndexRecord{Offset: offset, TileID: tileID, Size: size})
}

func (t *IndexTable) Len() int { return len(t.records) }

func (t *IndexTable) Records() []IndexRecord { return t.records }

// Serialize packs all records back-to-back in insertion order.
func (t *IndexTable) Serialize() ([]byte, error) {
	out := make([]byte, len(t.records)*IndexRecordSize)
	for i := range t.records {
		t.records[i].Write(out[i*IndexRecordSize:])
	}
	if len(out) != t.reserved {
		return nil, fmt.Errorf("index blob is %d bytes, %d were reserved", len(out), t.reserved)
	}
	return out, nil
}

// ParseIndex decodes a serialized index member back into its records.
func ParseIndex(b []byte) ([]IndexRecord, error) {
	if len(b)%IndexRecordSize != 0 {
		return nil, fmt.Errorf("index blob length %d is not a multiple of %d", len(b), IndexRecordSize)
	}
	records := make([]IndexRecord, len(b)/IndexRecordSize)
	for i := range records {
		records[i].Read(b[i*IndexRecordSize:])
	}
	return records, nil
}
