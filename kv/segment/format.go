package segment

import (
	"encoding/binary"

	"github.com/hupe1980/textcache/internal/hash"
)

// File layout:
//
//	Header (8 bytes):  Magic uint32 | Version uint32
//	Records:           KeyLen uint16 | ValueLen uint32 | Key | Value   (append order)
//	Index:             Count × RecordOffset uint64                     (sorted by key)
//	Footer (24 bytes): IndexOffset uint64 | Count uint64 | IndexCRC32C uint32 | Magic uint32
//
// All integers are little-endian. The file only appears under its final name
// once the index and footer are synced, so a visible segment is always whole.
const (
	magic   = 0x47534354 // "TCSG"
	version = 1

	headerSize       = 8
	recordHeaderSize = 6
	indexEntrySize   = 8
	footerSize       = 24

	maxKeyLen = 1<<16 - 1
)

var le = binary.LittleEndian

func putHeader(b []byte) {
	le.PutUint32(b[0:4], magic)
	le.PutUint32(b[4:8], version)
}

func putRecordHeader(b []byte, keyLen, valueLen int) {
	le.PutUint16(b[0:2], uint16(keyLen))
	le.PutUint32(b[2:6], uint32(valueLen))
}

type footer struct {
	indexOffset uint64
	count       uint64
	crc         uint32
}

func (f footer) encode() []byte {
	b := make([]byte, footerSize)
	le.PutUint64(b[0:8], f.indexOffset)
	le.PutUint64(b[8:16], f.count)
	le.PutUint32(b[16:20], f.crc)
	le.PutUint32(b[20:24], magic)
	return b
}

func decodeFooter(b []byte) (footer, bool) {
	if len(b) != footerSize || le.Uint32(b[20:24]) != magic {
		return footer{}, false
	}
	return footer{
		indexOffset: le.Uint64(b[0:8]),
		count:       le.Uint64(b[8:16]),
		crc:         le.Uint32(b[16:20]),
	}, true
}

func checksum(b []byte) uint32 {
	return hash.CRC32C(b)
}
