package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	personaRecordPrefix = "perrec:"
	personaIDPrefix     = "perid:"
	personaSeq          = "perseq"
)

// makePersonaRecordKey generates a key for a persona by insertion sequence.
// Format: prefix:seq, big endian so iteration follows insertion order.
func makePersonaRecordKey(seq uint64) []byte {
	buf := make([]byte, len(personaRecordPrefix)+8)
	offset := copy(buf, personaRecordPrefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makePersonaIDKey generates the id index key of a persona.
// Format: prefix:id
func makePersonaIDKey(id string) []byte {
	buf := make([]byte, len(personaIDPrefix)+len(id))
	offset := copy(buf, personaIDPrefix)
	copy(buf[offset:], id)
	return buf
}

func encodeSeq(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

func decodeSeq(data []byte) (uint64, bool) {
	if len(data) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(data), true
}
