package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dArray/lib/store"
	"github.com/ValentinKolb/dArray/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey   byte = 1 << 0
	hasKeys  byte = 1 << 1
	hasCode  byte = 1 << 2
	hasValue byte = 1 << 3
	hasOk    byte = 1 << 4
	hasErr   byte = 1 << 5
	hasMeta  byte = 1 << 6
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flags byte
	var flags byte = 0

	// Set position for writing
	pos := 2 // Start after MsgType and flags

	// Handle Key
	if msg.Key != "" {
		flags |= hasKey
		pos = putBytes(result, pos, []byte(msg.Key))
	}

	// Handle Keys (count followed by length prefixed keys)
	if msg.Keys != nil {
		flags |= hasKeys
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.Keys)))
		pos += 4
		for _, key := range msg.Keys {
			pos = putBytes(result, pos, []byte(key))
		}
	}

	// Handle Code
	if msg.Code != store.RetCSuccess {
		flags |= hasCode
		binary.BigEndian.PutUint64(result[pos:pos+8], uint64(msg.Code))
		pos += 8
	}

	// Handle Value
	if msg.Value != nil {
		flags |= hasValue
		pos = putBytes(result, pos, msg.Value)
	}

	// Handle Ok
	if msg.Ok {
		flags |= hasOk
		result[pos] = 1
		pos += 1
	}

	// Handle Err
	if msg.Err != "" {
		flags |= hasErr
		pos = putBytes(result, pos, []byte(msg.Err))
	}

	// Handle Meta
	if msg.Meta != nil {
		flags |= hasMeta
		putBytes(result, pos, msg.Meta)
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type
	msg.MsgType = common.MessageType(data[0])

	// Read flags
	flags := data[1]

	// Initialize read position
	pos := 2

	// Read Key if present
	msg.Key = ""
	if flags&hasKey != 0 {
		key, next, err := readBytes(data, pos, "key")
		if err != nil {
			return err
		}
		msg.Key = string(key)
		pos = next
	}

	// Read Keys if present
	msg.Keys = nil
	if flags&hasKeys != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for keys count")
		}
		count := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4

		// every key needs at least its length prefix
		if count > (len(data)-pos)/4 {
			return fmt.Errorf("data too short for %d keys", count)
		}

		msg.Keys = make([]string, count)
		for i := range msg.Keys {
			key, next, err := readBytes(data, pos, "keys")
			if err != nil {
				return err
			}
			msg.Keys[i] = string(key)
			pos = next
		}
	}

	// Read Code if present
	msg.Code = store.RetCSuccess
	if flags&hasCode != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for code")
		}
		msg.Code = store.RetCode(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8
	}

	// Read Value if present
	if flags&hasValue != 0 {
		value, next, err := readBytes(data, pos, "value")
		if err != nil {
			return err
		}
		msg.Value = reuse(msg.Value, value)
		pos = next
	} else {
		msg.Value = nil
	}

	// Read Ok if present
	msg.Ok = false
	if flags&hasOk != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for Ok flag")
		}
		msg.Ok = data[pos] != 0
		pos += 1
	}

	// Read Err if present
	msg.Err = ""
	if flags&hasErr != 0 {
		errData, next, err := readBytes(data, pos, "error")
		if err != nil {
			return err
		}
		msg.Err = string(errData)
		pos = next
	}

	// Read Meta if present
	if flags&hasMeta != 0 {
		meta, _, err := readBytes(data, pos, "meta")
		if err != nil {
			return err
		}
		msg.Meta = reuse(msg.Meta, meta)
	} else {
		msg.Meta = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	// Add sizes for fields that require length encoding
	if msg.Key != "" {
		size += 4 + len(msg.Key) // 4 bytes for length + key string
	}
	if msg.Keys != nil {
		size += 4 // key count
		for _, key := range msg.Keys {
			size += 4 + len(key)
		}
	}
	if msg.Code != store.RetCSuccess {
		size += 8 // uint64
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value) // 4 bytes for length + value bytes
	}
	if msg.Ok {
		size += 1 // 1 byte for boolean
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err) // 4 bytes for length + error string
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta) // 4 bytes for length + meta bytes
	}

	return size
}

// putBytes writes a length prefixed byte slice at pos and returns the position after it
func putBytes(dst []byte, pos int, src []byte) int {
	binary.BigEndian.PutUint32(dst[pos:pos+4], uint32(len(src)))
	pos += 4
	copy(dst[pos:pos+len(src)], src)
	return pos + len(src)
}

// readBytes reads a length prefixed byte slice at pos. The result aliases data.
func readBytes(data []byte, pos int, field string) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, 0, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if n > len(data)-pos {
		return nil, 0, fmt.Errorf("data too short for %s data", field)
	}
	return data[pos : pos+n], pos + n, nil
}

// reuse copies src into dst, allocating only if dst is too small.
// The result is never nil.
func reuse(dst, src []byte) []byte {
	if dst == nil || cap(dst) < len(src) {
		dst = make([]byte, len(src))
	} else {
		dst = dst[:len(src)]
	}
	copy(dst, src)
	return dst
}
