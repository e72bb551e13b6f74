package system

import "encoding/binary"

const evKey = 0x01

// Linux input-event-codes.h
const (
	KeyEsc = 1
	KeyQ   = 16
	KeyF4  = 62
)

// DefaultExitKeys are the evdev key codes that stop the animation.
var DefaultExitKeys = []uint16{KeyF4, KeyEsc}

// scanKeyPress walks a buffer of input_event records (timeval followed by
// u16 type, u16 code, s32 value) and reports the first key in keys that was
// pressed down.
func scanKeyPress(buf []byte, tvSize int, keys []uint16) (uint16, bool) {
	eventSize := tvSize + 8
	for off := 0; off+eventSize <= len(buf); off += eventSize {
		rec := buf[off : off+eventSize]
		typ := binary.LittleEndian.Uint16(rec[tvSize : tvSize+2])
		code := binary.LittleEndian.Uint16(rec[tvSize+2 : tvSize+4])
		value := int32(binary.LittleEndian.Uint32(rec[tvSize+4 : tvSize+8]))
		if typ != evKey || value != 1 {
			continue
		}
		for _, k := range keys {
			if code == k {
				return code, true
			}
		}
	}
	return 0, false
}
