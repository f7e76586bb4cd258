package normalizer

import (
	"bytes"
	"encoding/binary"

	"github.com/rwcarlsen/goexif/exif"
)

// exifHeader prefixes the payload of an Exif APP1 segment
var exifHeader = []byte("Exif\x00\x00")

const orientationTag = 0x0112

// readOrientation returns the EXIF orientation (1-8) of the source bytes,
// or 1 when the tag is absent or unreadable.
func readOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// exifSegment scans the JPEG marker stream for the Exif APP1 segment and
// returns its payload (marker and length prefix stripped).
func exifSegment(data []byte) ([]byte, bool) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, false
	}

	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return nil, false
		}
		marker := data[i+1]

		// Standalone markers carry no length field
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD9) {
			i += 2
			continue
		}
		// Metadata segments only appear before the entropy-coded image data
		if marker == 0xDA {
			return nil, false
		}

		length := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		if length < 2 || i+2+length > len(data) {
			return nil, false
		}
		if marker == 0xE1 {
			payload := data[i+4 : i+2+length]
			if bytes.HasPrefix(payload, exifHeader) {
				return payload, true
			}
		}
		i += 2 + length
	}
	return nil, false
}

// resetOrientation returns a copy of the APP1 payload with the TIFF IFD0
// orientation entry forced to 1. The pixels have already been rotated, so a
// stale tag would make viewers rotate the image twice.
func resetOrientation(app1 []byte) []byte {
	out := make([]byte, len(app1))
	copy(out, app1)

	tiff := out[len(exifHeader):]
	if len(tiff) < 8 {
		return out
	}

	var order binary.ByteOrder
	switch {
	case tiff[0] == 'I' && tiff[1] == 'I':
		order = binary.LittleEndian
	case tiff[0] == 'M' && tiff[1] == 'M':
		order = binary.BigEndian
	default:
		return out
	}

	ifdOffset := int(order.Uint32(tiff[4:8]))
	if ifdOffset < 0 || ifdOffset+2 > len(tiff) {
		return out
	}

	count := int(order.Uint16(tiff[ifdOffset : ifdOffset+2]))
	entry := ifdOffset + 2
	for i := 0; i < count; i++ {
		if entry+12 > len(tiff) {
			return out
		}
		if order.Uint16(tiff[entry:entry+2]) == orientationTag {
			// SHORT with count 1: the value lives in the first two bytes of
			// the entry's value field
			order.PutUint16(tiff[entry+8:entry+10], 1)
			break
		}
		entry += 12
	}
	return out
}

// withExifSegment inserts the APP1 payload into a freshly encoded JPEG, after
// the SOI marker and any JFIF APP0 segment the encoder wrote.
func withExifSegment(jpg, app1 []byte) []byte {
	if len(jpg) < 2 || jpg[0] != 0xFF || jpg[1] != 0xD8 {
		return jpg
	}
	// An APP1 segment length is a uint16 covering itself plus the payload
	if len(app1)+2 > 0xFFFF {
		return jpg
	}

	insert := 2
	if len(jpg) >= insert+4 && jpg[insert] == 0xFF && jpg[insert+1] == 0xE0 {
		length := int(binary.BigEndian.Uint16(jpg[insert+2 : insert+4]))
		if insert+2+length <= len(jpg) {
			insert += 2 + length
		}
	}

	out := make([]byte, 0, len(jpg)+len(app1)+4)
	out = append(out, jpg[:insert]...)
	out = append(out, 0xFF, 0xE1)
	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(len(app1)+2))
	out = append(out, length[:]...)
	out = append(out, app1...)
	out = append(out, jpg[insert:]...)
	return out
}
