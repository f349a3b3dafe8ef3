/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package cache

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Frame layout, all little-endian:
//
//	int32 length   counts the type tag plus the payload
//	int32 flag     always -1, marks a new block
//	int16 type     one of the type tags below
//	...payload     length-2 bytes
//	int32 length   must repeat the leading length
const (
	frameFlag     = -1
	frameHeadSize = 10
	frameTailSize = 4

	TypeNav  int16 = 4
	TypeMeta int16 = 514
	TypeCal  int16 = 768
	TypeTS   int16 = 16

	// navLength is the declared length of the navigation frame; its
	// payload is opaque zero filler.
	navLength = 43
)

// appendFrame writes one bounded frame to buf.
func appendFrame(buf *bytes.Buffer, typ int16, payload []byte) {
	length := int32(len(payload) + 2)
	head := make([]byte, frameHeadSize)
	binary.LittleEndian.PutUint32(head[0:4], uint32(length))
	flag := int32(frameFlag)
	binary.LittleEndian.PutUint32(head[4:8], uint32(flag))
	binary.LittleEndian.PutUint16(head[8:10], uint16(typ))
	buf.Write(head)
	buf.Write(payload)
	tail := make([]byte, frameTailSize)
	binary.LittleEndian.PutUint32(tail, uint32(length))
	buf.Write(tail)
}

// nextFrame parses the frame starting at off and verifies that the
// trailing length repeats the leading one. It returns the type tag, the
// payload and the offset of the next frame.
func nextFrame(data []byte, off int, section string) (int16, []byte, int, error) {
	if off+frameHeadSize > len(data) {
		return 0, nil, off, ErrFormatIntegrity{Section: section, Offset: off, Reason: "frame header truncated"}
	}
	length := int32(binary.LittleEndian.Uint32(data[off : off+4]))
	typ := int16(binary.LittleEndian.Uint16(data[off+8 : off+10]))
	if length < 2 {
		return 0, nil, off, ErrFormatIntegrity{Section: section, Offset: off, Reason: fmt.Sprintf("implausible frame length %d", length)}
	}
	payloadEnd := off + frameHeadSize + int(length) - 2
	if payloadEnd+frameTailSize > len(data) {
		return 0, nil, off, ErrFormatIntegrity{Section: section, Offset: off, Reason: "frame payload truncated"}
	}
	payload := data[off+frameHeadSize : payloadEnd]
	trailing := int32(binary.LittleEndian.Uint32(data[payloadEnd : payloadEnd+frameTailSize]))
	if trailing != length {
		return 0, nil, off, ErrFormatIntegrity{
			Section: section,
			Offset:  off,
			Reason:  fmt.Sprintf("length fields disagree: %d != %d", length, trailing),
		}
	}
	return typ, payload, payloadEnd + frameTailSize, nil
}
