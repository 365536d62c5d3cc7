package dname

import "fmt"

// FormatError is returned by message-level decoding; declared here (rather
// than in a shared errors package) because name decompression is where most
// of the wire-format hazards live: label-length overflow, forward pointers,
// and truncated buffers.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return "dname: format error: " + e.Reason }

// ReadName decodes a name starting at msg[pos], following compression
// pointers. It returns the decoded name and the offset immediately after
// the name *as it appears in the primary stream* (i.e. after a pointer, not
// after the jump target) so the caller can continue parsing subsequent
// fields. Per the wire codec's rules, a pointer may only target an offset
// strictly before the start of the name being read, and after each jump
// every further pointer must target an offset strictly before the previous
// jump target; this forbids forward references and therefore loops.
func ReadName(msg []byte, pos int) (Name, int, error) {
	var labels [][]byte
	start := pos
	totalLen := 1
	jumped := false
	afterPointer := -1
	cur := pos
	visitedJumps := 0

	for {
		if cur >= len(msg) {
			return Name{}, 0, &FormatError{"name extends past end of message"}
		}
		lenByte := msg[cur]
		switch {
		case lenByte == 0:
			cur++
			if !jumped {
				afterPointer = cur
			}
			if afterPointer < 0 {
				afterPointer = cur
			}
			return Name{labels: labels}, afterPointer, nil

		case lenByte&0xC0 == 0xC0:
			if cur+1 >= len(msg) {
				return Name{}, 0, &FormatError{"truncated compression pointer"}
			}
			ptr := (int(lenByte&0x3F) << 8) | int(msg[cur+1])
			if !jumped {
				afterPointer = cur + 2
			}
			// Forward pointers (and self-pointers) are forbidden: the
			// target must precede where this name (or the pointer chain
			// that led here) started.
			if ptr >= start {
				return Name{}, 0, &FormatError{"compression pointer is not strictly backward"}
			}
			visitedJumps++
			if visitedJumps > 128 {
				return Name{}, 0, &FormatError{"too many compression pointer hops"}
			}
			cur = ptr
			jumped = true
			// Once we've jumped, "start" for loop-prevention purposes
			// tightens to the jump target, since any further pointer must
			// point strictly before *this* target too.
			start = ptr

		case lenByte&0xC0 != 0:
			return Name{}, 0, &FormatError{"reserved label length bits set"}

		default:
			n := int(lenByte)
			if n > MaxLabelLen {
				return Name{}, 0, &FormatError{"label exceeds 63 bytes"}
			}
			if cur+1+n > len(msg) {
				return Name{}, 0, &FormatError{"label extends past end of message"}
			}
			label := make([]byte, n)
			copy(label, msg[cur+1:cur+1+n])
			labels = append(labels, label)
			totalLen += n + 1
			if totalLen > MaxNameLen {
				return Name{}, 0, &FormatError{"name exceeds 255 bytes"}
			}
			cur += 1 + n
		}
	}
}

// ErrorAt formats a FormatError with a byte-offset for log/diagnostic use.
func ErrorAt(offset int, reason string) error {
	return &FormatError{Reason: fmt.Sprintf("%s (at offset %d)", reason, offset)}
}
