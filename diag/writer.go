// Package diag renders point-in-time snapshots of the memory pool
// manager, thread pool and event bus as JSON, for an external sink (a
// UART console, a log line) to transport. It only formats; it never
// opens a connection or writes to a device itself — that stays with the
// logging façade named as an external collaborator.
package diag

import (
	"strconv"
	"sync"
	"unsafe"
)

// Writer is the append-only buffer the three snapshot functions in
// snapshot.go share to build their JSON output. It only implements the
// handful of shapes those functions need — a flat object of scalar
// fields, and one array of pool objects — not a general-purpose encoder;
// it appends directly to an internal []byte rather than going through an
// io.Writer, and is reused via AcquireWriter/ReleaseWriter across repeated
// snapshot calls (e.g. a periodic diagnostics poll) instead of allocating
// fresh each time.
type Writer struct {
	buf []byte
}

var writerPool = sync.Pool{
	New: func() any { return &Writer{buf: make([]byte, 0, 256)} },
}

// AcquireWriter returns a Writer from the shared pool, reset to empty.
func AcquireWriter() *Writer {
	w := writerPool.Get().(*Writer)
	w.buf = w.buf[:0]
	return w
}

// ReleaseWriter returns w to the shared pool. A writer that grew past
// 64KiB is replaced with a fresh small buffer rather than pooled as-is,
// so one oversized snapshot doesn't pin a large buffer forever.
func ReleaseWriter(w *Writer) {
	if cap(w.buf) > 1<<16 {
		w.buf = make([]byte, 0, 256)
	}
	writerPool.Put(w)
}

// String returns the JSON built so far as a string, without copying. The
// result shares w's buffer and is valid only until w is written to again
// or released.
func (w *Writer) String() string { return b2s(w.buf) }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Object writes a JSON object, invoking fn to populate its fields.
func (w *Writer) Object(fn func(w *Writer)) {
	w.buf = append(w.buf, '{')
	mark := len(w.buf)
	fn(w)
	if len(w.buf) > mark && w.buf[len(w.buf)-1] == ',' {
		w.buf[len(w.buf)-1] = '}'
	} else {
		w.buf = append(w.buf, '}')
	}
}

// Array writes a JSON array, invoking fn to populate its elements.
func (w *Writer) Array(fn func(w *Writer)) {
	w.buf = append(w.buf, '[')
	mark := len(w.buf)
	fn(w)
	if len(w.buf) > mark && w.buf[len(w.buf)-1] == ',' {
		w.buf[len(w.buf)-1] = ']'
	} else {
		w.buf = append(w.buf, ']')
	}
}

// Field writes a string field: "key":"value",
func (w *Writer) Field(key, value string) {
	w.writeQuotedString(key)
	w.buf = append(w.buf, ':')
	w.writeQuotedString(value)
	w.buf = append(w.buf, ',')
}

// FieldInt writes an int field: "key":123,
func (w *Writer) FieldInt(key string, value int) {
	w.writeQuotedString(key)
	w.buf = append(w.buf, ':')
	w.buf = appendInt(w.buf, int64(value))
	w.buf = append(w.buf, ',')
}

// FieldInt64 writes an int64 field.
func (w *Writer) FieldInt64(key string, value int64) {
	w.writeQuotedString(key)
	w.buf = append(w.buf, ':')
	w.buf = appendInt(w.buf, value)
	w.buf = append(w.buf, ',')
}

// FieldBool writes a bool field.
func (w *Writer) FieldBool(key string, value bool) {
	w.writeQuotedString(key)
	w.buf = append(w.buf, ':')
	if value {
		w.buf = append(w.buf, "true"...)
	} else {
		w.buf = append(w.buf, "false"...)
	}
	w.buf = append(w.buf, ',')
}

// FieldArray writes a nested array field.
func (w *Writer) FieldArray(key string, fn func(w *Writer)) {
	w.writeQuotedString(key)
	w.buf = append(w.buf, ':')
	w.Array(fn)
	w.buf = append(w.buf, ',')
}

// ItemObject writes an object as one array element.
func (w *Writer) ItemObject(fn func(w *Writer)) {
	w.Object(fn)
	w.buf = append(w.buf, ',')
}

func (w *Writer) writeQuotedString(s string) {
	w.buf = append(w.buf, '"')

	needsEscape := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == '"' || c == '\\' {
			needsEscape = true
			break
		}
	}
	if !needsEscape {
		w.buf = append(w.buf, s...)
		w.buf = append(w.buf, '"')
		return
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			w.buf = append(w.buf, '\\', '"')
		case c == '\\':
			w.buf = append(w.buf, '\\', '\\')
		case c == '\n':
			w.buf = append(w.buf, '\\', 'n')
		case c == '\r':
			w.buf = append(w.buf, '\\', 'r')
		case c == '\t':
			w.buf = append(w.buf, '\\', 't')
		case c < 0x20:
			w.buf = append(w.buf, '\\', 'u', '0', '0')
			w.buf = append(w.buf, hexDigit[c>>4], hexDigit[c&0xF])
		default:
			w.buf = append(w.buf, c)
		}
	}
	w.buf = append(w.buf, '"')
}

var hexDigit = [16]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a', 'b', 'c', 'd', 'e', 'f'}

func appendInt(dst []byte, v int64) []byte {
	if v >= 0 && v < 100 {
		return appendSmallInt(dst, int(v))
	}
	return strconv.AppendInt(dst, v, 10)
}

func appendSmallInt(dst []byte, v int) []byte {
	if v < 10 {
		return append(dst, byte('0'+v))
	}
	return append(dst, byte('0'+v/10), byte('0'+v%10))
}

// b2s reinterprets a []byte as a string without copying. The result is
// only safe to use while the backing buffer is not written again; the
// snapshot functions therefore copy Writer.buf before releasing the
// Writer rather than returning b2s's result.
func b2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
