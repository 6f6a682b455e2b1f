package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/actor-rtc/proto-regulate/pkg/descriptor"
)

// AlgorithmVersion pins the byte encoding of the canonical tree.
const AlgorithmVersion = "1"

// Value is a fixed-size semantic fingerprint.
type Value [sha256.Size]byte

// String returns the fingerprint as lowercase hex.
func (v Value) String() string {
	return hex.EncodeToString(v[:])
}

// Equal reports whether two fingerprints are identical.
func (v Value) Equal(other Value) bool {
	return v == other
}

// Compute hashes a canonical descriptor tree. It cannot fail: every tree the
// canonicalizer accepts has an encoding.
func Compute(file *descriptor.File) Value {
	var e encoder
	e.file(file)
	return sha256.Sum256(e.buf)
}

// EncodeMessage returns the deterministic encoding of one message
// declaration. Two messages are structurally identical exactly when their
// encodings are byte-equal.
func EncodeMessage(msg *descriptor.Message) []byte {
	var e encoder
	e.message(msg)
	return e.buf
}

// EncodeEnum returns the deterministic encoding of one enum declaration.
func EncodeEnum(enum *descriptor.Enum) []byte {
	var e encoder
	e.enum(enum)
	return e.buf
}

// EncodeService returns the deterministic encoding of one service
// declaration.
func EncodeService(svc *descriptor.Service) []byte {
	var e encoder
	e.service(svc)
	return e.buf
}

// EncodeField returns the deterministic encoding of one field declaration.
// Merge uses it for the per-number identity of extension fields.
func EncodeField(field *descriptor.Field) []byte {
	var e encoder
	e.field(field)
	return e.buf
}
