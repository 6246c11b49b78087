package codec

import (
	"errors"
	"testing"
)

func TestUint16_RoundTrip(t *testing.T) {
	buf := make([]byte, 8)

	if err := WriteUint16(buf, 3, 0xBEEF); err != nil {
		t.Fatalf("WriteUint16: %v", err)
	}

	got, err := ReadUint16(buf, 3)
	if err != nil {
		t.Fatalf("ReadUint16: %v", err)
	}

	if got != 0xBEEF {
		t.Fatalf("got=%#x, want=%#x", got, 0xBEEF)
	}
}

func TestUint32_RoundTrip(t *testing.T) {
	buf := make([]byte, 8)

	if err := WriteUint32(buf, 2, 0xDEADBEEF); err != nil {
		t.Fatalf("WriteUint32: %v", err)
	}

	got, err := ReadUint32(buf, 2)
	if err != nil {
		t.Fatalf("ReadUint32: %v", err)
	}

	if got != 0xDEADBEEF {
		t.Fatalf("got=%#x, want=%#x", got, 0xDEADBEEF)
	}
}

func TestUint64_RoundTrip(t *testing.T) {
	buf := make([]byte, 16)

	want := uint64(0x0123456789ABCDEF)
	if err := WriteUint64(buf, 4, want); err != nil {
		t.Fatalf("WriteUint64: %v", err)
	}

	got, err := ReadUint64(buf, 4)
	if err != nil {
		t.Fatalf("ReadUint64: %v", err)
	}

	if got != want {
		t.Fatalf("got=%#x, want=%#x", got, want)
	}
}

func TestSignedRoundTrip(t *testing.T) {
	buf := make([]byte, 16)

	if err := WriteInt16(buf, 0, -1234); err != nil {
		t.Fatalf("WriteInt16: %v", err)
	}

	i16, err := ReadInt16(buf, 0)
	if err != nil || i16 != -1234 {
		t.Fatalf("ReadInt16=%d,%v want=-1234,nil", i16, err)
	}

	if err := WriteInt32(buf, 2, -987654); err != nil {
		t.Fatalf("WriteInt32: %v", err)
	}

	i32, err := ReadInt32(buf, 2)
	if err != nil || i32 != -987654 {
		t.Fatalf("ReadInt32=%d,%v want=-987654,nil", i32, err)
	}

	if err := WriteInt64(buf, 6, -1); err != nil {
		t.Fatalf("WriteInt64: %v", err)
	}

	i64, err := ReadInt64(buf, 6)
	if err != nil || i64 != -1 {
		t.Fatalf("ReadInt64=%d,%v want=-1,nil", i64, err)
	}
}

func TestBoundsError_ReadPastEnd(t *testing.T) {
	buf := make([]byte, 4)

	_, err := ReadUint32(buf, 1)

	var boundsErr *BoundsError
	if !errors.As(err, &boundsErr) {
		t.Fatalf("err=%v, want *BoundsError", err)
	}

	if boundsErr.Offset != 1 || boundsErr.Size != 4 || boundsErr.BufLen != 4 {
		t.Fatalf("unexpected BoundsError fields: %+v", boundsErr)
	}
}

func TestBoundsError_NegativeOffset(t *testing.T) {
	buf := make([]byte, 4)

	_, err := ReadUint16(buf, -1)

	var boundsErr *BoundsError
	if !errors.As(err, &boundsErr) {
		t.Fatalf("err=%v, want *BoundsError", err)
	}
}

func TestBoundsError_WritePastEnd(t *testing.T) {
	buf := make([]byte, 8)

	err := WriteUint64(buf, 4, 1)

	var boundsErr *BoundsError
	if !errors.As(err, &boundsErr) {
		t.Fatalf("err=%v, want *BoundsError", err)
	}
}

func TestBoundsError_EmptyBuffer(t *testing.T) {
	var buf []byte

	_, err := ReadUint16(buf, 0)

	var boundsErr *BoundsError
	if !errors.As(err, &boundsErr) {
		t.Fatalf("err=%v, want *BoundsError", err)
	}
}
