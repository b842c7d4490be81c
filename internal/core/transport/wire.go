package transport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/multiformats/go-varint"
)

// ============================================================================
//                              编解码原语
// ============================================================================

// 字段编码约定：uvarint 作为整数与长度前缀，float64 为 8 字节
// BigEndian IEEE754。每个 websocket 二进制消息承载一帧，
// 帧头是 uvarint 消息种类标签。

// MaxFieldLength 单个变长字段的大小上限（与帧上限一致，10 MiB）
const MaxFieldLength uint64 = 10 * 1024 * 1024

// WriteUvarint 写入 uvarint
func WriteUvarint(w *bytes.Buffer, v uint64) {
	w.Write(varint.ToUvarint(v))
}

// WriteBytes 写入长度前缀字节串
func WriteBytes(w *bytes.Buffer, data []byte) {
	WriteUvarint(w, uint64(len(data)))
	w.Write(data)
}

// WriteString 写入长度前缀字符串
func WriteString(w *bytes.Buffer, s string) {
	WriteBytes(w, []byte(s))
}

// WriteFloat64 写入 8 字节 BigEndian IEEE754
func WriteFloat64(w *bytes.Buffer, f float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(f))
	w.Write(b[:])
}

// WriteBool 写入单字节布尔
func WriteBool(w *bytes.Buffer, v bool) {
	if v {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

// ReadUvarint 读取 uvarint
func ReadUvarint(r *bytes.Reader) (uint64, error) {
	v, err := varint.ReadUvarint(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return v, nil
}

// ReadBytes 读取长度前缀字节串
//
// 长度上限检查防止畸形帧导致内存耗尽。
func ReadBytes(r *bytes.Reader) ([]byte, error) {
	length, err := ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	if length > MaxFieldLength {
		return nil, fmt.Errorf("%w: field %d > %d", ErrFrameTooLarge, length, MaxFieldLength)
	}
	if length == 0 {
		return nil, nil
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return data, nil
}

// ReadString 读取长度前缀字符串
func ReadString(r *bytes.Reader) (string, error) {
	data, err := ReadBytes(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadFloat64 读取 8 字节 BigEndian IEEE754
func ReadFloat64(r *bytes.Reader) (float64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:])), nil
}

// ReadBool 读取单字节布尔
func ReadBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return b != 0, nil
}

// ReadAll 读取剩余全部字节（旧版协议的原样转发体）
func ReadAll(r *bytes.Reader) []byte {
	if r.Len() == 0 {
		return nil
	}
	data := make([]byte, r.Len())
	_, _ = io.ReadFull(r, data)
	return data
}
