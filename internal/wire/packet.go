package wire

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/parallelstone/mcserver-core/internal/protoerr"
)

// FrameRaw assembles an uncompressed packet frame:
// VarInt length ‖ VarInt packet_id ‖ body.
func FrameRaw(packetID int32, body []byte) []byte {
	payload := make([]byte, 0, MaxVarIntBytes+len(body))
	payload = append(payload, EncodeVarInt(packetID)...)
	payload = append(payload, body...)

	out := make([]byte, 0, MaxVarIntBytes+len(payload))
	out = append(out, EncodeVarInt(int32(len(payload)))...)
	out = append(out, payload...)
	return out
}

// FrameCompressed assembles a compression-layer frame (spec.md §4.3):
// VarInt total_len ‖ VarInt data_len ‖ (data_len==0 ? raw : deflate(raw)),
// where raw = VarInt packet_id ‖ body. Packets whose uncompressed raw size
// is below threshold are sent with data_len=0 and left uncompressed.
func FrameCompressed(packetID int32, body []byte, threshold int) ([]byte, error) {
	raw := make([]byte, 0, MaxVarIntBytes+len(body))
	raw = append(raw, EncodeVarInt(packetID)...)
	raw = append(raw, body...)

	var inner []byte
	var dataLen int32
	if len(raw) < threshold {
		inner = raw
		dataLen = 0
	} else {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return nil, protoerr.ProtocolWrap(err, "deflate packet body")
		}
		if err := zw.Close(); err != nil {
			return nil, protoerr.ProtocolWrap(err, "close deflate stream")
		}
		inner = buf.Bytes()
		dataLen = int32(len(raw))
	}

	payload := make([]byte, 0, MaxVarIntBytes*2+len(inner))
	payload = append(payload, EncodeVarInt(dataLen)...)
	payload = append(payload, inner...)

	out := make([]byte, 0, MaxVarIntBytes+len(payload))
	out = append(out, EncodeVarInt(int32(len(payload)))...)
	out = append(out, payload...)
	return out, nil
}

// DecompressFrame reverses FrameCompressed's inner payload (the caller has
// already stripped total_len): it reads data_len, then either returns the
// raw bytes unchanged (data_len==0) or inflates them.
func DecompressFrame(payload []byte) (raw []byte, n int, err error) {
	dataLen, consumed, ok := PeekVarInt(payload)
	if !ok {
		return nil, 0, protoerr.Protocol("incomplete data_len varint in compressed frame")
	}
	rest := payload[consumed:]
	if dataLen == 0 {
		return rest, consumed + len(rest), nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return nil, 0, protoerr.ProtocolWrap(err, "open deflate stream")
	}
	defer zr.Close()

	out := make([]byte, 0, dataLen)
	buf := make([]byte, 4096)
	for {
		nr, rerr := zr.Read(buf)
		if nr > 0 {
			out = append(out, buf[:nr]...)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, 0, protoerr.ProtocolWrap(rerr, "inflate packet body")
		}
	}
	if int32(len(out)) != dataLen {
		return nil, 0, protoerr.Protocol("declared data_len %d does not match inflated size %d", dataLen, len(out))
	}
	return out, consumed + len(rest), nil
}
