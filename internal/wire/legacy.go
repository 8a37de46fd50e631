package wire

import "unicode/utf16"

// EncodeLegacyKick builds a pre-Netty (<=1.6) kick packet: 0xFF ‖ u16(char
// count) ‖ UTF-16BE text. Used only for the legacy 0xFE ping reply
// (spec.md §4.6); every other packet uses the modern VarInt framing.
func EncodeLegacyKick(text string) []byte {
	units := utf16.Encode([]rune(text))
	out := make([]byte, 0, 3+len(units)*2)
	out = append(out, 0xFF)
	out = append(out, byte(len(units)>>8), byte(len(units)))
	for _, u := range units {
		out = append(out, byte(u>>8), byte(u))
	}
	return out
}
