package wire

import "crypto/cipher"

// cfb8 implements AES-128/CFB8 as required by the Minecraft Java protocol's
// Login encryption step (spec.md §4.3): one byte of ciphertext feedback per
// byte encrypted, keyed by the shared secret with the IV set to the same
// shared secret. Go's standard library only exposes CFB with the cipher's
// full block size as the segment size (CFB-128 for AES), so this is a
// direct, minimal implementation over crypto/cipher.Block — there is no
// CFB-8 stream cipher in the retrieval pack to reuse (see DESIGN.md).
type cfb8 struct {
	block     cipher.Block
	iv        []byte
	encrypt   bool
	blockSize int
}

// NewCFB8Encrypter returns a stream that encrypts one byte at a time under
// AES-128/CFB8 with the given IV (the shared secret, per spec.md §4.3).
func NewCFB8Encrypter(block cipher.Block, iv []byte) cipher.Stream {
	return newCFB8(block, iv, true)
}

// NewCFB8Decrypter returns the matching decryption stream.
func NewCFB8Decrypter(block cipher.Block, iv []byte) cipher.Stream {
	return newCFB8(block, iv, false)
}

func newCFB8(block cipher.Block, iv []byte, encrypt bool) cipher.Stream {
	bs := block.BlockSize()
	shift := make([]byte, bs)
	copy(shift, iv)
	return &cfb8{block: block, iv: shift, encrypt: encrypt, blockSize: bs}
}

// XORKeyStream implements cipher.Stream. src and dst may overlap exactly.
func (c *cfb8) XORKeyStream(dst, src []byte) {
	tmp := make([]byte, c.blockSize)
	for i, in := range src {
		c.block.Encrypt(tmp, c.iv)

		var plainByte, cipherByte byte
		if c.encrypt {
			plainByte = in
			cipherByte = plainByte ^ tmp[0]
		} else {
			cipherByte = in
			plainByte = cipherByte ^ tmp[0]
		}

		copy(c.iv, c.iv[1:])
		c.iv[c.blockSize-1] = cipherByte

		dst[i] = plainByte
		if c.encrypt {
			dst[i] = cipherByte
		}
	}
}
