// Package codec implements the LZ-based string compression used to carry
// note content in URL fragments.
//
// The bit stream and the URI-safe alphabet match lz-string's
// compressToEncodedURIComponent, so links produced by the browser build of
// the editor decode here and the other way round. Text is handled as UTF-16
// code units, like the JavaScript original; input must be valid UTF-8.
package codec

import (
	"errors"
	"strings"
	"unicode/utf16"
)

// ErrInvalidToken is returned when a token is not a well-formed stream.
var ErrInvalidToken = errors.New("invalid compressed token")

const uriSafeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+-$"

var uriSafeIndex = func() [256]int {
	var idx [256]int
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < len(uriSafeAlphabet); i++ {
		idx[uriSafeAlphabet[i]] = i
	}
	return idx
}()

// LZString is the default fragment codec.
type LZString struct{}

func (LZString) Compress(s string) (string, error) {
	return CompressToEncodedURIComponent(s), nil
}

func (LZString) Decompress(token string) (string, error) {
	return DecompressFromEncodedURIComponent(token)
}

// CompressToEncodedURIComponent compresses s into a token that only uses
// characters safe in a URL fragment.
func CompressToEncodedURIComponent(s string) string {
	return compress(utf16.Encode([]rune(s)), 6, func(v int) byte { return uriSafeAlphabet[v] })
}

// DecompressFromEncodedURIComponent reverses CompressToEncodedURIComponent.
// Spaces are read as '+', which some transports substitute.
func DecompressFromEncodedURIComponent(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	token = strings.ReplaceAll(token, " ", "+")
	values := make([]int, len(token))
	for i := 0; i < len(token); i++ {
		v := uriSafeIndex[token[i]]
		if v < 0 {
			return "", ErrInvalidToken
		}
		values[i] = v
	}
	units, err := decompress(values, 32)
	if err != nil {
		return "", err
	}
	return string(utf16.Decode(units)), nil
}

// unitKey encodes a code unit sequence as a map key.
func unitKey(units ...uint16) string {
	b := make([]byte, 0, 2*len(units))
	for _, u := range units {
		b = append(b, byte(u>>8), byte(u))
	}
	return string(b)
}

type bitWriter struct {
	bitsPerChar int
	toChar      func(int) byte
	out         []byte
	val         int
	position    int
}

func (w *bitWriter) writeBit(bit int) {
	w.val = (w.val << 1) | bit
	if w.position == w.bitsPerChar-1 {
		w.position = 0
		w.out = append(w.out, w.toChar(w.val))
		w.val = 0
	} else {
		w.position++
	}
}

// writeBits emits the low n bits of value, least significant first.
func (w *bitWriter) writeBits(value, n int) {
	for i := 0; i < n; i++ {
		w.writeBit(value & 1)
		value >>= 1
	}
}

func (w *bitWriter) flush() {
	for {
		w.val <<= 1
		if w.position == w.bitsPerChar-1 {
			w.out = append(w.out, w.toChar(w.val))
			return
		}
		w.position++
	}
}

func compress(input []uint16, bitsPerChar int, toChar func(int) byte) string {
	dictionary := make(map[string]int)
	toCreate := make(map[string]bool)
	var (
		w         string
		enlargeIn = 2
		dictSize  = 3
		numBits   = 2
	)
	bw := &bitWriter{bitsPerChar: bitsPerChar, toChar: toChar}

	enlarge := func() {
		enlargeIn--
		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}
	}

	emitW := func() {
		if toCreate[w] {
			first := int(uint16(w[0])<<8 | uint16(w[1]))
			if first < 256 {
				bw.writeBits(0, numBits)
				bw.writeBits(first, 8)
			} else {
				bw.writeBits(1, numBits)
				bw.writeBits(first, 16)
			}
			enlarge()
			delete(toCreate, w)
		} else {
			bw.writeBits(dictionary[w], numBits)
		}
		enlarge()
	}

	for _, u := range input {
		c := unitKey(u)
		if _, ok := dictionary[c]; !ok {
			dictionary[c] = dictSize
			dictSize++
			toCreate[c] = true
		}

		wc := w + c
		if _, ok := dictionary[wc]; ok {
			w = wc
			continue
		}
		emitW()
		dictionary[wc] = dictSize
		dictSize++
		w = c
	}

	if w != "" {
		emitW()
	}

	bw.writeBits(2, numBits)
	bw.flush()
	return string(bw.out)
}

type bitReader struct {
	values     []int
	resetValue int
	val        int
	position   int
	index      int
}

func (r *bitReader) next(i int) int {
	if i < len(r.values) {
		return r.values[i]
	}
	return 0
}

// readBits reads n bits, least significant first.
func (r *bitReader) readBits(n int) int {
	bits := 0
	for power := 0; power < n; power++ {
		resb := r.val & r.position
		r.position >>= 1
		if r.position == 0 {
			r.position = r.resetValue
			r.val = r.next(r.index)
			r.index++
		}
		if resb > 0 {
			bits |= 1 << power
		}
	}
	return bits
}

func decompress(values []int, resetValue int) ([]uint16, error) {
	r := &bitReader{values: values, resetValue: resetValue, position: resetValue, index: 1}
	r.val = r.next(0)

	dictionary := [][]uint16{{0}, {1}, {2}}
	enlargeIn := 4
	numBits := 3

	var c []uint16
	switch r.readBits(2) {
	case 0:
		c = []uint16{uint16(r.readBits(8))}
	case 1:
		c = []uint16{uint16(r.readBits(16))}
	case 2:
		return []uint16{}, nil
	default:
		return nil, ErrInvalidToken
	}
	dictionary = append(dictionary, c)
	w := c
	result := append([]uint16(nil), c...)

	for {
		if r.index > len(values) {
			return nil, ErrInvalidToken
		}

		code := r.readBits(numBits)
		switch code {
		case 0:
			dictionary = append(dictionary, []uint16{uint16(r.readBits(8))})
			code = len(dictionary) - 1
			enlargeIn--
		case 1:
			dictionary = append(dictionary, []uint16{uint16(r.readBits(16))})
			code = len(dictionary) - 1
			enlargeIn--
		case 2:
			return result, nil
		}

		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}

		var entry []uint16
		switch {
		case code < len(dictionary):
			entry = dictionary[code]
		case code == len(dictionary):
			entry = append(append([]uint16(nil), w...), w[0])
		default:
			return nil, ErrInvalidToken
		}
		result = append(result, entry...)

		dictionary = append(dictionary, append(append([]uint16(nil), w...), entry[0]))
		enlargeIn--
		w = entry

		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}
	}
}
