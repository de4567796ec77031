// Package scanner pulls single fields out of JSON payloads without a
// full decode. It only understands the flat key layouts this repo puts
// on the wire; it is a routing aid, not a parser.
package scanner

// ScanUintField finds key in payload and parses the unsigned integer
// after the next colon. It reports false when the key is missing or no
// digits follow.
func ScanUintField(payload []byte, key []byte) (uint64, bool) {
	i, ok := seekValue(payload, key)
	if !ok {
		return 0, false
	}
	if payload[i] < '0' || payload[i] > '9' {
		return 0, false
	}
	var v uint64
	for i < len(payload) && payload[i] >= '0' && payload[i] <= '9' {
		v = v*10 + uint64(payload[i]-'0')
		i++
	}
	return v, true
}

// ScanStringField finds key in payload and returns the quoted string
// after the next colon, without unescaping. The slice aliases payload.
func ScanStringField(payload []byte, key []byte) ([]byte, bool) {
	i, ok := seekValue(payload, key)
	if !ok {
		return nil, false
	}
	if payload[i] != '"' {
		return nil, false
	}
	i++
	start := i
	for i < len(payload) && payload[i] != '"' {
		i++
	}
	if i >= len(payload) {
		return nil, false
	}
	return payload[start:i], true
}

// seekValue positions just past the colon and whitespace following key.
func seekValue(payload []byte, key []byte) (int, bool) {
	idx := indexOf(payload, key)
	if idx < 0 {
		return 0, false
	}
	i := idx + len(key)
	for i < len(payload) && payload[i] != ':' {
		i++
	}
	if i >= len(payload) {
		return 0, false
	}
	i++
	for i < len(payload) && isSpace(payload[i]) {
		i++
	}
	if i >= len(payload) {
		return 0, false
	}
	return i, true
}

func indexOf(payload []byte, key []byte) int {
	if len(key) == 0 || len(payload) < len(key) {
		return -1
	}
outer:
	for i := 0; i <= len(payload)-len(key); i++ {
		for j := 0; j < len(key); j++ {
			if payload[i+j] != key[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
