package httpd

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Algorithm selects the digest used for identity tags. The choice is a
// process-wide configuration constant, not a per-request option.
type Algorithm string

const (
	AlgoMD5  Algorithm = "md5"  // 128-bit, 32 hex chars
	AlgoSHA1 Algorithm = "sha1" // 160-bit, 40 hex chars
)

// HexLen returns the expected digest length in hex characters.
func (a Algorithm) HexLen() int {
	if a == AlgoMD5 {
		return 32
	}
	return 40
}

func (a Algorithm) Valid() bool {
	return a == AlgoMD5 || a == AlgoSHA1
}

func (a Algorithm) sum(data []byte) []byte {
	if a == AlgoMD5 {
		s := md5.Sum(data)
		return s[:]
	}
	s := sha1.Sum(data)
	return s[:]
}

// Digest computes the per-request identity tag: a hex digest over the client
// address, the request path and the receipt time truncated to the second.
// Identical inputs within the same second bucket always produce the same tag,
// which keeps tags reproducible across repeated test runs.
func Digest(algo Algorithm, clientAddr, path string, t time.Time) string {
	data := clientAddr + " " + path + " " + strconv.FormatInt(t.Unix(), 10)
	return hex.EncodeToString(algo.sum([]byte(data)))
}

// StationHash is the digest of "registration name", the static station
// identity the bench reports on /info.
func StationHash(registration, name string, algo Algorithm) string {
	return hex.EncodeToString(algo.sum([]byte(registration + " " + name)))
}

// BenchAddresses is the 54.99.AA.BB address family derived from the four
// registration digits: the server gets AA.BB, clients the next host numbers.
type BenchAddresses struct {
	Server  string
	Clients [3]string
}

// DeriveAddresses computes the bench address family for a 4-digit
// registration number.
func DeriveAddresses(registration string) (BenchAddresses, error) {
	if len(registration) != 4 {
		return BenchAddresses{}, fmt.Errorf("httpd: registration must have exactly 4 digits, got %q", registration)
	}
	hi, err := strconv.Atoi(registration[:2])
	if err != nil {
		return BenchAddresses{}, fmt.Errorf("httpd: registration must be numeric: %q", registration)
	}
	lo, err := strconv.Atoi(registration[2:])
	if err != nil {
		return BenchAddresses{}, fmt.Errorf("httpd: registration must be numeric: %q", registration)
	}
	var a BenchAddresses
	a.Server = fmt.Sprintf("54.99.%d.%d", hi, lo)
	for i := range a.Clients {
		a.Clients[i] = fmt.Sprintf("54.99.%d.%d", hi, lo+i+1)
	}
	return a, nil
}
