package httpd

import (
	"testing"
	"time"
)

func TestDigest_Deterministic(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := Digest(AlgoSHA1, "10.0.0.1", "/status", base)
	// Same second bucket, different sub-second instant.
	b := Digest(AlgoSHA1, "10.0.0.1", "/status", base.Add(500*time.Millisecond))
	if a != b {
		t.Fatalf("same-bucket digests differ: %q vs %q", a, b)
	}
	c := Digest(AlgoSHA1, "10.0.0.1", "/status", base.Add(time.Second))
	if a == c {
		t.Fatalf("cross-bucket digests equal: %q", a)
	}
}

func TestDigest_Lengths(t *testing.T) {
	now := time.Now()
	if got := len(Digest(AlgoMD5, "a", "/p", now)); got != 32 {
		t.Fatalf("md5 digest length = %d, want 32", got)
	}
	if got := len(Digest(AlgoSHA1, "a", "/p", now)); got != 40 {
		t.Fatalf("sha1 digest length = %d, want 40", got)
	}
	if AlgoMD5.HexLen() != 32 || AlgoSHA1.HexLen() != 40 {
		t.Fatal("HexLen mismatch")
	}
}

func TestDigest_InputSensitivity(t *testing.T) {
	now := time.Now()
	if Digest(AlgoMD5, "10.0.0.1", "/a", now) == Digest(AlgoMD5, "10.0.0.1", "/b", now) {
		t.Fatal("digest ignores path")
	}
	if Digest(AlgoMD5, "10.0.0.1", "/a", now) == Digest(AlgoMD5, "10.0.0.2", "/a", now) {
		t.Fatal("digest ignores client address")
	}
}

func TestStationHash(t *testing.T) {
	// Known sha1 of "5217 " + name layout: just check shape and stability.
	a := StationHash("5217", "bench-station", AlgoSHA1)
	b := StationHash("5217", "bench-station", AlgoSHA1)
	if a != b || len(a) != 40 {
		t.Fatalf("station hash unstable or wrong length: %q vs %q", a, b)
	}
}

func TestDeriveAddresses(t *testing.T) {
	a, err := DeriveAddresses("5217")
	if err != nil {
		t.Fatalf("DeriveAddresses: %v", err)
	}
	if a.Server != "54.99.52.17" {
		t.Fatalf("server addr = %q", a.Server)
	}
	want := [3]string{"54.99.52.18", "54.99.52.19", "54.99.52.20"}
	if a.Clients != want {
		t.Fatalf("client addrs = %v", a.Clients)
	}
	if _, err := DeriveAddresses("52"); err == nil {
		t.Fatal("short registration accepted")
	}
	if _, err := DeriveAddresses("52ab"); err == nil {
		t.Fatal("non-numeric registration accepted")
	}
}
