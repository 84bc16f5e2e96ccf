package keygen

import (
	"strings"
	"testing"
)

func TestGenerateLengthAndCharset(t *testing.T) {
	for i := 0; i < 1000; i++ {
		key := Generate()
		if len(key) != GeneratedKeyLength {
			t.Fatalf("expected %d-char key, got %q", GeneratedKeyLength, key)
		}
		for _, r := range key {
			if !strings.ContainsRune(charset, r) {
				t.Fatalf("key %q contains invalid character %q", key, r)
			}
		}
	}
}

func TestGenerateUniformCharDistribution(t *testing.T) {
	const keys = 50000
	counts := make(map[byte]int, len(charset))
	for i := 0; i < keys; i++ {
		for _, c := range []byte(Generate()) {
			counts[c]++
		}
	}

	// 取模偏差会让前 8 个字符多出约 25%，这里给 10% 容差（约 7 个标准差）
	expected := float64(keys*GeneratedKeyLength) / float64(len(charset))
	for i := 0; i < len(charset); i++ {
		got := float64(counts[charset[i]])
		if got < expected*0.9 || got > expected*1.1 {
			t.Errorf("char %q drawn %v times, expected about %v", charset[i], got, expected)
		}
	}
}

func TestGenerateVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[Generate()] = true
	}
	// 62^6 的键空间下 100 次生成出现大量重复说明随机源坏了
	if len(seen) < 95 {
		t.Errorf("expected near-unique keys, got %d distinct out of 100", len(seen))
	}
}

func TestValidateCustomKey(t *testing.T) {
	valid := []string{"a", "promo1", "ABC123xyz0", "1234567890"}
	for _, key := range valid {
		if err := ValidateCustomKey(key); err != nil {
			t.Errorf("key %q: expected valid, got %v", key, err)
		}
	}

	invalid := []string{"", "12345678901", "has space", "under_score", "dash-ed", "emoji🙂", "slash/ed"}
	for _, key := range invalid {
		if err := ValidateCustomKey(key); err == nil {
			t.Errorf("key %q: expected validation error", key)
		}
	}
}
