package shortener

import (
	"errors"
	"strings"
	"testing"
)

const urlSafeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

func mustEncoder(t *testing.T, minLength int) *Encoder {
	t.Helper()
	encoder, err := NewEncoder(Config{MinLength: minLength})
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}
	return encoder
}

func TestNewEncoder_InvalidLength(t *testing.T) {
	for _, length := range []int{0, -1, EncodedLength + 1} {
		if _, err := NewEncoder(Config{MinLength: length}); err == nil {
			t.Errorf("Expected error for min length %d", length)
		}
	}
}

func TestEncoder_Encode(t *testing.T) {
	encoder := mustEncoder(t, DefaultMinLength)

	testCases := []struct {
		url      string
		expected string
	}{
		{"https://example.com", "EAaArVRs5qV39C9S3zO0z9ynVoWeZkuNfeMpsVDQnOk"},
		{"https://go.dev", "bn9Y9rhosoo3vnxlVgnma0Z_8B3sESiOpSRb2oT-6G8"},
		{"https://example.com/x/21", "hbW-K_7wuXCFOZC6FvuwWaoXIi3LGt08sCVGtaOUC7k"},
	}

	for _, tc := range testCases {
		encoding := encoder.Encode(tc.url)
		if encoding != tc.expected {
			t.Errorf("Encode(%q) = %q, expected %q", tc.url, encoding, tc.expected)
		}
		if len(encoding) != EncodedLength {
			t.Errorf("Expected encoding length %d, got %d", EncodedLength, len(encoding))
		}
		for _, char := range encoding {
			if !strings.ContainsRune(urlSafeAlphabet, char) {
				t.Errorf("Encoding %s contains character %c outside the URL-safe alphabet", encoding, char)
			}
		}
	}
}

func TestEncoder_EncodeIsDeterministic(t *testing.T) {
	encoder := mustEncoder(t, DefaultMinLength)

	if encoder.Encode("https://example.com/a") != encoder.Encode("https://example.com/a") {
		t.Error("Expected identical URLs to produce identical encodings")
	}
	if encoder.Encode("https://example.com/a") == encoder.Encode("https://example.com/b") {
		t.Error("Expected different URLs to produce different encodings")
	}
}

func TestEncoder_Candidate(t *testing.T) {
	encoder := mustEncoder(t, 6)

	if got := encoder.Candidate("EAaArVRs5qV39C9S"); got != "EAaArV" {
		t.Errorf("Expected candidate EAaArV, got %s", got)
	}
	if got := encoder.Candidate("abc"); got != "abc" {
		t.Errorf("Expected short input to be returned whole, got %s", got)
	}
	if encoder.MinLength() != 6 {
		t.Errorf("Expected min length 6, got %d", encoder.MinLength())
	}
}

func TestEncoder_Pick(t *testing.T) {
	encoder := mustEncoder(t, 3)
	encoding := "XSc0M0PCFIHt_m_Bc_h78dOz3GfSpCXpUn9zyYIZJMA"

	testCases := []struct {
		name      string
		colliding []string
		expected  string
	}{
		{
			name:     "no collision keeps the minimum length",
			expected: "XSc",
		},
		{
			name:      "grows past a taken prefix",
			colliding: []string{"XSc"},
			expected:  "XSc0",
		},
		{
			name:      "starts at the longest colliding ID",
			colliding: []string{"XSc", "XScfu57"},
			expected:  "XSc0M0P",
		},
		{
			name:      "keeps growing while the prefix is taken",
			colliding: []string{"XSc", "XSc0", "XSc0M"},
			expected:  "XSc0M0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := encoder.Pick(encoding, tc.colliding)
			if err != nil {
				t.Fatalf("Pick failed: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, got)
			}
			if !strings.HasPrefix(encoding, got) {
				t.Errorf("Short ID %s is not a prefix of its encoding", got)
			}
		})
	}
}

func TestEncoder_PickExhausted(t *testing.T) {
	encoder := mustEncoder(t, 2)

	_, err := encoder.Pick("abcd", []string{"ab", "abc", "abcd"})
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("Expected ErrExhausted, got %v", err)
	}
}
