package logger

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSalt = "test-salt-for-unit-tests-minimum-32-chars"

func TestMain(m *testing.M) {
	if err := SetHashSalt(testSalt); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestHashUserID(t *testing.T) {
	t.Run("produces consistent hash for same user ID", func(t *testing.T) {
		require.Equal(t, HashUserID(12345), HashUserID(12345))
	})

	t.Run("produces different hashes for different user IDs", func(t *testing.T) {
		require.NotEqual(t, HashUserID(12345), HashUserID(67890))
	})

	t.Run("produces 8 character hash", func(t *testing.T) {
		require.Len(t, HashUserID(12345), 8)
	})

	t.Run("changes hash when salt changes", func(t *testing.T) {
		defer func() { hashSalt = testSalt }()

		hash1 := HashUserID(12345)
		require.NoError(t, SetHashSalt(strings.Repeat("x", MinHashSaltLength)))
		hash2 := HashUserID(12345)

		require.NotEqual(t, hash1, hash2)
	})
}

func TestHashChatID(t *testing.T) {
	require.Equal(t, HashChatID(-100123), HashChatID(-100123))
	require.NotEqual(t, HashChatID(1), HashChatID(2))
	require.Equal(t, HashUserID(42), HashChatID(42))
}

func TestSetHashSalt(t *testing.T) {
	defer func() { hashSalt = testSalt }()

	require.Error(t, SetHashSalt("short"))
	require.Equal(t, testSalt, hashSalt)

	require.NoError(t, SetHashSalt("this-is-a-valid-salt-with-at-least-32-characters"))
	require.Equal(t, "this-is-a-valid-salt-with-at-least-32-characters", hashSalt)
}

func TestSanitizeDescription(t *testing.T) {
	require.Equal(t, "<empty>", SanitizeDescription(""))
	require.Equal(t, "<redacted: 3 words, 14 chars>", SanitizeDescription("deposit for Q1"))
}

func TestSanitizeText(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		require.Equal(t, "<empty>", SanitizeText(""))
	})

	t.Run("hides short text", func(t *testing.T) {
		require.Equal(t, "<5 chars>", SanitizeText("hello"))
	})

	t.Run("shows prefix for longer text", func(t *testing.T) {
		result := SanitizeText("this is a long text")
		require.Contains(t, result, "thi...")
		require.Contains(t, result, "19 chars")
	})
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "jane@acme.io", want: "j***@acme.io"},
		{input: " bob.smith@example.com ", want: "b***@example.com"},
		{input: "a@b", want: "a***@b"},
		{input: "@acme.io", want: "<invalid email>"},
		{input: "jane@", want: "<invalid email>"},
		{input: "not-an-email", want: "<invalid email>"},
		{input: "", want: "<invalid email>"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			require.Equal(t, tt.want, MaskEmail(tt.input))
		})
	}
}
