package keys

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	generated, err := Generate("server-secret")
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(generated.Plaintext, Prefix))
	require.Len(t, generated.KeyPrefix, PrefixLen)
	require.Equal(t, generated.Plaintext[:PrefixLen], generated.KeyPrefix)
	require.Len(t, generated.KeyHash, 64)
	require.Equal(t, Hash(generated.Plaintext, "server-secret"), generated.KeyHash)
}

func TestGenerateUnique(t *testing.T) {
	a, err := Generate("s")
	require.NoError(t, err)
	b, err := Generate("s")
	require.NoError(t, err)
	require.NotEqual(t, a.Plaintext, b.Plaintext)
	require.NotEqual(t, a.KeyHash, b.KeyHash)
}

func TestGenerateRequiresSecret(t *testing.T) {
	_, err := Generate("")
	require.Error(t, err)
}

func TestHashDependsOnSecret(t *testing.T) {
	require.NotEqual(t, Hash("cpk_live_abc", "one"), Hash("cpk_live_abc", "two"))
}

func TestMask(t *testing.T) {
	require.Equal(t, "cpk_live_abc...", Mask("cpk_live_abc"))
}
