package logfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteEntryFormat(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir, "primary")
	require.NoError(t, err)

	require.NoError(t, w.WriteEntry(1700000000.123456, "primary_TX", "sig1"))
	require.NoError(t, w.WriteEntry(1700000000.223456, "primary_ACCT", "sig2"))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(filepath.Join(dir, "primary.log"))
	require.NoError(t, err)
	require.Equal(t,
		"1700000000.123456\tprimary_TX\tsig1\n1700000000.223456\tprimary_ACCT\tsig2\n",
		string(data))
}

func TestOpenAppends(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir, "ep")
	require.NoError(t, err)
	require.NoError(t, w.WriteEntry(1.0, "ep", "a"))
	require.NoError(t, w.Close())

	w, err = Open(dir, "ep")
	require.NoError(t, err)
	require.NoError(t, w.WriteEntry(2.0, "ep", "b"))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(filepath.Join(dir, "ep.log"))
	require.NoError(t, err)
	require.Equal(t, "1.000000\tep\ta\n2.000000\tep\tb\n", string(data))
}
