package replcli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStartEchoesOutputPerLine(t *testing.T) {
	in := strings.NewReader("++++++++.\nexit\n")
	var out bytes.Buffer

	require.NoError(t, Start(in, &out))
	require.Contains(t, out.String(), string(rune(8)))
}

func TestStartReportsParseErrors(t *testing.T) {
	in := strings.NewReader("[+\nexit\n")
	var out bytes.Buffer

	require.NoError(t, Start(in, &out))
	require.Contains(t, out.String(), "error:")
}

func TestStartStopsOnEOFWithoutExit(t *testing.T) {
	in := strings.NewReader("+.")
	var out bytes.Buffer

	require.NoError(t, Start(in, &out))
	require.Contains(t, out.String(), string(rune(1)))
}
