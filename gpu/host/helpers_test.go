package host

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
)

func encodeInstances(t *testing.T, recs []gpu.Instance) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, recs))
	return buf.Bytes()
}
