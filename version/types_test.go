package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionString(t *testing.T) {
	v := NewFile2BQVersion()
	require.Equal(t, "v0.1.0", v.SemVer())
	require.True(t, strings.HasPrefix(v.String(), "file2bq v0.1.0\nGo Version: go"))
	require.Len(t, LogFields(), 4)
}
