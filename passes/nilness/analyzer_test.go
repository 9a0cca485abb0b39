package nilness_test

import (
	"testing"

	"github.com/BarrensZeppelin/pointsto"
	. "github.com/BarrensZeppelin/pointsto/passes/nilness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/analysis/analysistest"
)

func TestAnalyzer(t *testing.T) {
	t.Parallel()

	testdata := analysistest.TestData()

	tests := []struct {
		name    string
		dir     string
		options Option
	}{
		{
			name: "Default",
			dir:  "./a",
		},
		{
			name:    "Intraprocedural",
			dir:     "./intra",
			options: Options{WithInterprocedural(pointsto.InterproceduralNone), WithCopyAnalysis(false)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			analysistest.Run(t, testdata, New(tt.options), tt.dir)
		})
	}
}

func TestFlags(t *testing.T) {
	a := New(WithMaxCallChain(4))
	require.NotNil(t, a.Flags.Lookup("interprocedural"))
	assert.Equal(t, "context-sensitive", a.Flags.Lookup("interprocedural").Value.String())
	assert.Equal(t, "4", a.Flags.Lookup("max-call-chain").Value.String())
	assert.Equal(t, "4", a.Flags.Lookup("max-lambda-call-chain").Value.String())

	a = New(WithMaxCallChain(4), WithMaxLambdaCallChain(1), WithKeepMemberNullState(false))
	assert.Equal(t, "4", a.Flags.Lookup("max-call-chain").Value.String())
	assert.Equal(t, "1", a.Flags.Lookup("max-lambda-call-chain").Value.String())
	assert.Equal(t, "false", a.Flags.Lookup("keep-member-null-state").Value.String())

	require.NoError(t, a.Flags.Set("interprocedural", "none"))
	assert.Error(t, a.Flags.Set("interprocedural", "everything"))
	assert.Equal(t, "none", a.Flags.Lookup("interprocedural").Value.String())
}
