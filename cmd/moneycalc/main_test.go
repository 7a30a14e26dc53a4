package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldFlags(t *testing.T) {
	fields, err := parseFieldFlags([]string{"principal=12,000,000", "method=equalPayment"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"principal": "12,000,000", "method": "equalPayment"}, fields)

	_, err = parseFieldFlags([]string{"principal"})
	assert.Error(t, err)
	_, err = parseFieldFlags([]string{"=5"})
	assert.Error(t, err)
}

func TestCalcCommand(t *testing.T) {
	t.Setenv("PREF_STORE", "memory")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"calc", "loan",
		"-f", "loanPrincipal=10000000", "-f", "loanRate=0", "-f", "loanMonths=10"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "월 상환액: 1,000,000원")
	assert.Contains(t, out.String(), "share: ?")
}

func TestCalcCommandUnknownKind(t *testing.T) {
	t.Setenv("PREF_STORE", "memory")

	rootCmd.SetArgs([]string{"calc", "mortgage"})
	assert.Error(t, rootCmd.Execute())
}

func TestRestoreCommandAllCalculators(t *testing.T) {
	t.Setenv("PREF_STORE", "memory")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"restore", "?percent_base=200&percent_percent=10"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "[percent]")
	assert.Contains(t, out.String(), "200의 10%는 20입니다.")
}
