package calc

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfateev/smartcalc/internal/history"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestAccumulator() (*Accumulator, *history.Log) {
	log := history.NewLog(0)
	return NewAccumulator(log, WithClock(func() time.Time { return fixedNow })), log
}

func typeDigits(a *Accumulator, digits ...string) {
	for _, d := range digits {
		a.AppendDigit(d)
	}
}

func TestAccumulator_InitialState(t *testing.T) {
	a, _ := newTestAccumulator()
	assert.Equal(t, "0", a.Operand())
	assert.Equal(t, "", a.Committed())
	assert.Equal(t, StateIdle, a.State())
}

func TestAccumulator_AppendDigit(t *testing.T) {
	tests := []struct {
		name   string
		digits []string
		want   string
	}{
		{"single", []string{"7"}, "7"},
		{"sequence", []string{"1", "2", "3"}, "123"},
		{"leading zero replaced", []string{"0", "7"}, "7"},
		{"zeros collapse", []string{"0", "0", "5"}, "5"},
		{"zero then dot", []string{"0", ".", "5"}, "0.5"},
		{"dot first", []string{".", "2"}, "0.2"},
		{"second dot ignored", []string{"1", ".", "2", ".", "3"}, "1.23"},
		{"trailing zeros kept", []string{"1", "0", "0"}, "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestAccumulator()
			typeDigits(a, tt.digits...)
			assert.Equal(t, tt.want, a.Operand())
		})
	}
}

func TestAccumulator_ApplyOperator(t *testing.T) {
	a, _ := newTestAccumulator()
	a.AppendDigit("7")
	require.NoError(t, a.ApplyOperator(OpAdd))

	assert.Equal(t, "7 + ", a.Committed())
	assert.Equal(t, "0", a.Operand())
	assert.Equal(t, StatePendingOperator, a.State())
}

func TestAccumulator_ApplyOperatorRejectsUnknown(t *testing.T) {
	a, _ := newTestAccumulator()
	a.AppendDigit("7")
	require.Error(t, a.ApplyOperator("^"))
	assert.Equal(t, "", a.Committed())
	assert.Equal(t, "7", a.Operand())
}

func TestAccumulator_ScenarioSevenPlusThree(t *testing.T) {
	a, log := newTestAccumulator()
	a.AppendDigit("7")
	require.NoError(t, a.ApplyOperator(OpAdd))
	a.AppendDigit("3")

	rec, err := a.Finalize()
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "10", a.Operand())
	assert.Equal(t, "", a.Committed())
	assert.Equal(t, StateIdle, a.State())

	assert.Equal(t, "7 + 3", rec.Expression)
	assert.Equal(t, "10", rec.Result)
	assert.Equal(t, fixedNow, rec.Timestamp)
	assert.NotEmpty(t, rec.ID)

	records := log.Records()
	require.Len(t, records, 1)
	assert.Equal(t, *rec, records[0])
}

func TestAccumulator_FinalizeWithoutOperatorIsNoop(t *testing.T) {
	a, log := newTestAccumulator()
	typeDigits(a, "4", "2")

	rec, err := a.Finalize()
	assert.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, "42", a.Operand())
	assert.Equal(t, "", a.Committed())
	assert.Equal(t, 0, log.Len())
}

func TestAccumulator_DivideByZero(t *testing.T) {
	a, log := newTestAccumulator()
	a.AppendDigit("5")
	require.NoError(t, a.ApplyOperator(OpDivide))
	a.AppendDigit("0")

	rec, err := a.Finalize()
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrNonFinite)
	assert.Equal(t, ErrorSentinel, a.Operand())
	assert.Equal(t, "", a.Committed())
	assert.Equal(t, StateError, a.State())
	assert.Equal(t, 0, log.Len(), "non-finite results are not recorded")

	a.Recover()
	assert.Equal(t, "0", a.Operand())
	assert.Equal(t, StateIdle, a.State())
}

func TestAccumulator_RecoverOutsideErrorIsNoop(t *testing.T) {
	a, _ := newTestAccumulator()
	a.AppendDigit("9")
	a.Recover()
	assert.Equal(t, "9", a.Operand())
}

func TestAccumulator_DigitAfterErrorReplacesSentinel(t *testing.T) {
	a, _ := newTestAccumulator()
	a.AppendDigit("1")
	require.NoError(t, a.ApplyOperator(OpDivide))
	_, err := a.Finalize()
	require.Error(t, err)

	a.AppendDigit("8")
	assert.Equal(t, "8", a.Operand())
}

func TestAccumulator_Percentage(t *testing.T) {
	a, _ := newTestAccumulator()
	typeDigits(a, "5", "0")
	a.Percentage()
	assert.Equal(t, "0.5", a.Operand())

	a.Clear()
	typeDigits(a, "1", "2", "5")
	a.Percentage()
	a.Percentage()
	assert.Equal(t, "0.0125", a.Operand())
}

func TestAccumulator_ToggleSign(t *testing.T) {
	a, _ := newTestAccumulator()
	a.AppendDigit("4")
	a.ToggleSign()
	assert.Equal(t, "-4", a.Operand())
	a.ToggleSign()
	assert.Equal(t, "4", a.Operand())

	a.Clear()
	a.ToggleSign()
	assert.Equal(t, "0", a.Operand(), "zero has no sign")
}

func TestAccumulator_DeleteLast(t *testing.T) {
	a, _ := newTestAccumulator()
	typeDigits(a, "1", "2", "3")
	a.DeleteLast()
	assert.Equal(t, "12", a.Operand())
	a.DeleteLast()
	assert.Equal(t, "1", a.Operand())
	a.DeleteLast()
	assert.Equal(t, "0", a.Operand())
	a.DeleteLast()
	assert.Equal(t, "0", a.Operand())

	a.AppendDigit("4")
	a.ToggleSign()
	a.DeleteLast()
	assert.Equal(t, "0", a.Operand(), "a bare minus is not a valid operand")
}

func TestAccumulator_Clear(t *testing.T) {
	a, _ := newTestAccumulator()
	a.AppendDigit("9")
	require.NoError(t, a.ApplyOperator(OpMultiply))
	a.AppendDigit("2")
	a.Clear()
	assert.Equal(t, "0", a.Operand())
	assert.Equal(t, "", a.Committed())
	assert.Equal(t, StateIdle, a.State())
}

func TestAccumulator_ChainedOperatorsEvaluateLeft(t *testing.T) {
	a, log := newTestAccumulator()
	a.AppendDigit("2")
	require.NoError(t, a.ApplyOperator(OpAdd))
	a.AppendDigit("3")
	require.NoError(t, a.ApplyOperator(OpMultiply))

	assert.Equal(t, "5 * ", a.Committed())
	assert.Equal(t, "0", a.Operand())
	assert.Equal(t, 0, log.Len(), "intermediate results are not recorded")

	a.AppendDigit("4")
	rec, err := a.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "20", a.Operand())
	assert.Equal(t, "5 * 4", rec.Expression)
}

func TestAccumulator_RepeatedOperatorReplacesPending(t *testing.T) {
	a, _ := newTestAccumulator()
	a.AppendDigit("8")
	require.NoError(t, a.ApplyOperator(OpAdd))
	require.NoError(t, a.ApplyOperator(OpSubtract))
	assert.Equal(t, "8 - ", a.Committed())

	a.AppendDigit("3")
	rec, err := a.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "5", rec.Result)
}

func TestAccumulator_ChainedDivideByZeroErrors(t *testing.T) {
	a, _ := newTestAccumulator()
	a.AppendDigit("1")
	require.NoError(t, a.ApplyOperator(OpDivide))
	a.AppendDigit("0")
	a.Percentage()

	err := a.ApplyOperator(OpAdd)
	assert.ErrorIs(t, err, ErrNonFinite)
	assert.Equal(t, StateError, a.State())
}

func TestAccumulator_NegativeOperandInExpression(t *testing.T) {
	a, _ := newTestAccumulator()
	a.AppendDigit("5")
	require.NoError(t, a.ApplyOperator(OpSubtract))
	a.AppendDigit("3")
	a.ToggleSign()

	rec, err := a.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "5 - -3", rec.Expression)
	assert.Equal(t, "8", rec.Result)
}

func TestAccumulator_ContinueFromResult(t *testing.T) {
	a, log := newTestAccumulator()
	a.AppendDigit("6")
	require.NoError(t, a.ApplyOperator(OpMultiply))
	a.AppendDigit("7")
	_, err := a.Finalize()
	require.NoError(t, err)

	require.NoError(t, a.ApplyOperator(OpSubtract))
	typeDigits(a, "2")
	rec, err := a.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "42 - 2", rec.Expression)
	assert.Equal(t, "40", rec.Result)
	assert.Equal(t, 2, log.Len())
}

func TestAccumulator_NilLog(t *testing.T) {
	a := NewAccumulator(nil)
	a.AppendDigit("1")
	require.NoError(t, a.ApplyOperator(OpAdd))
	a.AppendDigit("1")
	rec, err := a.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "2", rec.Result)
}

func TestAccumulator_UseValue(t *testing.T) {
	a, _ := newTestAccumulator()
	require.NoError(t, a.UseValue("3.25"))
	assert.Equal(t, "3.25", a.Operand())

	for _, bad := range []string{"not a number", "NaN", "Inf", "-Inf", "1e3", "1.2.3", "", "-", "."} {
		err := a.UseValue(bad)
		assert.ErrorIs(t, err, ErrInvalidOperand, bad)
		assert.Equal(t, "3.25", a.Operand(), bad)
	}
}

func TestAccumulator_LoadSolution(t *testing.T) {
	a, _ := newTestAccumulator()
	a.AppendDigit("1")
	require.NoError(t, a.ApplyOperator(OpAdd))

	require.NoError(t, a.LoadSolution("3 * 25", "75"))
	assert.Equal(t, "75", a.Operand())
	assert.Equal(t, "", a.Committed())
	assert.Equal(t, "3 * 25 =", a.Caption())
	assert.Equal(t, StateIdle, a.State())

	// The caption is never evaluated.
	rec, err := a.Finalize()
	require.NoError(t, err)
	assert.Nil(t, rec)

	a.AppendDigit("0")
	assert.Equal(t, "750", a.Operand())
	assert.Equal(t, "", a.Caption())
}

func TestAccumulator_LoadSolutionRejectsNonLiterals(t *testing.T) {
	for _, result := range []string{"seventy five", "NaN", "Inf", "1e3", "75 apples"} {
		t.Run(result, func(t *testing.T) {
			a, _ := newTestAccumulator()
			err := a.LoadSolution("x", result)
			assert.ErrorIs(t, err, ErrInvalidOperand)
			assert.Equal(t, ErrorSentinel, a.Operand())
			assert.Equal(t, StateError, a.State())

			// Digits never append to the rejected text.
			a.AppendDigit("5")
			assert.Equal(t, "5", a.Operand())
		})
	}
}

func TestAccumulator_LargeProductChains(t *testing.T) {
	a, log := newTestAccumulator()
	typeDigits(a, strings.Split("99999999999", "")...)
	require.NoError(t, a.ApplyOperator(OpMultiply))
	typeDigits(a, strings.Split("99999999999", "")...)
	_, err := a.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "9999999999800000000000", a.Operand())

	require.NoError(t, a.ApplyOperator(OpAdd))
	a.AppendDigit("1")
	rec, err := a.Finalize()
	require.NoError(t, err)
	assert.NotContains(t, rec.Result, "e")
	assert.Equal(t, StateIdle, a.State())
	assert.Equal(t, 2, log.Len())

	// Chaining through an intermediate result uses the same formatting.
	require.NoError(t, a.ApplyOperator(OpMultiply))
	typeDigits(a, "1", "0")
	require.NoError(t, a.ApplyOperator(OpSubtract))
	assert.NotContains(t, a.Committed(), "e")
	a.AppendDigit("1")
	_, err = a.Finalize()
	require.NoError(t, err)
}

func TestAccumulator_RepeatedPercentage(t *testing.T) {
	a, _ := newTestAccumulator()
	a.AppendDigit("5")
	for i := 0; i < 4; i++ {
		a.Percentage()
	}
	assert.Equal(t, "0.000000050000000000000004", a.Operand())

	a.AppendDigit("3")
	assert.Equal(t, "0.0000000500000000000000043", a.Operand())

	require.NoError(t, a.ApplyOperator(OpAdd))
	a.AppendDigit("1")
	rec, err := a.Finalize()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rec.Result, "1.00000005"), rec.Result)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "pending", StatePendingOperator.String())
	assert.Equal(t, "error", StateError.String())
}
