package calc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mfateev/smartcalc/internal/history"
)

// ErrorSentinel is the display value shown after a failed evaluation.
const ErrorSentinel = "Error"

// ErrInvalidOperand is returned when a value offered as the operand is not
// a plain decimal number: an optional "-", digits, and at most one ".".
var ErrInvalidOperand = errors.New("calc: value is not a plain decimal number")

// ErrorDisplayDuration is how long the error sentinel stays on screen
// before the caller should invoke Recover.
const ErrorDisplayDuration = 1500 * time.Millisecond

// Operators accepted by ApplyOperator.
const (
	OpAdd      = "+"
	OpSubtract = "-"
	OpMultiply = "*"
	OpDivide   = "/"
)

// State labels the accumulator's position in its state machine.
type State int

const (
	StateIdle State = iota
	StatePendingOperator
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingOperator:
		return "pending"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Accumulator owns the committed expression and the operand being typed.
//
// All transitions are synchronous. Finalize appends a history.Record to the
// attached log on success. An Accumulator is not safe for concurrent use;
// it belongs to the input loop.
type Accumulator struct {
	operand   string
	committed string

	// caption labels a loaded solution on the secondary display. It is
	// never evaluated and is dropped by the next edit.
	caption string

	// touched is false right after an operator is applied, until the
	// operand is edited. It drives the replace-operator policy.
	touched bool

	log *history.Log
	now func() time.Time
}

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithClock overrides the clock used to stamp history records.
func WithClock(now func() time.Time) Option {
	return func(a *Accumulator) { a.now = now }
}

// NewAccumulator returns an accumulator in Idle("0"). log may be nil, in
// which case finalized calculations are not recorded.
func NewAccumulator(log *history.Log, opts ...Option) *Accumulator {
	a := &Accumulator{
		operand: "0",
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Operand returns the current operand text (the main display).
func (a *Accumulator) Operand() string { return a.operand }

// Committed returns the committed expression.
func (a *Accumulator) Committed() string { return a.committed }

// Caption returns the secondary display: the committed expression, or the
// expression of a just-loaded solution.
func (a *Accumulator) Caption() string {
	if a.committed != "" {
		return a.committed
	}
	return a.caption
}

// State reports the current state.
func (a *Accumulator) State() State {
	switch {
	case a.operand == ErrorSentinel:
		return StateError
	case a.committed != "":
		return StatePendingOperator
	default:
		return StateIdle
	}
}

// AppendDigit appends d (a digit or ".") to the operand. A "0" operand or
// the error sentinel is replaced. A second decimal point is ignored.
func (a *Accumulator) AppendDigit(d string) {
	if d == "" {
		return
	}
	a.caption = ""
	if d == "." && strings.Contains(a.operand, ".") && a.operand != ErrorSentinel {
		a.touched = true
		return
	}
	switch {
	case a.operand == ErrorSentinel:
		if d == "." {
			a.operand = "0."
		} else {
			a.operand = d
		}
	case a.operand == "0" && d != ".":
		a.operand = d
	default:
		a.operand += d
	}
	a.touched = true
}

// ApplyOperator commits the operand with op. If an operator is already
// pending and the operand has not been edited, the pending operator is
// replaced. Otherwise the pending expression is evaluated first and its
// result becomes the left-hand side. The returned error is non-nil only
// when that intermediate evaluation fails, leaving the accumulator in the
// error state.
func (a *Accumulator) ApplyOperator(op string) error {
	if !isOperator(op) {
		return fmt.Errorf("unknown operator %q", op)
	}
	a.caption = ""
	if a.operand == ErrorSentinel {
		a.operand = "0"
	}

	if a.committed != "" {
		if !a.touched {
			a.committed = replacePendingOperator(a.committed, op)
			return nil
		}
		v, err := Evaluate(a.committed + a.operand)
		if err != nil {
			a.fail()
			return err
		}
		a.committed = FormatNumber(v) + " " + op + " "
		a.operand = "0"
		a.touched = false
		return nil
	}

	a.committed = a.operand + " " + op + " "
	a.operand = "0"
	a.touched = false
	return nil
}

// ToggleSign prepends or strips a leading "-".
func (a *Accumulator) ToggleSign() {
	if a.operand == ErrorSentinel || a.operand == "0" {
		return
	}
	a.caption = ""
	if strings.HasPrefix(a.operand, "-") {
		a.operand = a.operand[1:]
	} else {
		a.operand = "-" + a.operand
	}
	a.touched = true
}

// Percentage divides the operand by 100.
func (a *Accumulator) Percentage() {
	if a.operand == ErrorSentinel {
		return
	}
	a.caption = ""
	v, err := strconv.ParseFloat(strings.TrimSuffix(a.operand, "."), 64)
	if err != nil {
		a.operand = "0"
		return
	}
	a.operand = FormatNumber(v / 100)
	a.touched = true
}

// DeleteLast strips the last character of the operand, falling back to
// "0" when nothing meaningful would remain.
func (a *Accumulator) DeleteLast() {
	a.caption = ""
	if a.operand == ErrorSentinel || len(a.operand) <= 1 {
		a.operand = "0"
		return
	}
	next := a.operand[:len(a.operand)-1]
	if next == "-" {
		next = "0"
	}
	a.operand = next
	a.touched = true
}

// Clear resets both operand and committed expression.
func (a *Accumulator) Clear() {
	a.operand = "0"
	a.committed = ""
	a.caption = ""
	a.touched = false
}

// Finalize evaluates committed + operand.
//
// With no pending operator it is a no-op and returns (nil, nil). On
// success the operand becomes the result, the committed expression is
// cleared and the new record is returned (and appended to the log).
// On failure, including non-finite results, the operand becomes
// ErrorSentinel, nothing is recorded, and the evaluation error is
// returned; the caller should call Recover after ErrorDisplayDuration.
func (a *Accumulator) Finalize() (*history.Record, error) {
	if a.committed == "" {
		return nil, nil
	}
	full := a.committed + a.operand
	if strings.TrimSpace(full) == "" {
		return nil, nil
	}

	v, err := Evaluate(full)
	if err != nil {
		a.fail()
		return nil, err
	}

	result := FormatNumber(v)
	rec := history.NewRecord(full, result, a.now())
	if a.log != nil {
		a.log.Add(rec)
	}

	a.operand = result
	a.committed = ""
	a.touched = false
	return &rec, nil
}

// Recover leaves the error state, resetting the operand to "0". It is a
// no-op in any other state.
func (a *Accumulator) Recover() {
	if a.operand == ErrorSentinel {
		a.operand = "0"
	}
}

// UseValue replaces the operand with v, e.g. a result picked from history.
// A v that is not a plain decimal number leaves the accumulator unchanged
// and returns ErrInvalidOperand.
func (a *Accumulator) UseValue(v string) error {
	v = strings.TrimSpace(v)
	if !isOperandLiteral(v) {
		return fmt.Errorf("%w: %q", ErrInvalidOperand, v)
	}
	a.operand = v
	a.caption = ""
	a.touched = true
	return nil
}

// LoadSolution shows a solved result as the operand with nothing pending,
// captioned with the expression that produced it. A result that is not a
// plain decimal number puts the accumulator in the error state and returns
// ErrInvalidOperand; the caller should call Recover after
// ErrorDisplayDuration.
func (a *Accumulator) LoadSolution(expression, result string) error {
	result = strings.TrimSpace(result)
	if !isOperandLiteral(result) {
		a.fail()
		return fmt.Errorf("%w: %q", ErrInvalidOperand, result)
	}
	a.operand = result
	a.committed = ""
	a.touched = false
	a.caption = ""
	if expr := strings.TrimSpace(expression); expr != "" {
		a.caption = expr + " ="
	}
	return nil
}

func (a *Accumulator) fail() {
	a.operand = ErrorSentinel
	a.committed = ""
	a.caption = ""
	a.touched = false
}

// isOperandLiteral reports whether s is an optional "-" followed by digits
// with at most one ".".
func isOperandLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

func isOperator(op string) bool {
	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		return true
	}
	return false
}

// replacePendingOperator swaps the trailing "<op> " of committed for op.
func replacePendingOperator(committed, op string) string {
	trimmed := strings.TrimRight(committed, " ")
	if trimmed == "" {
		return committed
	}
	return trimmed[:len(trimmed)-1] + op + " "
}
