package harness

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// AssertionError is returned when an expect clause does not hold.
// It carries the step outcome to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Step     StepResult
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "  Step: %s", e.Step.Line())
	return buf.String()
}

// EvaluateExpect checks a step's expect clause against its result and
// returns one message per failed check.
func EvaluateExpect(step FlowStep, res StepResult) []string {
	if step.Expect == nil {
		return nil
	}
	var errs []string
	for _, err := range checkExpect(step.Expect, res) {
		errs = append(errs, err.Error())
	}
	return errs
}

func checkExpect(exp *ExpectClause, res StepResult) []error {
	var errs []error

	// An expected error excludes every other check.
	if exp.Error != "" {
		if res.ErrorCode != exp.Error {
			errs = append(errs, &AssertionError{
				Type:     "error",
				Expected: exp.Error,
				Actual:   describe(res),
				Step:     res,
			})
		}
		return errs
	}
	if res.ErrorCode != "" {
		return append(errs, &AssertionError{
			Type:     "error",
			Expected: "no error",
			Actual:   "error " + res.ErrorCode,
			Step:     res,
		})
	}

	if exp.JSON != nil && strings.TrimSpace(*exp.JSON) != res.Output {
		errs = append(errs, &AssertionError{
			Type:     "json",
			Expected: strings.TrimSpace(*exp.JSON),
			Actual:   res.Output,
			Step:     res,
		})
	}
	if exp.Exists != nil && strconv.FormatBool(*exp.Exists) != res.Output {
		errs = append(errs, &AssertionError{
			Type:     "exists",
			Expected: strconv.FormatBool(*exp.Exists),
			Actual:   res.Output,
			Step:     res,
		})
	}
	if exp.Found != nil {
		found := res.Output != "not found"
		if found != *exp.Found {
			errs = append(errs, &AssertionError{
				Type:     "found",
				Expected: strconv.FormatBool(*exp.Found),
				Actual:   strconv.FormatBool(found),
				Step:     res,
			})
		}
	}
	for _, pe := range exp.Paths {
		if err := checkPath(pe, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// checkPath requires the path to select exactly one value equal to
// pe.Equals. Numbers compare by value, so 2 matches 2.0.
func checkPath(pe PathExpect, res StepResult) error {
	x, err := jp.ParseString(pe.Path)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", pe.Path, err)
	}
	data, err := oj.ParseString(res.Output)
	if err != nil {
		return &AssertionError{
			Type:     "path",
			Expected: fmt.Sprintf("%s = %v", pe.Path, pe.Equals),
			Actual:   "output is not JSON",
			Step:     res,
		}
	}
	got := x.Get(data)
	if len(got) != 1 {
		return &AssertionError{
			Type:     "path",
			Expected: fmt.Sprintf("%s = %v", pe.Path, pe.Equals),
			Actual:   fmt.Sprintf("%d matches", len(got)),
			Step:     res,
		}
	}
	if !valuesEqual(got[0], pe.Equals) {
		return &AssertionError{
			Type:     "path",
			Expected: fmt.Sprintf("%s = %v", pe.Path, pe.Equals),
			Actual:   oj.JSON(got[0]),
			Step:     res,
		}
	}
	return nil
}

func valuesEqual(got, want any) bool {
	if gf, ok := number(got); ok {
		wf, ok := number(want)
		return ok && gf == wf
	}
	switch w := want.(type) {
	case nil:
		return got == nil
	case string, bool:
		return got == w
	case []any, map[string]any:
		return oj.JSON(got, &oj.Options{Sort: true}) == oj.JSON(w, &oj.Options{Sort: true})
	}
	return false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func describe(res StepResult) string {
	if res.ErrorCode != "" {
		return "error " + res.ErrorCode
	}
	return res.Output
}
