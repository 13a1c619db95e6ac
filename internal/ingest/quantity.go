package ingest

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	disallowedChars = regexp.MustCompile(`[^0-9+\-*/.]`)
	nonNumericChars = regexp.MustCompile(`[^0-9.]`)
)

// ParseQuantity turns a quantity cell into a number. Cells may hold a plain
// number or a simple additive/subtractive formula such as "2+3". Anything
// outside digits and "+ - * / ." is stripped before evaluation, so arbitrary
// expressions cannot be injected. Unparseable input yields 0, never an error.
func ParseQuantity(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if strings.ContainsAny(s, "+-*/") {
		expr := disallowedChars.ReplaceAllString(s, "")
		value, err := evalFormula(expr)
		if err != nil {
			return 0
		}
		return value
	}

	cleaned := nonNumericChars.ReplaceAllString(s, "")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return value
}

// evalFormula evaluates a sanitized arithmetic expression with the usual
// multiplication/division precedence.
func evalFormula(expr string) (float64, error) {
	nums, ops, err := tokenize(expr)
	if err != nil {
		return 0, err
	}

	// Collapse * and / first.
	values := []float64{nums[0]}
	var addOps []byte
	for i, op := range ops {
		right := nums[i+1]
		switch op {
		case '*':
			values[len(values)-1] *= right
		case '/':
			if right == 0 {
				return 0, errors.New("division by zero")
			}
			values[len(values)-1] /= right
		default:
			addOps = append(addOps, op)
			values = append(values, right)
		}
	}

	result := values[0]
	for i, op := range addOps {
		if op == '+' {
			result += values[i+1]
		} else {
			result -= values[i+1]
		}
	}
	return result, nil
}

func tokenize(expr string) ([]float64, []byte, error) {
	var nums []float64
	var ops []byte

	i := 0
	expectNumber := true
	for i < len(expr) {
		if expectNumber {
			start := i
			if expr[i] == '+' || expr[i] == '-' {
				i++
			}
			digits := i
			for i < len(expr) && (expr[i] >= '0' && expr[i] <= '9' || expr[i] == '.') {
				i++
			}
			if i == digits {
				return nil, nil, errors.New("expected a number")
			}
			value, err := strconv.ParseFloat(expr[start:i], 64)
			if err != nil {
				return nil, nil, err
			}
			nums = append(nums, value)
			expectNumber = false
			continue
		}

		op := expr[i]
		if op != '+' && op != '-' && op != '*' && op != '/' {
			return nil, nil, errors.New("expected an operator")
		}
		ops = append(ops, op)
		i++
		expectNumber = true
	}

	if expectNumber {
		return nil, nil, errors.New("dangling operator")
	}
	return nums, ops, nil
}
