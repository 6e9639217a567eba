package itensor

import (
	"fmt"
	"math"
)

// maxLogNum is the largest logNum whose exponential is a finite float64.
var maxLogNum = math.Log(math.MaxFloat64)

// LogNumber is the number sign·exp(logNum).
// Tensors keep their overall scale as a LogNumber so that norms spanning many orders of magnitude neither overflow nor underflow.
type LogNumber struct {
	logNum float64
	sign   int
}

// NewLogNumber returns x as a LogNumber.
func NewLogNumber(x float64) LogNumber {
	switch {
	case x > 0:
		return LogNumber{logNum: math.Log(x), sign: 1}
	case x < 0:
		return LogNumber{logNum: math.Log(-x), sign: -1}
	default:
		return LogNumber{}
	}
}

// LogNum returns a LogNumber from its logarithm and sign.
func LogNum(logNum float64, sign int) LogNumber {
	switch {
	case sign > 0:
		sign = 1
	case sign < 0:
		sign = -1
	}
	return LogNumber{logNum: logNum, sign: sign}
}

func (x LogNumber) LogNum() float64 { return x.logNum }
func (x LogNumber) Sign() int       { return x.sign }
func (x LogNumber) IsZero() bool    { return x.sign == 0 }

// IsFiniteReal reports whether Real returns a finite number.
func (x LogNumber) IsFiniteReal() bool {
	return x.sign == 0 || x.logNum < maxLogNum
}

// Real returns sign·exp(logNum), which may be ±Inf if x is not a finite real.
func (x LogNumber) Real() float64 {
	if x.sign == 0 {
		return 0
	}
	return float64(x.sign) * math.Exp(x.logNum)
}

// Real0 is like Real, but returns 0 for numbers too small to represent.
func (x LogNumber) Real0() float64 {
	if x.sign == 0 || x.logNum < -maxLogNum {
		return 0
	}
	return x.Real()
}

func (x LogNumber) Mul(y LogNumber) LogNumber {
	if x.sign == 0 || y.sign == 0 {
		return LogNumber{}
	}
	return LogNumber{logNum: x.logNum + y.logNum, sign: x.sign * y.sign}
}

// Div returns x/y, panicking if y is zero.
func (x LogNumber) Div(y LogNumber) LogNumber {
	if y.sign == 0 {
		panic("division by zero LogNumber")
	}
	if x.sign == 0 {
		return LogNumber{}
	}
	return LogNumber{logNum: x.logNum - y.logNum, sign: x.sign * y.sign}
}

func (x LogNumber) Neg() LogNumber {
	x.sign = -x.sign
	return x
}

func (x LogNumber) String() string {
	if x.sign < 0 {
		return fmt.Sprintf("-exp(%.2f)", x.logNum)
	}
	return fmt.Sprintf("exp(%.2f)", x.logNum)
}
