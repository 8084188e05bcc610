package spiregister

import (
	"fmt"
)

// Step is a stage of a register transaction. Stages always run in this order.
type Step int

// The stages of a register transaction.
const (
	StepSelectLow Step = iota + 1
	StepSendCommand
	StepCollectResponse
	StepSelectHigh
)

func (s Step) String() string {
	switch s {
	case StepSelectLow:
		return "select low"
	case StepSendCommand:
		return "send command"
	case StepCollectResponse:
		return "collect response"
	case StepSelectHigh:
		return "select high"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// A StepError reports which stage of a transaction failed.
type StepError struct {
	Step    Step
	Opcode  byte
	Address uint16
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("register 0x%04x (opcode 0x%02x): %s: %v", e.Address, e.Opcode, e.Step, e.Err)
}

// Unwrap returns the error of the failed stage.
func (e *StepError) Unwrap() error { return e.Err }
