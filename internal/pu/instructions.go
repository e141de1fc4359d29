package pu

import "fmt"

// LoadInstr is Fram's address-setup instruction, emitted one tick before
// a cell's Source endpoint commits (§4.D).
type LoadInstr struct{ Addr int }

func (i LoadInstr) InstructionString() string { return fmt.Sprintf("LOAD %d", i.Addr) }

// SaveInstr is Fram's write instruction, emitted during a cell's Target
// endpoint.
type SaveInstr struct{ Addr int }

func (i SaveInstr) InstructionString() string { return fmt.Sprintf("SAVE %d", i.Addr) }

// OperInstr is the generic serial-PU compute instruction: the ALU/op
// code a concrete PU (Accumulator, Multiplier, Shift, Divider) asserts
// on each tick a result of its function is sourced; target (input)
// ticks carry no instruction.
type OperInstr struct{ Op string }

func (i OperInstr) InstructionString() string { return i.Op }

// SPIInstr is the half-duplex SPI shift instruction, naming which ring
// slot is transferred this tick.
type SPIInstr struct {
	Send bool
	Slot int
}

func (i SPIInstr) InstructionString() string {
	if i.Send {
		return fmt.Sprintf("SPI_SEND %d", i.Slot)
	}
	return fmt.Sprintf("SPI_RECV %d", i.Slot)
}
