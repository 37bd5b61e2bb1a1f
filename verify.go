package main

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/zeozeozeo/gomips3/mips3"
	"golang.org/x/sync/errgroup"
)

// Runs the same program on an interpreter machine and a recompiler machine
// and compares their final states
func runVerify(opts options, rom, ramImage []byte) error {
	var machines [2]*machine
	g, ctx := errgroup.WithContext(context.Background())

	for i := range machines {
		i := i
		g.Go(func() error {
			o := opts
			o.drc = i == 1
			m, err := newMachine(o, rom, ramImage)
			if err != nil {
				return err
			}
			var total uint64
			for total < opts.cycles {
				if err := ctx.Err(); err != nil {
					return err
				}
				budget := opts.quantum
				if opts.cycles-total < budget {
					budget = opts.cycles - total
				}
				total += m.cpu.ExecuteRun(budget)
			}
			machines[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	diffs := diffMachines(machines[0], machines[1])
	for _, d := range diffs {
		log.Print(d)
	}
	if len(diffs) != 0 {
		return fmt.Errorf("%d differences between the interpreter and the recompiler", len(diffs))
	}
	return nil
}

// Returns a description of every difference between two machines
func diffMachines(a, b *machine) []string {
	var diffs []string
	ca, cb := a.cpu, b.cpu

	if ca.PC != cb.PC {
		diffs = append(diffs, fmt.Sprintf("pc: 0x%08x vs 0x%08x", ca.PC, cb.PC))
	}
	for i := range ca.Regs {
		if ca.Regs[i] != cb.Regs[i] {
			diffs = append(diffs, fmt.Sprintf("%s: 0x%016x vs 0x%016x",
				mips3.GetRegisterName(uint32(i)), ca.Regs[i], cb.Regs[i]))
		}
	}
	for c := range ca.Cpr {
		for i := range ca.Cpr[c] {
			if ca.Cpr[c][i] != cb.Cpr[c][i] {
				diffs = append(diffs, fmt.Sprintf("cop%d r%d: 0x%016x vs 0x%016x", c, i, ca.Cpr[c][i], cb.Cpr[c][i]))
			}
		}
	}
	if ca.Time.Cycles != cb.Time.Cycles {
		diffs = append(diffs, fmt.Sprintf("cycles: %d vs %d", ca.Time.Cycles, cb.Time.Cycles))
	}
	if !bytes.Equal(a.ram.Data, b.ram.Data) {
		for i := range a.ram.Data {
			if a.ram.Data[i] != b.ram.Data[i] {
				diffs = append(diffs, fmt.Sprintf("ram: first difference at 0x%08x", i))
				break
			}
		}
	}
	return diffs
}
