// Package model implements the SCPI command tree.
//
// # Tree Structure
//
// A command tree is composed once at startup from declarative entries and
// never mutated afterwards:
//
//	root
//	├── *TRG            (common command)
//	├── *IDN?           (common command)
//	├── [SOURce]        (default branch)
//	│   ├── VOLTage
//	│   │   └── [LEVel]  (default leaf)
//	│   └── CURRent
//	└── MEASure
//	    └── VOLTage?
//
// Branches hold children keyed by mnemonic; leaves hold a handler. A
// child flagged as default is selected when its name is omitted from a
// header.
//
// # Declaring Trees
//
// Trees are declared with Leaf and Branch and compiled with NewTree:
//
//	tree, err := model.NewTree(
//	    commands.Trigger[*PSU](),
//	    model.Branch[*PSU]("SOURce", true,
//	        model.Branch[*PSU]("VOLTage", false,
//	            model.Leaf[*PSU]("LEVel", true, voltageHandler{}),
//	        ),
//	    ),
//	)
//
// # Handler Binding
//
// A handler implements EventHandler, QueryHandler or both for a device
// type D. NewTree records which modes each leaf supports; the dispatcher
// rejects unsupported modes before any handler runs. Capability
// requirements are expressed as type constraints on the constructors that
// produce leaves, so a device missing a capability fails to compile.
//
// # Mnemonics
//
// Mnemonics are declared in SCPI notation: the upper-case prefix is the
// short form ("MEASure" accepts MEAS, MEASU, ..., MEASURE in any case). A
// trailing '#' accepts a numeric suffix ("OUTPut#" accepts OUTP2), which
// handlers read from the Context.
package model
