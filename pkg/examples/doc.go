// Package examples provides simulated instruments demonstrating how to
// build SCPI devices with scpi-go.
//
// The examples show:
//   - Declaring a command tree with default nodes and numeric suffixes
//   - Implementing the capabilities the common commands bind to
//   - The IEEE488.2 trigger model behind *TRG, INITiate and TRIGger:SOURce
//   - Serving a device through interaction.Instrument
//
// Available examples:
//   - PowerSupply: a programmable DC supply with a triggered voltage level
//   - Multimeter: a DC voltmeter/ammeter taking readings on trigger
//
// NewSimulation builds either one by name for servers and consoles.
package examples
