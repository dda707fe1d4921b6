// Package interaction executes SCPI program messages against a device.
//
// A Dispatcher walks a compiled model.Tree for each command unit of a
// line, enforces query-versus-event semantics and collects responses and
// errors:
//
//	tree := model.MustTree(commands.Common[*PSU]()...)
//	d := interaction.NewDispatcher(tree)
//	res := d.Execute(psu, "*RST;VOLT 5;MEAS:VOLT?")
//	fmt.Println(string(res.Response)) // "5.000E+00"
//
// # Failure Policy
//
// A failing unit does not abort the line: its error is recorded and the
// remaining units still run. Every error is pushed, in order, to the
// configured ErrorSink (normally the instrument's error queue); Result.Err
// is the worst of them by severity.
//
// # Exclusive Access
//
// Instrument pairs a device with its dispatcher and serializes lines, so
// handlers always see the device exclusively no matter how many
// connections feed the instrument.
package interaction
