// Package commands provides the IEEE488.2 common commands and the
// mandatory SCPI SYSTem subsystem as ready-made tree entries.
//
// Each constructor is generic over the device type and constrained by the
// capability interfaces its handler needs, so a device lacking a
// capability fails to compile rather than at run time:
//
//	type PSU struct{ ... }
//	func (p *PSU) BusTrigger() error { ... }
//
//	tree := model.MustTree(
//	    commands.Trigger[*PSU](),
//	    ...
//	)
//
// Common and System bundle the full standard set for devices that
// implement every capability.
package commands
