// Package services implements the driving port interfaces.
// Services contain the core pipeline logic (harvest, synthesize,
// assemble) and orchestrate calls to driven ports (adapters).
package services
