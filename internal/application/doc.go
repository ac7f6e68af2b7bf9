// Package application wires the CLI together. It loads schema files, registers
// YAML modules with the symbol resolver, builds settings sources from flags and
// renders resolved configuration, keeping the main package focused on CLI
// parsing and orchestration.
package application
