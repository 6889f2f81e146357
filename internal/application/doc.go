// Package application wires a loaded settings table into the HTTP API and
// server, keeping the main package focused on CLI parsing and orchestration.
package application
