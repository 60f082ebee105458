// Package logging provides simple leveled logging controlled by the DEBUG
// and LOG_LEVEL environment variables. All output goes through the standard
// library log package so timestamps and destinations stay consistent across
// the process.
package logging
