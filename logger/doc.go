// Package logger provides structured logging for the toolkit, built on
// zerolog. Components receive a *Logger, tag it with WithComponent, and
// attach structured fields rather than formatting messages by hand.
//
// Verbosity, format, and destination are configured here and nowhere else;
// the rest of the toolkit only supplies messages and fields.
package logger
