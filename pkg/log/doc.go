// Package log provides the logging abstraction used across logrelay.
//
// The delivery layer logs through the Logger interface so library users can
// plug in their own logging infrastructure. A zerolog adapter is provided
// for production use and a no-op logger for embedding and tests:
//
//	logger := log.NewConsoleLogger()           // zerolog console output
//	logger := log.NewZerologLogger(zl)         // wrap an existing zerolog.Logger
//	logger := log.NewNoopLogger()              // discard everything
package log
