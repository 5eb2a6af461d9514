// Package log provides the application's slog setup.
//
// Every logger is an *slog.Logger whose handler chain is
//
//	SecureHandler -> charmbracelet/log
//
// SecureHandler masks attributes that may hold secrets before they reach the
// terminal. The login step handles a password and session cookies, and
// verbose logs tend to be pasted into bug reports, so the masking is applied
// at every level.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("logged in", "url", loginURL, "password", pw) // password=***REDACTED***
//	slog.SetDefault(logger)
package log
