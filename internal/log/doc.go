// Package log builds the supervisor's slog loggers.
//
// Every logger returned here wraps its handler in a SecureHandler, which
// masks secrets before they reach the output: credential-like keys,
// token-like values (Telegram bot tokens, Tor hashed control passwords,
// JWTs) and sensitive elements of logged command lines. Masking applies at
// every level, verbose included.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("starting application", "argv", []string{"python", "main.py"})
package log
