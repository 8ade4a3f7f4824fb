package domain

import "github.com/inconshreveable/log15"

// quietLogger returns logger, or a logger that drops everything when logger is
// nil.
func quietLogger(logger log15.Logger) log15.Logger {
	if logger != nil {
		return logger
	}

	l := log15.New()
	l.SetHandler(log15.DiscardHandler())

	return l
}
