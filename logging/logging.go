// Package logging sets up the server's single process-wide log sink,
// grounded on johanix/tdns's SetupLogging: stdlib log with a rotating
// file backend when one is configured, otherwise stderr.
package logging

import (
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup points the standard logger at logfile, rotating at 20MB with 3
// backups kept for up to 14 days. An empty logfile leaves the default
// stderr output in place, which is the common case for --debug runs.
func Setup(logfile string, verbose bool) {
	if verbose {
		log.SetFlags(log.Lshortfile | log.Ltime)
	} else {
		log.SetFlags(log.Ltime)
	}

	if logfile == "" {
		return
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   logfile,
		MaxSize:    20,
		MaxBackups: 3,
		MaxAge:     14,
	})
}
