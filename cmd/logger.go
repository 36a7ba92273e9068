// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// exchangeLogger writes engine log lines through the standard logger
type exchangeLogger struct {
	logger *log.Logger
}

func newExchangeLogger(w io.Writer) *exchangeLogger {
	return &exchangeLogger{logger: log.New(w, "", log.Ltime|log.Lmicroseconds)}
}

func (l *exchangeLogger) Debug(msg string, kv ...interface{}) {
	l.logger.Println("DEBUG:", msg+formatKeyValues(kv))
}

func (l *exchangeLogger) Info(msg string, kv ...interface{}) {
	l.logger.Println("INFO:", msg+formatKeyValues(kv))
}

func (l *exchangeLogger) Error(msg string, kv ...interface{}) {
	l.logger.Println("ERROR:", msg+formatKeyValues(kv))
}

// formatKeyValues renders key/value pairs as " key=value ..."
func formatKeyValues(kv []interface{}) string {
	var sb strings.Builder
	for i := 0; i < len(kv); i += 2 {
		if i+1 < len(kv) {
			fmt.Fprintf(&sb, " %v=%v", kv[i], kv[i+1])
		} else {
			fmt.Fprintf(&sb, " %v", kv[i])
		}
	}
	return sb.String()
}
