package util

import (
	"bytes"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
)

func TestPionLoggerFactoryScopesLines(t *testing.T) {
	var buf bytes.Buffer
	prevWriter, prevLevel := pterm.DefaultLogger.Writer, pterm.DefaultLogger.Level
	t.Cleanup(func() {
		pterm.DefaultLogger.Writer = prevWriter
		pterm.DefaultLogger.Level = prevLevel
	})
	SetLogOutput(&buf)
	pterm.DefaultLogger.Level = pterm.LogLevelWarn

	log := PionLoggerFactory{}.NewLogger("ice")
	log.Infof("gathering %d", 1)
	assert.Empty(t, buf.String(), "info is demoted below warn")

	log.Warnf("candidate %s dropped", "abc")
	assert.Contains(t, buf.String(), "[pion/ice] candidate abc dropped")
}
