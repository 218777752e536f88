// SPDX-License-Identifier: Apache-2.0
package main

import (
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"kanso/internal/lsp"
	"kanso/internal/logging"
)

const lsName = "semdiff-watch"

var (
	version = "0.0.1"
	handler protocol.Handler
	log     = logging.New(lsName)
)

func main() {
	commonlog.Configure(1, nil)

	diffHandler := lsp.NewDiffHandler()

	handler = protocol.Handler{
		Initialize:          diffHandler.Initialize,
		Initialized:         diffHandler.Initialized,
		Shutdown:            diffHandler.Shutdown,
		SetTrace:            diffHandler.SetTrace,
		TextDocumentDidSave: diffHandler.TextDocumentDidSave,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Infof("starting %s", lsName)

	if err := s.RunStdio(); err != nil {
		log.Errorf("server error: %s", err)
		os.Exit(1)
	}
}
