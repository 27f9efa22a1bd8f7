// AgentOps policy Q&A service and CLI
// Answers associate questions and drafts guest replies with policy citations
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
