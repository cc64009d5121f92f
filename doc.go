/*
Package studiobridge is a local HTTP bridge between out-of-process callers and a desktop 3D Studio window.

The window hosts an HTML/JS front end. The bridge relays named commands into the window's script context and reports what the script returned, and it records the answers students submit from the front end so their status can be polled later.

# Concept

The bridge never creates the window. A GUI host (an embedded web view, or a child process speaking the JSON-lines protocol of package process) binds its script evaluator to the bridge exactly once. Until then every command is answered with ErrServiceUnavailable; after that a command becomes a call to window.localApi.executeCommand with the command name and payload encoded as JSON literals.

Evaluation failures are logged and absorbed: the caller still receives a successful envelope whose result is null.

# Key Features

  - Injectable GUI handle: bound once, read lock-free by every dispatch.
  - Submission store: one record per student, last write wins, in memory or in Redis.
  - HTTP API with unrestricted CORS, an embedded OpenAPI document and Prometheus metrics.
  - MCP tools so agents can drive the window through a running bridge.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/studiobridge"
		"github.com/aretw0/studiobridge/pkg/ports"
	)

	func main() {
		b, err := studiobridge.New()
		if err != nil {
			log.Fatal(err)
		}

		// Once the window is up, publish its script evaluator.
		b.BindGUI(ports.ScriptEvaluatorFunc(func(ctx context.Context, script string) (any, error) {
			return webview.Eval(script) // host specific
		}))

		res, err := b.Dispatch(context.Background(), "getSceneSummary", nil)
		if err != nil {
			log.Fatal(err) // domain.ErrServiceUnavailable when no window is bound
		}
		log.Println(res.Value)
	}

The studiobridge command wires the same pieces behind an HTTP server:

	studiobridge serve --gui ./studio-shell
*/
package studiobridge
