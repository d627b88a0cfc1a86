// Command enclave-run executes a single AgentScript file inside the Enclave
// sandbox and prints its result as JSON. It is a thin harness for manual
// testing and CI smoke checks, not a production entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"goa.design/goa-ai/runtime/enclave"
	"goa.design/goa-ai/runtime/enclave/adapter/vmadapter"
	"goa.design/goa-ai/runtime/enclave/adapter/workerpool"
	"goa.design/goa-ai/runtime/enclave/sidecar"
)

func main() {
	var (
		scriptPath  = flag.String("script", "", "path to an AgentScript file (required)")
		globalsPath = flag.String("globals", "", "path to a JSON file of extra globals to inject")
		level       = flag.String("level", "standard", "security level: strict, standard, or relaxed")
		adapterKind = flag.String("adapter", "vm", "sandbox adapter: vm or worker_threads")
		timeout     = flag.Duration("timeout", 0, "execution timeout override (0 uses the security level default)")
	)
	flag.Parse()

	if *scriptPath == "" {
		fmt.Fprintln(os.Stderr, "enclave-run: -script is required")
		os.Exit(2)
	}

	source, err := os.ReadFile(*scriptPath)
	must(err)

	globals := map[string]any{}
	if *globalsPath != "" {
		raw, err := os.ReadFile(*globalsPath)
		must(err)
		must(json.Unmarshal(raw, &globals))
	}

	opts := enclave.Options{
		SecurityLevel: enclave.SecurityLevel(*level),
		Timeout:       *timeout,
		Globals:       globals,
		Sidecar: &enclave.ReferenceConfig{
			MaxTotalSize:        4 << 20,
			MaxReferenceSize:    1 << 20,
			ExtractionThreshold: 2048,
			MaxResolvedSize:     1 << 20,
			MaxReferenceCount:   256,
			MaxResolutionDepth:  4,
		},
		SidecarFactory: func(cfg enclave.ReferenceConfig) enclave.Sidecar {
			return sidecar.New(sidecar.ReferenceConfig{
				MaxTotalSize:        cfg.MaxTotalSize,
				MaxReferenceSize:    cfg.MaxReferenceSize,
				ExtractionThreshold: cfg.ExtractionThreshold,
				MaxResolvedSize:     cfg.MaxResolvedSize,
				AllowComposites:     cfg.AllowComposites,
				MaxReferenceCount:   cfg.MaxReferenceCount,
				MaxResolutionDepth:  cfg.MaxResolutionDepth,
			})
		},
	}

	switch enclave.AdapterKind(*adapterKind) {
	case enclave.AdapterWorkerPool:
		opts.Adapter = workerpool.New(workerpool.Options{
			Config: enclave.WorkerPoolConfig{Size: 2, MaxExecutionsPerWorker: 50, RecycleGrace: 5 * time.Second},
		})
		opts.AdapterKind = enclave.AdapterWorkerPool
	default:
		opts.Adapter = vmadapter.New(vmadapter.Options{})
		opts.AdapterKind = enclave.AdapterVM
	}

	box, err := enclave.New(opts)
	must(err)
	defer box.Dispose()

	ctx := context.Background()
	must(box.Initialize(ctx))

	result := box.Run(ctx, string(source), stubToolHandler)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	must(enc.Encode(result))

	if !result.Success {
		os.Exit(1)
	}
}

// stubToolHandler echoes its arguments back; enclave-run has no agent to
// dispatch real tool calls to, so callTool is only useful here for
// exercising the sandbox's own accounting and limits.
func stubToolHandler(_ context.Context, name string, args map[string]any) (any, error) {
	return map[string]any{"tool": name, "args": args}, nil
}

func must(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "enclave-run:", err)
		os.Exit(1)
	}
}
