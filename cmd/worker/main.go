// Worker executable for smartcalc
//
// This starts a Temporal worker that executes the assistant workflows and
// activities.
package main

import (
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/mfateev/smartcalc/internal/activities"
	"github.com/mfateev/smartcalc/internal/assistant"
	"github.com/mfateev/smartcalc/internal/config"
	"github.com/mfateev/smartcalc/internal/llm"
	"github.com/mfateev/smartcalc/internal/logging"
	"github.com/mfateev/smartcalc/internal/temporalclient"
	"github.com/mfateev/smartcalc/internal/version"
	"github.com/mfateev/smartcalc/internal/workflow"
)

func main() {
	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Check for at least one LLM provider API key
	creds := cfg.Credentials.WithEnvFallback()
	if creds.OpenAIKey == "" && creds.AnthropicKey == "" {
		log.Fatal("At least one LLM provider API key is required: OPENAI_API_KEY or ANTHROPIC_API_KEY")
	}
	if creds.OpenAIKey != "" {
		log.Println("OpenAI provider available")
	}
	if creds.AnthropicKey != "" {
		log.Println("Anthropic provider available")
	}

	// Load Temporal client options via envconfig (supports env vars, config files, TLS)
	opts, err := temporalclient.LoadClientOptions(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
	if err != nil {
		log.Fatalf("Failed to load Temporal client config: %v", err)
	}

	c, err := client.Dial(opts)
	if err != nil {
		log.Fatalf("Failed to create Temporal client: %v", err)
	}
	defer c.Close()

	taskQueue := cfg.Temporal.TaskQueue
	if taskQueue == "" {
		taskQueue = workflow.TaskQueue
	}
	w := worker.New(c, taskQueue, worker.Options{})

	w.RegisterWorkflow(workflow.ExplainCalculationWorkflow)
	w.RegisterWorkflow(workflow.SolveWordProblemWorkflow)

	// Activities log through the Temporal activity logger; the service
	// itself stays quiet.
	service := assistant.NewService(llm.NewMultiProviderClient(creds), cfg.Assistant, logging.Discard())
	assistantActivities := activities.NewAssistantActivities(service)
	w.RegisterActivity(assistantActivities.ExplainCalculation)
	w.RegisterActivity(assistantActivities.SolveWordProblem)

	log.Printf("Worker version: %s", version.String())
	log.Printf("Starting worker on task queue: %s", taskQueue)
	if opts.HostPort != "" {
		log.Printf("Temporal server: %s", opts.HostPort)
	}

	err = w.Run(worker.InterruptCh())
	if err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Println("Worker stopped")
}
