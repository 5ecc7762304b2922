package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"conductor-ai/internal/adapter/convstore"
	"conductor-ai/internal/adapter/llm"
	"conductor-ai/internal/adapter/personafile"
	"conductor-ai/internal/domain"
	"conductor-ai/internal/infra/config"
	"conductor-ai/internal/infra/logger"
	"conductor-ai/internal/infra/tracer"
	"conductor-ai/internal/usecase"
	"conductor-ai/internal/usecase/coordinator"
	"conductor-ai/internal/usecase/manager"
	"conductor-ai/internal/usecase/persona"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	request := flag.String("request", "Summarize the quarterly sales numbers and highlight risks", "user request to dispatch")
	flag.Parse()

	if err := run(*configPath, *request); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, request string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(log)

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return err
	}
	defer shutdownTracer(ctx)

	mgr := manager.New(log)

	if cfg.Archive.Enabled {
		store, err := convstore.Open(cfg.Archive.Path, log)
		if err != nil {
			return err
		}
		defer store.Close()
		mgr.OnEvent(domain.EventMessageSent, store.Callback())
	}

	var selector coordinator.Selector
	if cfg.Coordinator.EnablePersonaSelector {
		repo, err := personafile.Load(cfg.Personas.Path)
		if err != nil {
			log.Warn("persona catalog unavailable, selection disabled", "path", cfg.Personas.Path, "error", err)
		} else {
			selector = persona.NewSelector(repo, log)
		}
	}

	completer := llm.NewBreakerCompleter(
		llm.NewClient(llm.Config{
			BaseURL:           cfg.LLM.BaseURL,
			APIKey:            cfg.LLM.APIKey,
			Model:             cfg.LLM.Model,
			MaxTokens:         cfg.LLM.MaxTokens,
			Temperature:       cfg.LLM.Temperature,
			RequestsPerSecond: cfg.LLM.RequestsPerSecond,
			ConnTimeout:       cfg.LLM.ConnTimeout,
			RespTimeout:       cfg.LLM.RespTimeout,
		}, log),
		llm.BreakerConfig{}, log)

	registerAgentTypes(mgr, log, coordinator.Options{
		Templates: coordinator.NewDirTemplates(cfg.Templates.Dir),
		Selector:  selector,
		Completer: completer,
		Logger:    log,
	})

	coord, err := mgr.CreateAgent("coordinator", "coordinator_main", domain.AgentConfig{Name: "Coordinator"})
	if err != nil {
		return err
	}
	workers := map[string]string{}
	for _, kind := range []string{"research", "analysis", "document_writer"} {
		a, err := mgr.CreateAgent(kind, "", domain.AgentConfig{Name: strings.ReplaceAll(kind, "_", " ")})
		if err != nil {
			return err
		}
		workers[kind] = a.ID()
	}

	workflowID := mgr.CreateWorkflow("demo_session")
	mgr.AddAgentToWorkflow(workflowID, coord.ID(), "coordinator")
	for _, id := range workers {
		mgr.AddAgentToWorkflow(workflowID, id, "worker")
	}

	result := dispatch(ctx, mgr, coord, workers, request)

	out, err := json.MarshalIndent(result.Wire(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// dispatch walks one request through the full loop: decomposition,
// per-subtask assignment and execution, then result collection.
func dispatch(ctx context.Context, mgr *manager.AgentManager, coord domain.Agent, workers map[string]string, request string) domain.TaskResult {
	decomposed := coord.ProcessTask(ctx, domain.TaskRequest{
		Type:    "user_request",
		Content: request,
	})
	if decomposed.Status != domain.StatusSubtasksCreated {
		return decomposed
	}

	for _, sub := range decomposed.Subtasks {
		workerID := pickWorker(workers, sub.Type)
		coord.ProcessTask(ctx, domain.TaskRequest{
			TaskID:    decomposed.TaskID,
			Type:      "subtask_assignment",
			SubtaskID: sub.SubtaskID,
			AgentID:   workerID,
		})

		worker, ok := mgr.Agent(workerID)
		if !ok {
			continue
		}
		res := worker.ProcessTask(ctx, domain.TaskRequest{
			TaskID:    decomposed.TaskID,
			SubtaskID: sub.SubtaskID,
			Type:      sub.Type,
			Content:   sub.Content,
		})
		mgr.SendMessage(workerID, coord.ID(), map[string]any{
			"task_id":    decomposed.TaskID,
			"subtask_id": sub.SubtaskID,
			"result":     res.Wire(),
		}, domain.TypeTaskResponse, domain.PriorityMedium, nil)
	}

	return coord.ProcessTask(ctx, domain.TaskRequest{
		TaskID: decomposed.TaskID,
		Type:   "result_collection",
	})
}

func pickWorker(workers map[string]string, subtaskType string) string {
	if id, ok := workers[subtaskType]; ok {
		return id
	}
	return workers["document_writer"]
}

func registerAgentTypes(mgr *manager.AgentManager, log *slog.Logger, opts coordinator.Options) {
	mgr.RegisterAgentType("coordinator", func(cfg domain.AgentConfig) (domain.Agent, error) {
		return coordinator.New(cfg.AgentID, cfg.Name, opts), nil
	})

	for _, kind := range []string{"research", "analysis", "document_writer"} {
		kind := kind
		mgr.RegisterAgentType(kind, func(cfg domain.AgentConfig) (domain.Agent, error) {
			base := usecase.NewBaseAgent(cfg.AgentID, cfg.Name, kind, log)
			return usecase.NewFuncAgent(base, func(ctx context.Context, task domain.TaskRequest) domain.TaskResult {
				return domain.TaskResult{
					Status:    domain.StatusCompleted,
					TaskID:    task.TaskID,
					SubtaskID: task.SubtaskID,
					AgentID:   cfg.AgentID,
					Result: map[string]any{
						"output": fmt.Sprintf("%s output for: %v", kind, task.Content),
					},
				}
			}), nil
		})
	}
}
