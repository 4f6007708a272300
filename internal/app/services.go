package app

import (
	"fmt"

	"github.com/fitlio/coach-backend/internal/pkg/logger"
	"github.com/fitlio/coach-backend/internal/realtime"
	"github.com/fitlio/coach-backend/internal/services"
)

type Services struct {
	AI         services.AIClient
	Catalog    *services.CoachCatalog
	Router     *services.ModelRouter
	Names      services.NameService
	History    services.HistoryService
	Telemetry  services.TelemetryService
	Classifier services.IntentClassifier
	Dispatcher services.ToolDispatcher
	Answers    services.AnswerService
	Turns      services.TurnService
}

func wireServices(log *logger.Logger, reposet Repos, hub *realtime.Hub, bus realtime.Bus) (Services, error) {
	log.Info("Wiring services...")

	ai, err := services.NewOpenAIClient(log)
	if err != nil {
		return Services{}, fmt.Errorf("init openai client: %w", err)
	}

	catalog := services.NewCoachCatalog(log)
	router := services.NewModelRouter(log)
	names := services.NewNameService(log, reposet.State)
	history := services.NewHistoryService(log, reposet.State)
	telemetry := services.NewTelemetryService(log, reposet.Trace, reposet.UnmetTool)
	classifier := services.NewLLMIntentClassifier(log, ai)
	dispatcher := services.NewLLMToolDispatcher(log, ai, hub, bus)
	answers := services.NewAnswerService(log, ai)

	turns := services.NewTurnService(log, services.TurnServiceDeps{
		Classifier: classifier,
		Router:     router,
		Names:      names,
		History:    history,
		Telemetry:  telemetry,
		Dispatcher: dispatcher,
		Answers:    answers,
		Catalog:    catalog,
		Hub:        hub,
		Bus:        bus,
	})

	return Services{
		AI:         ai,
		Catalog:    catalog,
		Router:     router,
		Names:      names,
		History:    history,
		Telemetry:  telemetry,
		Classifier: classifier,
		Dispatcher: dispatcher,
		Answers:    answers,
		Turns:      turns,
	}, nil
}
