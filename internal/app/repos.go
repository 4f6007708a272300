package app

import (
	"gorm.io/gorm"

	repos "github.com/fitlio/coach-backend/internal/data/repos/coach"
	"github.com/fitlio/coach-backend/internal/pkg/logger"
)

type Repos struct {
	State     repos.StateRepo
	Trace     repos.TraceRepo
	UnmetTool repos.UnmetToolRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		State:     repos.NewStateRepo(db, log),
		Trace:     repos.NewTraceRepo(db, log),
		UnmetTool: repos.NewUnmetToolRepo(db, log),
	}
}
