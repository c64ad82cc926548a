package cleanup

import (
	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/constants"
	"github.com/liyxianren/mmyq/core/database"
	"github.com/liyxianren/mmyq/core/queue"
	"github.com/liyxianren/mmyq/core/storage"
	"github.com/liyxianren/mmyq/modules/cleanup/repository"
	"github.com/liyxianren/mmyq/modules/cleanup/service"
	"github.com/liyxianren/mmyq/modules/cleanup/task"
)

// Init wires the cleanup module. HTTP access goes through the admin module,
// so Init registers no routes of its own. When a worker is passed in, the
// retention task is attached to it.
func Init(db database.IDatabase, store storage.ObjectStorage, cfg *config.Config, worker *queue.Worker) (service.CleanupServiceInterface, error) {
	repo := repository.NewCleanupRepository(db)
	svc := service.NewCleanupService(repo, store, cfg.Venue)

	if worker != nil {
		handler := task.NewHandler(svc)
		worker.HandleFunc(constants.TaskCleanupExpired, handler.HandleCleanupExpired)
		if err := worker.Schedule(cfg.Cleanup.Schedule, constants.TaskCleanupExpired); err != nil {
			return nil, err
		}
	}
	return svc, nil
}
