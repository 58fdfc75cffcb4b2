package main

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
	"github.com/vantaai/trustserv/config"
	"github.com/vantaai/trustserv/storage"
	"github.com/vantaai/trustserv/tasks"
)

func setupScheduler(scheduler gocron.Scheduler, db storage.PersistentStorage, instanceConfig *config.InstanceConfig) error {
	if err := schedulePurgeTask(scheduler, db, instanceConfig); err != nil {
		return err
	}
	return nil
}

func schedulePurgeTask(scheduler gocron.Scheduler, db storage.PersistentStorage, instanceConfig *config.InstanceConfig) error {
	if instanceConfig.AnalysisRetentionHours <= 0 {
		logrus.Info("TS_ANALYSIS_RETENTION_HOURS is 0: analyses will be kept forever")
		return nil
	}

	// We schedule this to run every hour +/- 10 minutes so that several instances sharing a database don't all
	// purge at once.
	purgeTask, err := scheduler.NewJob(gocron.DurationRandomJob(50*time.Minute, 70*time.Minute), gocron.NewTask(tasks.PurgeExpiredAnalyses, db, instanceConfig), gocron.WithName("PurgeExpiredAnalyses"))
	if err != nil {
		return err
	}

	logrus.WithField("job_id", purgeTask.ID()).Info("Scheduled analysis purge task every hour")
	runTaskNowish(purgeTask)

	return nil
}

// runTaskNowish - Runs a gocron task as quickly as possible, with a small delay to avoid overlapping calls. The task will
// wait asynchronously to run, so this will return immediately regardless of whether the task is running.
func runTaskNowish(task gocron.Job) {
	go func() {
		log := logrus.WithField("job_id", task.ID())
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			log.WithError(err).Warn("Non-fatal error generating jitter for task")
			n = big.NewInt(4)
		}
		<-time.After(time.Duration(n.Int64()) * time.Second)
		if err = task.RunNow(); err != nil {
			log.WithError(err).Warn("Non-fatal error trying to run task immediately")
		}
	}()
}
