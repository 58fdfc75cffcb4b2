package tasks

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vantaai/trustserv/config"
	"github.com/vantaai/trustserv/storage"
)

func PurgeExpiredAnalyses(db storage.PersistentStorage, cnf *config.InstanceConfig) {
	if cnf.AnalysisRetentionHours <= 0 {
		logrus.Debug("Skipping analysis purge: retention is disabled")
		return // nothing to do
	}

	log := logrus.WithField("retention_hours", cnf.AnalysisRetentionHours)
	log.Info("Purging expired analyses...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	before := time.Now().UTC().Add(-time.Duration(cnf.AnalysisRetentionHours) * time.Hour)
	deleted, err := db.DeleteAnalysesBefore(ctx, before)
	if err != nil {
		log.WithError(err).Error("Non-fatal error purging expired analyses")
		return
	}

	log.WithField("deleted", deleted).Info("Finished purging expired analyses")
}
