package main

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vantaai/trustserv/config"
	"github.com/vantaai/trustserv/pubsub"
	"github.com/vantaai/trustserv/storage"
)

func setupDataHandlers(instanceConfig *config.InstanceConfig) (storage.PersistentStorage, pubsub.Client, error) {
	psqlDb, err := setupStorage(instanceConfig)
	if err != nil {
		return nil, nil, err
	}
	psqlPubsub, err := setupPubsub(instanceConfig, psqlDb)
	if err != nil {
		_ = psqlDb.Close()
		return nil, nil, err
	}
	return psqlDb, psqlPubsub, nil
}

func setupStorage(instanceConfig *config.InstanceConfig) (*storage.PostgresStorage, error) {
	dbConfig := &storage.PostgresStorageConfig{
		RWDatabase: &storage.PostgresStorageConnectionConfig{
			Uri:          instanceConfig.Database,
			MaxOpenConns: instanceConfig.DatabaseMaxOpenConns,
			MaxIdleConns: instanceConfig.DatabaseMaxIdleConns,
		},
		MigrationsPath: instanceConfig.DatabaseMigrationsDir,
	}
	if instanceConfig.DatabaseReadonlyUri != "" {
		logrus.Info("Using a separate read-only database for analysis lookups")
		dbConfig.RODatabase = &storage.PostgresStorageConnectionConfig{
			Uri:          instanceConfig.DatabaseReadonlyUri,
			MaxOpenConns: instanceConfig.DatabaseReadonlyMaxOpen,
			MaxIdleConns: instanceConfig.DatabaseReadonlyMaxIdle,
		}
	}
	psqlDb, err := storage.NewPostgresStorage(dbConfig)
	if err != nil {
		return nil, errors.Join(errors.New("NewPostgresStorage: failed create"), err)
	}
	return psqlDb, nil
}

// setupPubsub - Pattern reload requests travel over the same database as the analyses.
func setupPubsub(instanceConfig *config.InstanceConfig, notifier pubsub.Notifier) (pubsub.Client, error) {
	pubsubConfig := &pubsub.PostgresPubsubConnectionConfig{
		Uri:                  instanceConfig.Database,
		MinReconnectInterval: 100 * time.Millisecond,
		MaxReconnectInterval: 5 * time.Second,
	}
	psqlPubsub, err := pubsub.NewPostgresPubsub(notifier, pubsubConfig)
	if err != nil {
		return nil, errors.Join(errors.New("NewPostgresPubsub: failed create"), err)
	}
	return psqlPubsub, nil
}
