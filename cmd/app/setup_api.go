package main

import (
	"github.com/vantaai/trustserv/api"
	"github.com/vantaai/trustserv/config"
	"github.com/vantaai/trustserv/queue"
	"github.com/vantaai/trustserv/storage"
	"github.com/vantaai/trustserv/trust"
)

func setupApi(instanceConfig *config.InstanceConfig, storage storage.PersistentStorage, pool *queue.Pool, manager *trust.Manager) (*api.Api, error) {
	apiConfig := &api.Config{
		ApiKey: instanceConfig.ApiKey,
	}
	return api.NewApi(apiConfig, storage, pool, manager)
}
