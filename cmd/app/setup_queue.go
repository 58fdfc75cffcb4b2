package main

import (
	"github.com/vantaai/trustserv/audit"
	"github.com/vantaai/trustserv/config"
	"github.com/vantaai/trustserv/queue"
	"github.com/vantaai/trustserv/storage"
	"github.com/vantaai/trustserv/trust"
)

func setupQueue(instanceConfig *config.InstanceConfig, storage storage.PersistentStorage, analyzer trust.Analyzer, auditQueue *audit.Queue) (*queue.Pool, error) {
	poolConfig := &queue.PoolConfig{
		ConcurrentPools: 10,
		SizePerPool:     max(1, instanceConfig.ProcessingPoolSize/10),
	}
	return queue.NewPool(poolConfig, analyzer, storage, auditQueue)
}
