package test

import (
	"github.com/vantaai/trustserv/audit"
)

// MustMakeAuditQueue - Creates an audit queue posting to the given webhook URL, which may be an httptest server.
// An empty URL creates a queue which drops everything.
func MustMakeAuditQueue(size int, webhookUrl string) *audit.Queue {
	queue, err := audit.NewQueue(size, webhookUrl, []string{"127.0.0.1", "localhost"})
	if err != nil {
		panic(err)
	}
	return queue
}
