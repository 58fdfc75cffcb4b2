package trust

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/vantaai/trustserv/ai"
	"github.com/vantaai/trustserv/patterns"
	"github.com/vantaai/trustserv/pubsub"
)

// Manager - Holds the active Scorer and replaces it when the pattern tables are reloaded. In-flight analyses keep
// using the scorer they started with.
type Manager struct {
	// Implements Analyzer

	patternsFile string
	classifier   ai.ToxicityClassifier
	cnf          Config
	pubsubClient pubsub.Client

	current    atomic.Pointer[Scorer]
	reloadLock sync.Mutex
}

// NewManager - Loads the tables and, if a pubsub client is supplied, starts listening for reload requests.
func NewManager(ctx context.Context, patternsFile string, classifier ai.ToxicityClassifier, cnf Config, pubsubClient pubsub.Client) (*Manager, error) {
	m := &Manager{
		patternsFile: patternsFile,
		classifier:   classifier,
		cnf:          cnf,
		pubsubClient: pubsubClient,
	}
	if err := m.Reload(); err != nil {
		return nil, err
	}

	if pubsubClient != nil {
		ch, err := pubsubClient.Subscribe(ctx, pubsub.TopicPatternsReload)
		if err != nil {
			return nil, err
		}
		go m.reloadOnChannel(ch)
	}

	return m, nil
}

func (m *Manager) reloadOnChannel(ch <-chan string) {
	for val := range ch {
		if val == pubsub.ClosingValue {
			return // stop getting values
		}

		log := logrus.WithField("requested_by", val)
		log.Info("Reloading pattern tables given request")
		if err := m.Reload(); err != nil {
			log.WithError(err).Error("Error reloading pattern tables; keeping the previous tables")
		}
	}
}

// Scorer - The currently active scorer.
func (m *Manager) Scorer() *Scorer {
	return m.current.Load()
}

func (m *Manager) Analyze(ctx context.Context, content string) *AnalysisResult {
	return m.Scorer().Analyze(ctx, content)
}

// Ready - False while a lazily loaded classifier is still warming up. Analyses still succeed in the meantime, without
// the classifier's opinion.
func (m *Manager) Ready() bool {
	if r, ok := m.classifier.(interface{ Ready() bool }); ok {
		return r.Ready()
	}
	return true
}

// Reload - Rebuilds the tables from the patterns file and swaps in a new scorer. On error the previous scorer stays
// active.
func (m *Manager) Reload() error {
	m.reloadLock.Lock()
	defer m.reloadLock.Unlock()

	tables, err := patterns.LoadFile(m.patternsFile)
	if err != nil {
		return err
	}
	for _, dupe := range tables.Duplicates() {
		logrus.WithField("entry", dupe).Warn("Duplicate pattern table entry")
	}
	m.current.Store(NewScorer(tables, m.classifier, m.cnf))
	logrus.WithField("file", m.patternsFile).Info("Pattern tables loaded")
	return nil
}

// RequestReload - Asks every instance, including this one, to reload. Reloads locally when there's no pubsub.
func (m *Manager) RequestReload(ctx context.Context, requestedBy string) error {
	if m.pubsubClient == nil {
		return m.Reload()
	}
	return m.pubsubClient.Publish(ctx, pubsub.TopicPatternsReload, requestedBy)
}
