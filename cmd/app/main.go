package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/vantaai/trustserv/ai"
	"github.com/vantaai/trustserv/audit"
	"github.com/vantaai/trustserv/config"
	"github.com/vantaai/trustserv/logging"
	"github.com/vantaai/trustserv/pubsub"
	"github.com/vantaai/trustserv/storage"
	"github.com/vantaai/trustserv/trust"
	"github.com/vantaai/trustserv/version"
)

func main() {
	var err error
	var db storage.PersistentStorage
	var pubsubClient pubsub.Client

	instanceConfig, err := config.NewInstanceConfig()
	if err != nil {
		logrus.Fatal(err)
	}
	if err = logging.Configure(instanceConfig.LogLevel, instanceConfig.LogFormat); err != nil {
		logrus.Fatal(err)
	}
	logrus.WithField("version", version.String()).Info("trustserv starting")

	// Start pprof early if configured so startup can be debugged (if needed)
	if instanceConfig.PprofBind != "" {
		go func() {
			// pprof binds itself to the default HTTP server, so we just have to start that server.
			logrus.WithField("bind", instanceConfig.PprofBind).Info("Starting pprof server")
			logrus.Fatal(http.ListenAndServe(instanceConfig.PprofBind, nil))
		}()
	}

	if db, pubsubClient, err = setupDataHandlers(instanceConfig); err != nil {
		logrus.Fatal(err)
	}
	defer db.Close()
	defer pubsubClient.Close()

	classifier, err := ai.NewClassifier(instanceConfig)
	if err != nil {
		logrus.Fatal(err)
	}
	logrus.WithField("provider", instanceConfig.ClassifierProvider).Info("Toxicity classifier configured")

	manager, err := trust.NewManager(context.Background(), instanceConfig.PatternsFile, classifier, trust.ConfigFromInstance(instanceConfig), pubsubClient)
	if err != nil {
		logrus.Fatal(err)
	}

	auditQueue, err := audit.NewQueue(instanceConfig.WebhookPoolSize, instanceConfig.WebhookUrl, instanceConfig.AllowedWebhookDomains)
	if err != nil {
		logrus.Fatal(err)
	}

	pool, err := setupQueue(instanceConfig, db, manager, auditQueue)
	if err != nil {
		logrus.Fatal(err)
	}

	api, err := setupApi(instanceConfig, db, pool, manager)
	if err != nil {
		logrus.Fatal(err) // "should never happen"
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	appMux := http.NewServeMux()
	if err = api.BindTo(appMux); err != nil {
		logrus.Fatal(err)
	}

	metricsServer := &http.Server{Addr: instanceConfig.MetricsBind, Handler: metricsMux}
	appServer := &http.Server{Addr: instanceConfig.HttpBind, Handler: appMux}

	var wg sync.WaitGroup
	stopping := false
	startServer := func(server *http.Server) {
		logrus.WithField("bind", server.Addr).Info("Starting HTTP server")
		err := server.ListenAndServe()
		if err != nil && (!stopping && !errors.Is(err, http.ErrServerClosed)) {
			logrus.Fatal(err)
		}
	}
	stopServer := func(server *http.Server, ctx context.Context) {
		defer wg.Done()
		err := server.Shutdown(ctx)
		if err != nil {
			logrus.WithError(err).Error("Failed to stop HTTP server cleanly")
		}
	}
	wg.Add(2) // 1 for each server
	go startServer(metricsServer)
	go startServer(appServer)

	// Schedule tasks now that we're mostly started up
	scheduler, err := gocron.NewScheduler(gocron.WithLogger(&logging.CronLogger{}))
	if err != nil {
		logrus.Fatal(err)
	}
	scheduler.Start() // start immediately so we can force jobs to run immediately too
	err = setupScheduler(scheduler, db, instanceConfig)
	if err != nil {
		logrus.Fatal(err)
	}

	// Wait for a stop signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer close(stop)
	<-stop
	stopping = true

	logrus.Info("Stopping...")
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()
	if err = scheduler.Shutdown(); err != nil {
		logrus.WithError(err).Error("Failed to stop scheduler")
	}
	go stopServer(metricsServer, ctx)
	go stopServer(appServer, ctx)
	wg.Wait()

	// Let in-flight analyses and webhooks finish now that nothing new can arrive
	if err = pool.Release(4 * time.Second); err != nil {
		logrus.WithError(err).Error("Failed to release processing pool")
	}
	if err = auditQueue.Release(4 * time.Second); err != nil {
		logrus.WithError(err).Error("Failed to release audit queue")
	}
}
