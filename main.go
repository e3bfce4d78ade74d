package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/syncqueue/lib/myconfig"
	"github.com/MarcGrol/syncqueue/lib/myhttpclient"
	"github.com/MarcGrol/syncqueue/lib/mylog"
	"github.com/MarcGrol/syncqueue/lib/mynetwork"
	"github.com/MarcGrol/syncqueue/lib/mystore"
	"github.com/MarcGrol/syncqueue/lib/mytime"
	"github.com/MarcGrol/syncqueue/lib/myuuid"
	"github.com/MarcGrol/syncqueue/services/syncqueue"
)

type Config struct {
	Port          string        `envconfig:"PORT" default:"8080"`
	ProbeURL      string        `envconfig:"PROBE_URL" default:"https://www.google.com/generate_204"`
	ProbeInterval time.Duration `envconfig:"PROBE_INTERVAL" default:"10s"`
	Debug         bool          `envconfig:"DEBUG" default:"false"`
}

func main() {
	c := context.Background()

	cfg := Config{}
	err := myconfig.LoadEnv(&cfg)
	if err != nil {
		log.Fatalf("Error loading config: %s", err)
	}
	mylog.SetDebug(cfg.Debug)

	queueStore, storeCleanup, err := mystore.New[syncqueue.PendingRequests](c)
	if err != nil {
		log.Fatalf("Error creating queue store: %s", err)
	}
	defer storeCleanup()

	monitor, monitorCleanup := mynetwork.NewProbeMonitor(c, cfg.ProbeURL, cfg.ProbeInterval)
	defer monitorCleanup()

	service := syncqueue.NewService(queueStore, myhttpclient.New(), monitor,
		myuuid.RealUUIDer{}, mytime.RealNower{}, mytime.RealScheduler{})
	defer service.Close()

	service.Configure(syncqueue.Config{
		Debug: cfg.Debug,
	})

	router := mux.NewRouter()
	syncqueue.NewWebService(service).RegisterEndpoints(c, router)

	startWebServerBlocking(router, cfg.Port)
}

func startWebServerBlocking(router *mux.Router, port string) {
	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
