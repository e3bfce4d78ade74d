package mynetwork

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MarcGrol/syncqueue/lib/mylog"
)

const probeTimeout = 3 * time.Second

// probeMonitor derives reachability by periodically issuing a lightweight
// request against a well-known URL. Any response, whatever the status,
// counts as reachable; only transport failure counts as offline.
type probeMonitor struct {
	*ManualMonitor
	client   *resty.Client
	probeURL string
	interval time.Duration
	logger   mylog.Logger
	stop     chan struct{}
}

func NewProbeMonitor(c context.Context, probeURL string, interval time.Duration) (Monitor, func()) {
	m := &probeMonitor{
		ManualMonitor: NewManualMonitor(false),
		client:        resty.New().SetTimeout(probeTimeout),
		probeURL:      probeURL,
		interval:      interval,
		logger:        mylog.New("mynetwork"),
		stop:          make(chan struct{}),
	}

	m.probe(c)
	go m.run(c)

	return m, func() {
		close(m.stop)
	}
}

func (m *probeMonitor) run(c context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.probe(c)
		case <-m.stop:
			return
		case <-c.Done():
			return
		}
	}
}

func (m *probeMonitor) probe(c context.Context) {
	_, err := m.client.R().SetContext(c).Head(m.probeURL)

	online := err == nil
	if online != m.IsOnline(c) {
		m.logger.Log(c, "", mylog.SeverityInfo, "Network transition: online=%t", online)
	}
	m.SetOnline(online)
}
