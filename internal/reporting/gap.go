package reporting

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/workplus/workplus/internal/models"
	"github.com/workplus/workplus/internal/status"
	"github.com/workplus/workplus/internal/upload"
)

type statusPayload struct {
	Status    string `json:"status"`
	UserEmail string `json:"userEmail"`
	EventTime string `json:"eventTime"`
}

// TransitionJournal stores reported transitions
type TransitionJournal interface {
	RecordTransition(event *models.StatusEvent) error
}

// GapReporter posts every status transition to the status endpoint and
// journals it with the delivery result. It implements status.Sink.
// Transitions seen while the network is unreachable are journaled
// unreported without a request.
type GapReporter struct {
	log      zerolog.Logger
	client   *http.Client
	url      string
	identity Identity
	probe    upload.Prober
	journal  TransitionJournal
}

func NewGapReporter(log zerolog.Logger, client *http.Client, url string, identity Identity, probe upload.Prober, journal TransitionJournal) *GapReporter {
	return &GapReporter{log: log, client: client, url: url, identity: identity, probe: probe, journal: journal}
}

func (g *GapReporter) OnTransition(ctx context.Context, tr status.Transition) error {
	err := g.send(ctx, tr)

	if g.journal != nil {
		event := &models.StatusEvent{
			Timestamp:       tr.At,
			Status:          tr.Current.String(),
			Previous:        tr.Previous.String(),
			DurationSeconds: int64(tr.InPrevious / time.Second),
			Reported:        err == nil,
		}
		if jerr := g.journal.RecordTransition(event); jerr != nil {
			g.log.Warn().Err(jerr).Msg("failed to journal transition")
		}
	}

	if err != nil {
		return err
	}
	g.log.Debug().Str("status", tr.Current.String()).Msg("status transition reported")
	return nil
}

func (g *GapReporter) send(ctx context.Context, tr status.Transition) error {
	if g.probe != nil {
		if err := g.probe.Reachable(ctx); err != nil {
			return err
		}
	}
	return postJSON(ctx, g.client, g.url, statusPayload{
		Status:    tr.Current.String(),
		UserEmail: g.identity.Email(),
		EventTime: tr.At.Format(time.RFC3339),
	})
}
