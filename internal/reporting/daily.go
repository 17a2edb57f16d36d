package reporting

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/workplus/workplus/internal/activitylog"
	"github.com/workplus/workplus/internal/status"
)

const dateLayout = "2006-01-02"

type dailyPayload struct {
	Email     string `json:"email"`
	Date      string `json:"date"`
	LoginTime string `json:"loginTime"`
}

// DailyActivityReporter sends at most one login event per local calendar
// day. A failed send is retried by the next trigger.
type DailyActivityReporter struct {
	log      zerolog.Logger
	client   *http.Client
	url      string
	identity Identity
	activity *activitylog.Logger
	loc      *time.Location
	now      func() time.Time

	mu       sync.Mutex
	lastDate string
}

func NewDailyActivityReporter(log zerolog.Logger, client *http.Client, url string, identity Identity, activity *activitylog.Logger, loc *time.Location) *DailyActivityReporter {
	if loc == nil {
		loc = time.Local
	}
	return &DailyActivityReporter{
		log:      log,
		client:   client,
		url:      url,
		identity: identity,
		activity: activity,
		loc:      loc,
		now:      time.Now,
	}
}

// Report sends today's login event unless it was already delivered
func (d *DailyActivityReporter) Report(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now().In(d.loc)
	date := now.Format(dateLayout)
	if date == d.lastDate {
		return nil
	}

	err := postJSON(ctx, d.client, d.url, dailyPayload{
		Email:     d.identity.Email(),
		Date:      date,
		LoginTime: now.Format(time.RFC3339),
	})
	if err != nil {
		d.activity.Errorf("Daily activity report failed: %v", err)
		return err
	}

	d.lastDate = date
	d.activity.Appendf("Daily activity reported for %s", date)
	d.log.Info().Str("date", date).Msg("daily activity reported")
	return nil
}

// OnTransition reports on the first Online transition of a day. It
// implements status.Sink.
func (d *DailyActivityReporter) OnTransition(ctx context.Context, tr status.Transition) error {
	if tr.Current != status.Online {
		return nil
	}
	return d.Report(ctx)
}
