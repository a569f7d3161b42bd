// internal/app/system/workers/expirysweep.go
package workers

import (
	"context"
	"sync"
	"time"

	gpstore "github.com/vibesslabs/vibess-server/internal/app/store/gps"
	userstore "github.com/vibesslabs/vibess-server/internal/app/store/users"
	"github.com/vibesslabs/vibess-server/internal/app/system/mailer"
	"go.uber.org/zap"
)

// ExpirySweep is a background worker that flips lapsed GPs to expired and
// notifies the next waitlisted user in every category that freed a slot.
// Reads of a GP do not depend on it (status is evaluated lazily); the
// sweep exists so waitlist notifications and listings stay fresh.
type ExpirySweep struct {
	gps      *gpstore.Store
	users    *userstore.Store
	mail     mailer.Sender
	siteName string
	baseURL  string
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewExpirySweep creates the sweep worker. interval is how often to scan
// (e.g. 1 minute). mail delivers the waitlist notification; siteName and
// baseURL fill its template.
func NewExpirySweep(gps *gpstore.Store, users *userstore.Store, mail mailer.Sender, siteName, baseURL string, logger *zap.Logger, interval time.Duration) *ExpirySweep {
	return &ExpirySweep{
		gps:      gps,
		users:    users,
		mail:     mail,
		siteName: siteName,
		baseURL:  baseURL,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *ExpirySweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("expiry sweep worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *ExpirySweep) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("expiry sweep worker stopped")
}

func (w *ExpirySweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *ExpirySweep) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	count, categories, err := w.gps.MarkLapsedExpired(ctx, now)
	if err != nil {
		w.log.Error("failed to expire lapsed gps", zap.Error(err))
		return
	}
	if count == 0 {
		return
	}

	w.log.Info("expired lapsed gps",
		zap.Int64("count", count),
		zap.Strings("categories", categories))

	// Each freed category gets one notification: the oldest waiting user.
	// The notified flag on the user document is the source of truth; the
	// email is best-effort on top of it.
	for _, cat := range categories {
		u, found, err := w.users.NotifyNextWaitlisted(ctx, cat, now)
		if err != nil {
			w.log.Error("waitlist notify failed",
				zap.String("category", cat), zap.Error(err))
			continue
		}
		if !found {
			continue
		}

		w.log.Info("notified waitlisted user",
			zap.String("category", cat),
			zap.String("user_id", u.ID.Hex()))

		email := mailer.BuildWaitlistEmail(mailer.WaitlistEmailData{
			SiteName:    w.siteName,
			DisplayName: u.DisplayName,
			Category:    cat,
			ExploreLink: w.baseURL + "/gps?category=" + cat,
		})
		email.To = u.Email
		if err := w.mail.Send(ctx, email); err != nil {
			w.log.Warn("waitlist email send failed",
				zap.String("category", cat),
				zap.String("user_id", u.ID.Hex()),
				zap.Error(err))
		}
	}
}
