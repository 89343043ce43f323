package analytics

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SessionName is the cookie holding the anonymous session id.
const SessionName = "visurena_visit"

const sessionKey = "sid"

// Tracker records page views served through its middleware.
type Tracker struct {
	store   *Store
	logger  *zap.Logger
	limiter *rateLimiter
	now     func() time.Time
	stop    chan struct{}
}

// NewTracker returns a Tracker writing to store. At most 60 visits per client
// IP are recorded each minute.
func NewTracker(store *Store, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		store:   store,
		logger:  logger,
		limiter: newRateLimiter(60, time.Minute),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go t.limiter.run(t.stop)
	return t
}

// Close stops the limiter's background pruning.
func (t *Tracker) Close() {
	close(t.stop)
}

func skipPath(p string) bool {
	return strings.HasPrefix(p, "/public/") ||
		strings.HasPrefix(p, "/thumbs/") ||
		strings.HasPrefix(p, "/api/")
}

// Middleware records every successful HTML GET. It needs the echo-contrib
// session middleware earlier in the chain.
func (t *Tracker) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet || skipPath(req.URL.Path) || req.Header.Get("DNT") == "1" {
				return next(c)
			}

			ua := req.UserAgent()
			bot := BotName(ua)
			var sid string
			if bot == "" {
				sid = t.sessionID(c)
			}

			if err := next(c); err != nil {
				return err
			}

			res := c.Response()
			if res.Status != http.StatusOK || !strings.HasPrefix(res.Header().Get(echo.HeaderContentType), echo.MIMETextHTML) {
				return nil
			}
			ip := c.RealIP()
			if !t.limiter.allow(ip) {
				return nil
			}

			ctx := req.Context()
			now := t.now().UTC()
			if bot != "" {
				if err := t.store.RecordBotVisit(ctx, BotVisit{
					BotName:   bot,
					IPHash:    t.store.hash.IP(ip),
					Path:      req.URL.Path,
					Timestamp: now,
				}); err != nil {
					t.logger.Error("record bot visit", zap.Error(err))
				}
				return nil
			}

			browser, os, device := ParseUserAgent(ua)
			selfHost := (&url.URL{Host: req.Host}).Hostname()
			if err := t.store.RecordVisit(ctx, Visit{
				VisitorID: t.store.hash.Visitor(ip, ua),
				SessionID: sid,
				IPHash:    t.store.hash.IP(ip),
				Browser:   browser,
				OS:        os,
				Device:    device,
				Path:      req.URL.Path,
				Referrer:  CleanReferrer(req.Referer(), selfHost),
				Timestamp: now,
			}); err != nil {
				t.logger.Error("record visit", zap.Error(err))
			}
			return nil
		}
	}
}

// sessionID returns the visitor's session id, issuing a cookie for a new one.
func (t *Tracker) sessionID(c echo.Context) string {
	sess, err := session.Get(SessionName, c)
	if err != nil {
		t.logger.Debug("analytics session unavailable", zap.Error(err))
		return ""
	}
	if sid, ok := sess.Values[sessionKey].(string); ok && sid != "" {
		return sid
	}
	sid := newSessionID()
	sess.Values[sessionKey] = sid
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		t.logger.Warn("save analytics session", zap.Error(err))
	}
	return sid
}
