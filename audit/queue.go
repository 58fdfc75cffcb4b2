package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/ryanuber/go-glob"
	"github.com/sirupsen/logrus"
	"github.com/vantaai/trustserv/version"
)

// Notice - What gets sent to the webhook about a suspicious analysis. Never includes the analysed content.
type Notice struct {
	ReportId      string
	Source        string
	Score         int
	Reason        string
	ContentDigest string
	LinkCount     int
	CreatedAt     time.Time
}

// Queue - Posts notices to a chat webhook (Slack or Hookshot format) from a small worker pool. A Queue without a
// webhook URL accepts and drops everything.
type Queue struct {
	pool       *ants.Pool
	webhookUrl string
	client     *http.Client
}

// ValidateWebhookUrl - Webhooks must be HTTPS (outside of tests) and point at an allowed host. Allowed domains may
// use glob syntax, like `*.example.org`.
func ValidateWebhookUrl(webhookUrl string, allowedDomains []string) error {
	whUrl, err := url.Parse(webhookUrl)
	if err != nil {
		return err
	}
	if !testing.Testing() {
		if whUrl.Scheme != "https" {
			return errors.New("webhook URL must be HTTPS")
		}
	}
	for _, allowed := range allowedDomains {
		if glob.Glob(allowed, whUrl.Hostname()) {
			return nil
		}
	}
	return fmt.Errorf("webhook URL host %s not allowed", whUrl.Hostname())
}

func NewQueue(size int, webhookUrl string, allowedDomains []string) (*Queue, error) {
	if webhookUrl != "" {
		if err := ValidateWebhookUrl(webhookUrl, allowedDomains); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(size, ants.WithOptions(ants.Options{
		// Same options as the queue.Pool setup
		ExpiryDuration:   1 * time.Minute,
		PreAlloc:         false,
		MaxBlockingTasks: 0, // no limit on submissions
		Nonblocking:      false,
		// If we don't supply a panic handler then ants will print a stack trace for us
		Logger:       logrus.StandardLogger(),
		DisablePurge: false,
	}))
	if err != nil {
		return nil, err
	}
	return &Queue{
		pool:       pool,
		webhookUrl: webhookUrl,
		client:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (q *Queue) Enabled() bool {
	return q.webhookUrl != ""
}

func (q *Queue) Submit(notice *Notice) error {
	if !q.Enabled() {
		return nil
	}
	workFn := func() {
		log := logrus.WithField("report_id", notice.ReportId)

		buf := bytes.NewBuffer(nil)
		encoder := json.NewEncoder(buf)
		encoder.SetEscapeHTML(false) // the HTML is already escaped, so keep the JSON readable
		err := encoder.Encode(renderNotice(notice))
		if err != nil {
			log.WithError(err).Error("Failed to encode JSON")
			return
		}

		req, err := http.NewRequest(http.MethodPost, q.webhookUrl, buf)
		if err != nil {
			log.WithError(err).Error("Failed to create request")
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", version.UserAgent())

		res, err := q.client.Do(req)
		if err != nil {
			log.WithError(err).Error("Failed to send request")
			return
		}
		defer res.Body.Close()
		log.WithField("status", res.Status).Info("Audit webhook response")
	}
	return q.pool.Submit(workFn)
}

// Release - Waits for queued notices to be sent, up to the timeout, then stops the pool.
func (q *Queue) Release(timeout time.Duration) error {
	return q.pool.ReleaseTimeout(timeout)
}

// renderNotice - Builds the Hookshot / Slack format body
func renderNotice(notice *Notice) map[string]any {
	text := fmt.Sprintf("Suspicious content flagged by trustserv: score %d (%s). Report %s, source %s, %d link(s).",
		notice.Score, notice.Reason, notice.ReportId, notice.Source, notice.LinkCount)

	htmlAudit := "Suspicious content was flagged by trustserv:<br/>"
	htmlAudit += fmt.Sprintf("<b>Report ID:</b> <code>%s</code><br/>", html.EscapeString(notice.ReportId))
	htmlAudit += fmt.Sprintf("<b>Source:</b> <code>%s</code><br/>", html.EscapeString(notice.Source))
	htmlAudit += fmt.Sprintf("<b>Score:</b> %d<br/>", notice.Score)
	htmlAudit += fmt.Sprintf("<b>Reason:</b> %s<br/>", html.EscapeString(notice.Reason))
	htmlAudit += fmt.Sprintf("<b>Links:</b> %d<br/>", notice.LinkCount)
	htmlAudit += fmt.Sprintf("<b>Content digest:</b> <code>%s</code><br/>", html.EscapeString(notice.ContentDigest))
	htmlAudit += fmt.Sprintf("<b>Analysed at:</b> %s", notice.CreatedAt.UTC().Format(time.RFC3339))

	return map[string]any{
		"text": text,
		"html": htmlAudit,
	}
}
