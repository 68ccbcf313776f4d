package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"flightscraper/internal/assert"
	"flightscraper/internal/telemetry"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("flightscraper.internal.notify")

const report_mailer_send = "mailer.send"

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
}

func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && c.EmailAddress != "" && len(c.Recipients) > 0
}

// SearchSummary is the outcome of one origin/date range of a run.
type SearchSummary struct {
	Search       string
	Destinations int
	Records      int
	SnapshotPath string
	// Err is set when the search failed before any record was produced.
	Err error
}

type RunSummary struct {
	RunId    string
	Started  time.Time
	Finished time.Time
	Skipped  []string
	Searches []SearchSummary
}

func (r RunSummary) TotalRecords() int {
	total := 0
	for _, s := range r.Searches {
		total += s.Records
	}
	return total
}

// Text renders the plain text body of the report.
func (r RunSummary) Text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run %s\n", r.RunId)
	fmt.Fprintf(&sb, "Started:  %s\n", r.Started.Format(time.DateTime))
	fmt.Fprintf(&sb, "Finished: %s\n", r.Finished.Format(time.DateTime))
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&sb, "Ignored origins (not valid IATA codes): %s\n", strings.Join(r.Skipped, ", "))
	}
	sb.WriteString("\n")

	for _, s := range r.Searches {
		fmt.Fprintf(&sb, "%s\n", s.Search)
		if s.Err != nil {
			fmt.Fprintf(&sb, "  failed: %v\n", s.Err)
			continue
		}
		fmt.Fprintf(&sb, "  destinations: %d\n", s.Destinations)
		fmt.Fprintf(&sb, "  records: %d\n", s.Records)
		if s.SnapshotPath != "" {
			fmt.Fprintf(&sb, "  snapshot: %s\n", s.SnapshotPath)
		}
	}

	fmt.Fprintf(&sb, "\nTotal records: %d\n", r.TotalRecords())
	return sb.String()
}

// Mailer sends run reports by e-mail.
type Mailer struct {
	cfg SmtpConfig
	tel telemetry.API
}

func NewMailer(cfg SmtpConfig, tel telemetry.API) Mailer {
	assert.NotEmptyStr(cfg.Server)
	assert.NotEmptyStr(cfg.EmailAddress)
	assert.NotNil(tel)

	if cfg.Port == 0 {
		cfg.Port = 587
	}

	return Mailer{
		cfg: cfg,
		tel: telemetry.NewScopedAPI("notify", tel),
	}
}

func (m Mailer) Send(ctx context.Context, summary RunSummary) error {
	_, span := tracer.Start(ctx, "Send")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Flight scraper <%s>", m.cfg.EmailAddress)
	mail.To = m.cfg.Recipients
	mail.Subject = fmt.Sprintf("Flight scraper run %s: %d records", summary.RunId, summary.TotalRecords())
	mail.Text = []byte(summary.Text())

	addr := fmt.Sprintf("%s:%d", m.cfg.Server, m.cfg.Port)
	err := mail.Send(addr, smtp.PlainAuth("", m.cfg.EmailAddress, m.cfg.Password, m.cfg.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		m.tel.ReportBroken(report_mailer_send, err, addr)
		return err
	}
	return nil
}
