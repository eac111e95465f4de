package errors

import (
	"os"

	"github.com/certifi/gocertifi"
	"github.com/getsentry/sentry-go"
	"solwc.io/wallet-adapter/pkg/log"
)

var (
	reporters []Reporter
)

func init() {
	reporters = make([]Reporter, 0)
	if os.Getenv(debugMode) == "" {
		log.Info("Env DEBUG not set, report errors enabled.")
	} else {
		log.Info("Env DEBUG set, report errors disabled.")
	}
}

func report(err error) {
	if reporters == nil || err == nil {
		return
	}
	if os.Getenv(debugMode) != "" {
		return
	}
	for _, r := range reporters {
		r.Report(err)
	}
}

// Reporter receives errors built through the *AndReport constructors.
type Reporter interface {
	Report(error)
}

type sentryReporter struct {
}

func (s *sentryReporter) Report(err error) {
	sentry.CaptureException(err)
}

// Setting this env var disables reporting.
const debugMode = "DEBUG"

// NewSentryReporter initializes the sentry error reporter. Errors built
// with the *AndReport constructors are captured to the configured DSN.
// No reports are produced while the DEBUG env var is set.
func NewSentryReporter(sentryDSN string) error {
	if sentryDSN == "" {
		log.Warn("empty DSN found, skipping sentry reporter initialization.")
		return nil
	}
	sentryClientOptions := sentry.ClientOptions{
		Dsn: sentryDSN,
	}

	rootCAs, err := gocertifi.CACerts()
	if err != nil {
		return Wrap(err, "init sentry CA")
	}

	sentryClientOptions.CaCerts = rootCAs
	err = sentry.Init(sentryClientOptions)
	if err != nil {
		return Wrap(err, "init sentry")
	}
	log.Info("sentry error reporter initialized.")
	reporters = append(reporters, &sentryReporter{})
	return nil
}
