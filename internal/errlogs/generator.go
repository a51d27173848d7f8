// Package errlogs emits synthetic error log entries in the Error Reporting
// ReportedErrorEvent format. The entries land in Cloud Logging with ERROR
// severity and surface in Error Reporting, which makes them useful for
// verifying that sinks, exclusions and dashboards behave as configured.
package errlogs

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"cloud.google.com/go/logging"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/report"
)

// LogID under which the synthetic entries are written.
const LogID = "error-reporting-demo"

// scenario is one synthetic application failure.
type scenario struct {
	message  string
	service  string
	httpPath string
}

var scenarios = []scenario{
	{
		message: "NullPointerException: Cannot read property \"id\" of null\n" +
			"at UserService.getUser (UserService.java:45)\n" +
			"at UserController.handleRequest (UserController.java:123)\n" +
			"at RequestHandler.process (RequestHandler.java:67)",
		service:  "user-service",
		httpPath: "/api/users/12345",
	},
	{
		message: "SQLException: Connection pool exhausted\n" +
			"at DatabasePool.getConnection (DatabasePool.java:89)\n" +
			"at OrderRepository.findById (OrderRepository.java:156)\n" +
			"at OrderService.processOrder (OrderService.java:234)",
		service:  "order-service",
		httpPath: "/api/orders/process",
	},
	{
		message: "TimeoutException: Request timed out after 5000ms\n" +
			"at HttpClient.sendRequest (HttpClient.java:78)\n" +
			"at PaymentGateway.charge (PaymentGateway.java:45)\n" +
			"at PaymentService.processPayment (PaymentService.java:123)",
		service:  "payment-service",
		httpPath: "/api/payments/charge",
	},
}

var httpMethods = []string{"GET", "POST", "PUT"}

// entryLogger is the slice of *logging.Logger the generator needs.
type entryLogger interface {
	Log(e logging.Entry)
}

// Generator produces ReportedErrorEvent-format entries.
type Generator struct {
	logger entryLogger
	prefix string
	rng    *rand.Rand
	rep    *report.Reporter
	now    func() time.Time
}

// New returns a Generator writing through logger. prefix, when non-empty,
// is prepended to every error message.
func New(logger entryLogger, prefix string, rep *report.Reporter) *Generator {
	return &Generator{
		logger: logger,
		prefix: prefix,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		rep:    rep,
		now:    time.Now,
	}
}

// Event builds one ReportedErrorEvent payload.
func (g *Generator) Event() map[string]interface{} {
	sc := scenarios[g.rng.Intn(len(scenarios))]

	message := sc.message
	if g.prefix != "" {
		message = g.prefix + "\n" + message
	}

	return map[string]interface{}{
		"eventTime": g.now().UTC().Format(time.RFC3339Nano),
		"serviceContext": map[string]interface{}{
			"service": sc.service,
			"version": fmt.Sprintf("v%d.%d.%d", 1+g.rng.Intn(3), g.rng.Intn(10), g.rng.Intn(100)),
		},
		"message": message,
		"context": map[string]interface{}{
			"httpRequest": map[string]interface{}{
				"method":             httpMethods[g.rng.Intn(len(httpMethods))],
				"url":                "https://api.example.com" + sc.httpPath,
				"userAgent":          "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
				"referrer":           "https://app.example.com",
				"responseStatusCode": 500,
				"remoteIp":           fmt.Sprintf("192.168.%d.%d", 1+g.rng.Intn(255), 1+g.rng.Intn(255)),
			},
			"user": fmt.Sprintf("user_%d", 10000+g.rng.Intn(90000)),
			"reportLocation": map[string]interface{}{
				"filePath":     sc.service + "/Main.java",
				"lineNumber":   100 + g.rng.Intn(401),
				"functionName": "handleRequest",
			},
		},
	}
}

// Generate writes count error entries and reports progress.
func (g *Generator) Generate(count int) {
	g.rep.Infof("Generating %d error log entries...", count)

	for i := 0; i < count; i++ {
		g.logger.Log(logging.Entry{
			Severity: logging.Error,
			Payload:  g.Event(),
		})
		g.rep.Successf("[%d/%d] Error logged", i+1, count)
	}

	g.rep.Infof("Finished generating %d error log entries.", count)
	g.rep.Plainf("Check Google Cloud Console:")
	g.rep.Plainf("  - Logging:         https://console.cloud.google.com/logs")
	g.rep.Plainf("  - Error Reporting: https://console.cloud.google.com/errors")
}

// Run connects to Cloud Logging, generates count entries and flushes them.
// configured is the project from the resolved configuration; it is the last
// tier of the project ID fallback chain.
func Run(ctx context.Context, explicit, configured string, count int, prefix string, rep *report.Reporter) error {
	projectID := DetectProjectID(explicit, configured)
	if projectID == "" {
		return fmt.Errorf("project ID not found; pass --project, set GOOGLE_CLOUD_PROJECT, " +
			"or configure bucket-project")
	}
	rep.Infof("Using project ID: %s", projectID)

	client, err := logging.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("logging.NewClient: %w", err)
	}

	New(client.Logger(LogID), prefix, rep).Generate(count)

	// Close flushes buffered entries and surfaces write errors.
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to flush log entries: %w", err)
	}
	return nil
}

// DetectProjectID resolves the project ID: the explicit value wins, then the
// conventional environment variables, then the configured default.
func DetectProjectID(explicit, configured string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"GOOGLE_CLOUD_PROJECT", "GCP_PROJECT"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return configured
}
