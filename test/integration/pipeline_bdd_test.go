//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/eztrackd/internal/domain"
	"github.com/eliteGoblin/eztrackd/internal/infra"
	"github.com/eliteGoblin/eztrackd/internal/policy"
	"github.com/eliteGoblin/eztrackd/internal/usecase"
	"github.com/eliteGoblin/eztrackd/test/fixtures"
)

// recordingNotifier captures user notices for assertions.
type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) Notify(message string) {
	r.messages = append(r.messages, message)
}

func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

var _ = Describe("Heartbeat Pipeline", func() {
	var (
		tmpDir   string
		fakeCLI  *fixtures.FakeCLI
		cfg      domain.TrackerConfig
		notifier *recordingNotifier
		start    time.Time
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		fakeCLI = fixtures.NewFakeCLI(tmpDir)
		notifier = &recordingNotifier{}
		start = time.Now().Add(-time.Hour)
		cfg = domain.TrackerConfig{
			APIKey:        "test-key",
			CLIPath:       fakeCLI.Path(),
			Debounce:      2 * time.Minute,
			FlushInterval: 30 * time.Second,
			CLITimeout:    5 * time.Second,
		}
	})

	newTracker := func() *usecase.Tracker {
		transporter := infra.NewCLITransporter(cfg, "0.1.0", zap.NewNop())
		return usecase.NewTracker(cfg, policy.NewDefaultMatcher(), transporter,
			notifier, "it-session", start, zap.NewNop())
	}

	Describe("batch transmission", func() {
		Context("when the batch has a nonzero-duration primary", func() {
			It("invokes the CLI with primary flags and extra heartbeats", func() {
				Expect(fakeCLI.Create()).To(Succeed())
				tracker := newTracker()

				// First heartbeat for a file has duration 0; flush it away
				// so the next batch carries a real primary.
				tracker.OnOpen("/src/a.go", "go", start)
				tracker.Flush(context.Background(), start.Add(time.Second))
				Expect(fakeCLI.Invoked()).To(BeFalse(), "zero-duration primary must be skipped")

				tracker.OnSave("/src/a.go", "go", start.Add(5*time.Second))
				tracker.OnOpen("/src/b.go", "go", start.Add(6*time.Second))
				tracker.Flush(context.Background(), start.Add(10*time.Second))

				Expect(fakeCLI.Invoked()).To(BeTrue())
				args, err := fakeCLI.RecordedArgs()
				Expect(err).NotTo(HaveOccurred())

				Expect(flagValue(args, "--entity")).To(Equal("/src/a.go"))
				Expect(flagValue(args, "--plugin")).To(Equal("eztrackd/0.1.0"))
				Expect(flagValue(args, "--duration")).To(Equal("5"))
				Expect(args).To(ContainElement("--write"))
				Expect(flagValue(args, "--alternate-language")).To(Equal("go"))

				var extras []map[string]any
				Expect(json.Unmarshal([]byte(flagValue(args, "--extra-heartbeats")), &extras)).To(Succeed())
				Expect(extras).To(HaveLen(1))
				Expect(extras[0]["entity"]).To(Equal("/src/b.go"))
				Expect(extras[0]["duration"]).To(Equal(float64(0)))

				Expect(tracker.BufferedCount()).To(BeZero())
			})
		})

		Context("when the delivery CLI does not exist", func() {
			It("discards the batch silently", func() {
				cfg.CLIPath = filepath.Join(tmpDir, "no-such-cli")
				tracker := newTracker()

				tracker.OnSave("/src/a.go", "go", start)
				tracker.OnSave("/src/b.go", "go", start.Add(time.Second))
				tracker.OnSave("/src/c.go", "go", start.Add(2*time.Second))
				tracker.Flush(context.Background(), start.Add(time.Minute))

				Expect(notifier.messages).To(BeEmpty())
				Expect(tracker.BufferedCount()).To(BeZero())
			})
		})
	})

	Describe("outcome classification", func() {
		Context("when the CLI exits with the API key error code", func() {
			It("notifies the user and suspends tracking until re-init", func() {
				fakeCLI.ExitCode = domain.ExitCodeAPIKeyError
				Expect(fakeCLI.Create()).To(Succeed())
				tracker := newTracker()

				tracker.OnOpen("/src/a.go", "go", start)
				tracker.Flush(context.Background(), start.Add(time.Second))
				tracker.OnSave("/src/a.go", "go", start.Add(5*time.Second))
				tracker.Flush(context.Background(), start.Add(time.Minute))

				Expect(notifier.messages).To(HaveLen(1))
				Expect(notifier.messages[0]).To(ContainSubstring("Invalid API key"))
				Expect(tracker.Initialized()).To(BeFalse())

				// Qualifying events no longer produce heartbeats.
				tracker.OnSave("/src/b.go", "go", start.Add(2*time.Minute))
				Expect(tracker.BufferedCount()).To(BeZero())

				tracker.Initialize()
				tracker.OnSave("/src/b.go", "go", start.Add(3*time.Minute))
				Expect(tracker.BufferedCount()).To(Equal(1))
			})
		})

		Context("when the CLI exits with the config parse error code", func() {
			It("surfaces the captured stderr", func() {
				fakeCLI.ExitCode = domain.ExitCodeConfigParseError
				fakeCLI.Stderr = "bad settings section"
				Expect(fakeCLI.Create()).To(Succeed())
				tracker := newTracker()

				tracker.OnOpen("/src/a.go", "go", start)
				tracker.Flush(context.Background(), start.Add(time.Second))
				tracker.OnSave("/src/a.go", "go", start.Add(5*time.Second))
				tracker.Flush(context.Background(), start.Add(time.Minute))

				Expect(notifier.messages).To(HaveLen(1))
				Expect(notifier.messages[0]).To(ContainSubstring("bad settings section"))
				Expect(tracker.Initialized()).To(BeTrue())
			})
		})
	})
})
