package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alfredjeanlab/laptimer/internal/events"
	"github.com/alfredjeanlab/laptimer/internal/ingest"
	"github.com/alfredjeanlab/laptimer/internal/model"
	"github.com/alfredjeanlab/laptimer/internal/timecode"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var emitNATSURL string

// emitCmd publishes the raw messages a gate station would send. It is meant
// for bench testing without hardware.
var emitCmd = &cobra.Command{
	Use:               "emit",
	Short:             "Publish simulated gate messages to the bus",
	GroupID:           "system",
	PersistentPreRunE: skipClient,
}

var emitTagCmd = &cobra.Command{
	Use:   "tag <uuid>",
	Short: "Publish a tag scan",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmit("tag"),
}

var emitStartCmd = &cobra.Command{
	Use:   "start [HH:MM:SS.cc]",
	Short: "Publish a start pulse (defaults to the current time)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEmit("start"),
}

var emitStopCmd = &cobra.Command{
	Use:   "stop [HH:MM:SS.cc]",
	Short: "Publish a stop pulse (defaults to the current time)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEmit("stop"),
}

var emitHeartbeatCmd = &cobra.Command{
	Use:   "heartbeat <start|stop> [payload]",
	Short: "Publish a gate heartbeat (payload defaults to online)",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runEmit("heartbeat"),
}

func runEmit(kind string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		subject, payload, err := emitMessage(kind, args, time.Now(), emitSubjects())
		if err != nil {
			return err
		}

		pub, err := events.NewNATSPublisher(emitNATSURL, nats.Name("laptimer-emit"))
		if err != nil {
			return err
		}
		defer pub.Close()

		if err := pub.PublishRaw(subject, []byte(payload)); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(os.Stdout, map[string]string{"subject": subject, "payload": payload})
		}
		fmt.Printf("%s %s\n", subject, payload)
		return nil
	}
}

// emitMessage resolves the subject and payload for one simulated message.
func emitMessage(kind string, args []string, now time.Time, subjects ingest.Subjects) (string, string, error) {
	switch kind {
	case "tag":
		uuid := strings.TrimSpace(args[0])
		if uuid == "" {
			return "", "", fmt.Errorf("tag uuid is required")
		}
		return subjects.Tag, uuid, nil

	case "start", "stop":
		code := timecode.Clock(now)
		if len(args) > 0 {
			code = strings.TrimSpace(args[0])
			if _, err := timecode.Parse(code, now); err != nil {
				return "", "", err
			}
		}
		if kind == "start" {
			return subjects.StartPulse, code, nil
		}
		return subjects.StopPulse, code, nil

	case "heartbeat":
		payload := "online"
		if len(args) > 1 {
			payload = args[1]
		}
		switch model.Gate(strings.ToLower(args[0])) {
		case model.GateStart:
			return subjects.StartStatus, payload, nil
		case model.GateStop:
			return subjects.StopStatus, payload, nil
		}
		return "", "", fmt.Errorf("unknown gate %q (must be start or stop)", args[0])
	}
	return "", "", fmt.Errorf("unknown message kind %q", kind)
}

// emitSubjects applies LAPTIMER_SUBJECT_* overrides to the default subjects,
// matching what serve subscribes to.
func emitSubjects() ingest.Subjects {
	s := ingest.DefaultSubjects()
	for env, field := range map[string]*string{
		"LAPTIMER_SUBJECT_START_STATUS": &s.StartStatus,
		"LAPTIMER_SUBJECT_STOP_STATUS":  &s.StopStatus,
		"LAPTIMER_SUBJECT_TAG":          &s.Tag,
		"LAPTIMER_SUBJECT_START":        &s.StartPulse,
		"LAPTIMER_SUBJECT_STOP":         &s.StopPulse,
	} {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
	return s
}

func defaultNATSURL() string {
	if u := os.Getenv("LAPTIMER_NATS_URL"); u != "" {
		return u
	}
	return nats.DefaultURL
}

func init() {
	emitCmd.PersistentFlags().StringVar(&emitNATSURL, "nats-url", defaultNATSURL(), "NATS server URL")

	emitCmd.AddCommand(emitTagCmd)
	emitCmd.AddCommand(emitStartCmd)
	emitCmd.AddCommand(emitStopCmd)
	emitCmd.AddCommand(emitHeartbeatCmd)
}
