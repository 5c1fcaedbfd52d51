// Command practice runs one full capture-and-analysis session against an
// analysis server using simulated recording devices, then prints the
// normalized report. Useful for exercising the pipeline end to end without
// a device.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/zhengcoach/zhengcoach/internal/capture"
	"github.com/zhengcoach/zhengcoach/internal/report"
	"github.com/zhengcoach/zhengcoach/internal/session"
	"github.com/zhengcoach/zhengcoach/internal/upload"
)

func main() {
	var (
		baseURL    = flag.String("server", "http://localhost:8080", "Analysis server base URL")
		mode       = flag.String("mode", "combined", "Capture mode: audio, video, or combined")
		songID     = flag.String("song", "", "Optional reference song id")
		recordSecs = flag.Int("seconds", 3, "How long to record before stopping")
		classifier = flag.String("classifier", "", "Optional YAML file with issue classifier keywords")
	)
	flag.Parse()

	captureMode := capture.CaptureMode(*mode)
	if !captureMode.Valid() {
		log.Fatalf("Unknown mode %q (want audio, video, or combined)", *mode)
	}

	deviceDir, err := os.MkdirTemp("", "practice-devices")
	if err != nil {
		log.Fatal("Failed to create device directory:", err)
	}
	defer os.RemoveAll(deviceDir)

	var issueClassifier *report.IssueClassifier
	if *classifier != "" {
		issueClassifier, err = report.LoadClassifier(*classifier)
		if err != nil {
			log.Fatal("Failed to load classifier:", err)
		}
	}

	recorders := capture.NewMediaCapture(
		&capture.SimulatedAudioDevice{Dir: deviceDir},
		&capture.SimulatedVideoDevice{Dir: deviceDir},
	)

	coordinator := session.NewCoordinator(
		recorders,
		upload.NewClient(*baseURL),
		report.NewNormalizer(issueClassifier),
		session.NoopCompressor{},
		session.NewReportStore(),
		session.Config{},
	)

	sess, err := coordinator.StartRecording(captureMode, *songID)
	if err != nil {
		log.Fatal("Failed to start recording:", err)
	}

	go func() {
		for update := range sess.Updates {
			switch update.Type {
			case session.UpdateTick:
				fmt.Printf("\rRecording... %ds", update.Seconds)
			case session.UpdateStage:
				fmt.Printf("\n%s\n", update.Message)
			}
		}
	}()

	time.Sleep(time.Duration(*recordSecs) * time.Second)

	if err := coordinator.StopRecording(); err != nil {
		log.Fatal("Failed to stop recording:", err)
	}

	<-sess.Done()

	rep, err := sess.Result()
	if err != nil {
		log.Fatal("Session failed:", err)
	}

	printReport(rep)
}

func printReport(rep *report.CanonicalReport) {
	fmt.Println()
	fmt.Println("=== Practice Report ===")
	fmt.Printf("Overall: %.0f (%s)\n", rep.OverallScore, rep.Level)

	if len(rep.Dimensions) > 0 {
		fmt.Println("\nDimensions:")
		for _, dim := range rep.Dimensions {
			fmt.Printf("  %-8s %.0f\n", dim.Name, dim.Score)
		}
	}

	printIssues("Hand issues", rep.HandIssues)
	printIssues("Audio issues", rep.AudioIssues)

	fmt.Println("\nAdvice:")
	for i, advice := range rep.Advice {
		fmt.Printf("  %d. %s\n", i+1, advice)
	}
}

func printIssues(heading string, issues []report.Issue) {
	if len(issues) == 0 {
		return
	}

	fmt.Printf("\n%s:\n", heading)
	for _, issue := range issues {
		fmt.Printf("  [%s] %s\n", issue.Severity, issue.Title)
		if issue.Suggestion != "" {
			fmt.Printf("         %s\n", issue.Suggestion)
		}
	}
}
