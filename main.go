package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"prompter/account"
	"prompter/audio"
	"prompter/cue"
	"prompter/export"
	"prompter/hotkey"
	"prompter/log"
	"prompter/responder"
	"prompter/session"
	"prompter/shutdown"
	"prompter/store"
	"prompter/transcriber"
	"prompter/usage"
)

var version = "dev"

const defaultAPIURL = "https://api.prompter.app"

var shutdownOnce sync.Once

// app holds everything the shutdown path needs to flush.
type app struct {
	sess      *session.Session
	setup     session.Setup
	startedAt time.Time
	archive   *store.Store
	exportTo  string
}

func (a *app) gracefulShutdown() {
	shutdownOnce.Do(func() {
		turns := a.sess.Turns()
		a.sess.Close()

		if a.archive != nil {
			if id, err := a.archive.SaveSession(a.setup, a.startedAt, time.Now(), turns); err != nil {
				log.Errorf("archive save error: %v", err)
			} else if id != "" {
				log.Info("session_archived: " + id)
			}
			a.archive.Close()
		}
		if a.exportTo != "" && len(turns) > 0 {
			if err := export.WriteFile(a.exportTo, a.setup, a.startedAt, turns); err != nil {
				log.Errorf("export error: %v", err)
			}
		}

		log.Close()
		if tuiProgram != nil {
			tuiProgram.Quit()
		}
		os.Exit(0)
	})
}

func run() {
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	typeFlag := flag.String("type", "general", "Interview type: technical, behavioral, or general")
	langFlag := flag.String("lang", "en", "Two-letter language code for questions and answers")
	nameFlag := flag.String("name", "", "Name the assistant answers as")
	contextFlag := flag.String("context", "", "File with personal background to include in the prompt")
	apiFlag := flag.String("api", "", "Backend base URL (default $PROMPTER_API_URL)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	dbFlag := flag.String("db", "", "session archive path (default: OS config dir, 'off' disables)")
	exportFlag := flag.String("export", "", "Write the transcript here on exit (.md or .html)")
	copyFlag := flag.Bool("copy", true, "Copy each finished answer to the clipboard")
	chargeFlag := flag.Bool("charge-discarded", false, "Report usage for clips that never become a turn")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *versionFlag {
		fmt.Printf("prompter %s\n", version)
		os.Exit(0)
	}

	setup := session.Setup{
		InterviewType: session.InterviewType(*typeFlag),
		Language:      *langFlag,
		PersonaName:   *nameFlag,
	}
	if *contextFlag != "" {
		data, err := os.ReadFile(*contextFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading context file: %v\n", err)
			os.Exit(1)
		}
		setup.PersonalContext = string(data)
	}
	setup.ApplyDefaults()
	if err := setup.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: prompter -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(args[0], setup, *chargeFlag)
		return
	}

	apiURL := *apiFlag
	if apiURL == "" {
		apiURL = os.Getenv("PROMPTER_API_URL")
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	token := os.Getenv("PROMPTER_TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "Error: PROMPTER_TOKEN not set (copy an API token from your account page)")
		os.Exit(1)
	}

	user, err := account.NewClient(apiURL, token).Me(context.Background())
	if err != nil {
		log.Errorf("account fetch error: %v", err)
		fmt.Fprintf(os.Stderr, "Error loading account: %v\n", err)
		os.Exit(1)
	}
	budget := usage.FromUser(user)
	log.SessionStart(string(setup.InterviewType), setup.Language, user.Subscription.Plan, budget.RemainingMinutes)
	if budget.Exhausted() {
		fmt.Fprintln(os.Stderr, "Warning: no interview minutes left on this account")
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := actx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Fprintf(os.Stderr, "Warning: device %q not found, using system default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\n", err)
			fmt.Fprintln(os.Stderr, "Falling back to default device")
			selectedDevice = nil
		}
	}

	whisper := transcriber.NewWhisper(apiURL, token)
	whisper.Warm()
	meter := usage.NewMeter(usage.NewClient(apiURL, token), budget)
	meter.ChargeDiscarded = *chargeFlag

	var sink session.EventSink = newConsoleSink()
	if *tuiFlag {
		tuiProgram = NewTUIProgram(setup, user, budget, selectedDevice)
		sink = newTUISink(tuiProgram)
	}

	sess := session.New(session.Config{
		Setup:       setup,
		Capture:     session.NewCaptureManager(actx, selectedDevice),
		Transcriber: whisper,
		Responder:   responder.NewChat(apiURL, token),
		Meter:       meter,
		Events:      sink,
		CopyAnswers: *copyFlag,
	})

	a := &app{
		sess:      sess,
		setup:     setup,
		startedAt: time.Now(),
		exportTo:  *exportFlag,
	}
	if *dbFlag != "off" {
		path := *dbFlag
		if path == "" {
			path = store.DefaultPath()
		}
		archive, err := store.Open(path)
		if err != nil {
			log.Warnf("archive unavailable: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: session archive unavailable: %v\n", err)
		} else {
			a.archive = archive
		}
	}

	if *tuiFlag {
		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			a.gracefulShutdown()
		}()
	}

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		a.gracefulShutdown()
	}()

	go cue.Init()

	if err := sess.StartCapture(); err != nil {
		log.Errorf("capture error: %v", err)
		fmt.Fprintf(os.Stderr, "Error starting capture: %v\n", err)
		a.gracefulShutdown()
	}

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Fprintf(os.Stderr, "Error registering hotkey: %v\n", err)
		a.gracefulShutdown()
	}
	defer hk.Unregister()

	for range hk.Pressed() {
		if err := sess.Toggle(context.Background()); err != nil {
			log.Warnf("toggle refused: %v", err)
			sink.Status(err.Error())
		}
	}
}
