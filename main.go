package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/alphastudio/neuralcore/pkg/agents"
	"github.com/alphastudio/neuralcore/pkg/chat"
	"github.com/alphastudio/neuralcore/pkg/config"
	"github.com/alphastudio/neuralcore/pkg/logger"
	"github.com/alphastudio/neuralcore/pkg/media"
	"github.com/alphastudio/neuralcore/pkg/metrics"
	"github.com/alphastudio/neuralcore/pkg/providers"
	"github.com/alphastudio/neuralcore/pkg/server"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.SetDebug(cfg.Debug)

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "serve":
		runServe(cfg)
	case "chat":
		runChat(cfg, args)
	case "version":
		fmt.Printf("neuralcore %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "usage: neuralcore [serve|chat [agent-id]|version]\n")
		os.Exit(2)
	}
}

func buildProvider(cfg *config.Config) providers.StreamingProvider {
	if cfg.Provider == "claude" {
		return providers.NewClaudeProvider(cfg.APIKey)
	}
	return providers.NewOpenRouterProvider(providers.OpenRouterOptions{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Referer: "https://alphastudio.dev",
		Title:   "Neural Core",
	})
}

func buildService(cfg *config.Config) *chat.Service {
	return chat.NewService(buildProvider(cfg), chat.Options{
		PrimaryModel:     cfg.Model,
		FallbackModel:    cfg.FallbackModel,
		FirstByteTimeout: cfg.FirstByteTimeout,
		Temperature:      cfg.Temperature,
		TopP:             cfg.TopP,
	})
}

func runServe(cfg *config.Config) {
	svc := buildService(cfg)
	tracker := metrics.NewTracker(cfg.Workspace)
	srv := server.NewServer(svc, tracker)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.InfoCF("main", "shutting down", nil)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	if err := srv.Start(cfg.ListenAddr); err != nil {
		logger.ErrorCF("main", fmt.Sprintf("server: %v", err), nil)
		os.Exit(1)
	}
}

// runChat is an interactive REPL against the configured provider. The
// transcript accumulates across turns; /attach queues an image for the
// next message.
func runChat(cfg *config.Config, args []string) {
	agentID := agents.DefaultAgentID
	if len(args) > 0 {
		agentID = args[0]
	}
	agent := agents.Lookup(agentID)

	svc := buildService(cfg)
	tracker := metrics.NewTracker(cfg.Workspace)

	rl, err := readline.New("you> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("neuralcore %s | agent: %s | model: %s\n", version, agent.Name, cfg.Model)
	fmt.Println("commands: /attach <path>, /reset, /quit")

	var history []chat.Turn
	var attachment *chat.Attachment
	var attachmentName string

	for {
		line, err := rl.Readline()
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return
		case line == "/reset":
			history = nil
			attachment = nil
			fmt.Println("transcript cleared")
			continue
		case strings.HasPrefix(line, "/attach "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/attach "))
			att, name, err := media.LoadAttachment(path)
			if err != nil {
				fmt.Printf("attach: %v\n", err)
				continue
			}
			attachment = att
			attachmentName = name
			fmt.Printf("attached %s (%s)\n", name, att.MimeType)
			continue
		}

		prompt := line
		if attachment != nil {
			prompt = media.Caption(attachmentName, prompt)
		}
		history = append(history, chat.Turn{Role: "user", Text: prompt})

		ctx, cancel := context.WithCancel(context.Background())
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGINT)

		collector := chat.NewCollector()
		collect := collector.Sink()
		start := time.Now()
		st := svc.Start(ctx, chat.ChatParams{
			History:           history,
			SystemInstruction: agent.SystemInstruction,
			Attachment:        attachment,
		}, func(fragment string) {
			collect(fragment)
			fmt.Print(fragment)
		})

		select {
		case <-st.Done():
		case <-interrupt:
			st.Cancel()
			<-st.Done()
			fmt.Println("\n[interrupted]")
		}
		signal.Stop(interrupt)
		cancel()
		fmt.Println()

		stats := st.Stats()
		tracker.Record(metrics.StreamEvent{
			RequestID:  uuid.NewString(),
			Agent:      agent.ID,
			Model:      stats.Model,
			Fallback:   stats.FallbackUsed,
			Fragments:  stats.Fragments,
			Chars:      stats.Chars,
			DurationMS: time.Since(start).Milliseconds(),
			Outcome:    stats.Outcome,
		})

		if reply := collector.Text(); reply != "" {
			history = append(history, chat.Turn{Role: "model", Text: reply})
		}
		attachment = nil
		attachmentName = ""
	}
}
