// aichat is a terminal front end for the chat service. Each line typed is
// either a command (see #help) or, when it matches none, a chat message for
// the current conversation.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/petasbytes/aichat/commands"
	"github.com/petasbytes/aichat/internal/chat"
	"github.com/petasbytes/aichat/internal/config"
	"github.com/petasbytes/aichat/internal/guard"
	"github.com/petasbytes/aichat/internal/logging"
	"github.com/petasbytes/aichat/internal/persona"
	"github.com/petasbytes/aichat/internal/provider"
	"github.com/petasbytes/aichat/internal/rotation"
	"github.com/petasbytes/aichat/internal/runner"
	"github.com/petasbytes/aichat/internal/storage"
)

const defaultDataDir = "data"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load(".env")

	var (
		configPath   string
		dataDir      string
		group        string
		logLevel     string
		logSink      string
		metricsAddr  string
		configSchema bool
	)
	flags := pflag.NewFlagSet("aichat", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")
	flags.StringVar(&dataDir, "data-dir", "", "state directory (default: data_dir from config, else ./data)")
	flags.StringVar(&group, "group", "local", "conversation id used by this session")
	flags.StringVar(&logLevel, "log-level", os.Getenv("AICHAT_LOG_LEVEL"), "debug, info, warn or error")
	flags.StringVar(&logSink, "log-sink", "stderr", "stderr, stdout or file:/path")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	flags.BoolVar(&configSchema, "config-schema", false, "print the config file JSON Schema and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if configSchema {
		b, err := config.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Println(string(b))
		return err
	}

	logger, closer := logging.New(logLevel, logSink)
	defer closer.Close()

	cfg := config.Load(configPath, logger)
	if dataDir == "" {
		dataDir = cfg.Current().DataDir
	}
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	backend, closeBackend, err := openBackend(cfg.Current().Storage, dataDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close storage: %v\n", err)
		}
	}()

	personas := persona.Open(backend, logger)
	svc := chat.New(chat.Deps{
		Store:    chat.NewStore(cfg, backend, personas, logger),
		Personas: personas,
		Rotator:  rotation.Open(backend, logger),
		Guard:    guard.New(),
		Config:   cfg,
		Runner:   runner.New(provider.NewRouter(), logger),
		Logger:   logger,
	})
	dispatcher := commands.NewDispatcher(svc, logger)

	if metricsAddr != "" {
		go serveMetrics(metricsAddr, logger)
	}

	// Set up graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigch)
	go func() {
		<-sigch
		fmt.Println("\nExiting...")
		cancel()
	}()

	return repl(ctx, os.Stdin, os.Stdout, dispatcher, svc, group)
}

// openBackend returns the configured storage and its closer.
func openBackend(s config.Storage, dataDir string) (storage.Backend, func() error, error) {
	switch s.Backend {
	case "", "file":
		d, err := storage.NewDir(dataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open data dir: %w", err)
		}
		return d, func() error { return nil }, nil
	case "bolt":
		path := s.Path
		if path == "" {
			path = filepath.Join(dataDir, "aichat.db")
		}
		b, err := storage.OpenBolt(path)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics_listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics_server_failed", "addr", addr, "error", err)
	}
}

func repl(ctx context.Context, in io.Reader, out io.Writer, d *commands.Dispatcher, svc *chat.Service, group string) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintf(out, "Chatting as %q (#help for commands, Ctrl-C to quit)\n", group)

	// stdin reader goroutine -> lines into channel
	inputCh := make(chan string)
	go func() {
		for scanner.Scan() {
			inputCh <- scanner.Text()
		}
		close(inputCh)
	}()

outer:
	for {
		fmt.Fprint(out, "\u001b[94mYou\u001b[0m: ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			break outer
		case line, ok = <-inputCh:
			if !ok {
				break outer
			}
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "#help" || line == "/help" {
			fmt.Fprintln(out, d.Help())
			continue
		}

		// The local operator is always an admin.
		reply, handled := d.Dispatch(ctx, group, line, true)
		if !handled {
			text, err := svc.Chat(ctx, group, line)
			if err != nil {
				reply = d.Render(err)
			} else {
				reply = text
			}
		}
		fmt.Fprintf(out, "\u001b[93mAI\u001b[0m: %s\n", reply)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: stdin read error: %v\n", err)
	}
	return nil
}
