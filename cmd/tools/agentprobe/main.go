// Command agentprobe classifies messages the way the chat endpoint does and,
// with -dispatch, sends one of them to the configured model.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/creator-surge/backend/internal/analysis/category"
	"github.com/zhouzirui/creator-surge/backend/internal/config"
	"github.com/zhouzirui/creator-surge/backend/internal/service/ai"
	"github.com/zhouzirui/creator-surge/backend/pkg/logger"
)

func main() {
	extended := flag.Bool("extended", false, "enable the appbuilder category")
	dispatch := flag.Bool("dispatch", false, "send the message to the configured model")
	session := flag.String("session", "", "session id for -dispatch, generated when empty")
	timeout := flag.Duration("timeout", 60*time.Second, "request timeout")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, err := logger.New(level, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file", zap.Error(err))
	}

	classifier := category.Standard()
	if *extended {
		classifier = category.Extended()
	}

	messages := flag.Args()
	if len(messages) == 0 {
		messages, err = readLines(os.Stdin)
		if err != nil {
			log.Fatal("read stdin", zap.Error(err))
		}
	}

	if !*dispatch {
		classifyAll(os.Stdout, classifier, messages)
		return
	}

	if len(messages) != 1 {
		log.Fatal("-dispatch takes exactly one message", zap.Int("got", len(messages)))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load configuration", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	completer, err := ai.NewCompleter(ctx, cfg.AI, cfg.AI.ChatModelName())
	if err != nil {
		log.Warn("model provider unavailable", zap.Error(err))
	}
	dispatcher := ai.NewDispatcher(completer, *timeout, log.Named("agent"))

	sessionID := *session
	if sessionID == "" {
		sessionID = fmt.Sprintf("probe-%d", time.Now().UnixNano())
	}

	agent := classifier.Classify(messages[0])
	fmt.Fprintf(os.Stdout, "agent: %s\n", agent)
	reply, err := dispatcher.DispatchStream(ctx, agent, sessionID, messages[0], func(delta string) error {
		_, werr := io.WriteString(os.Stdout, delta)
		return werr
	})
	fmt.Fprintln(os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stdout, ai.Apology(err))
		os.Exit(2)
	}
	log.Debug("reply complete", zap.Int("chars", len(reply)))
}

func classifyAll(w io.Writer, classifier *category.Classifier, messages []string) {
	for _, msg := range messages {
		fmt.Fprintf(w, "%-10s %s\n", classifier.Classify(msg), msg)
	}
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
