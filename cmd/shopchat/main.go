package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/tomdro61/shop-pilot-sub000/models"

	"github.com/joho/godotenv"
)

const usageText = `Usage:
  shopchat [--base-url <url>] [--token <token>] [--user <id>]

Type a message and press enter. /reset starts a new conversation, /quit exits.
`

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, args []string, input io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("shopchat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { _, _ = io.WriteString(stderr, usageText) }

	baseURL := fs.String("base-url", envOr("SHOPCHAT_URL", "http://localhost:8080"), "server base URL")
	token := fs.String("token", os.Getenv("API_TOKEN"), "bearer token")
	user := fs.String("user", os.Getenv("USER"), "caller id sent as X-User-ID")
	timeout := fs.Duration("timeout", 5*time.Minute, "per-message timeout")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*token) == "" {
		return fmt.Errorf("a token is required (--token or API_TOKEN)")
	}

	client := &chatClient{
		baseURL: *baseURL,
		token:   strings.TrimSpace(*token),
		user:    *user,
		http:    &http.Client{},
	}
	return repl(ctx, client, *timeout, input, stdout)
}

func repl(ctx context.Context, client *chatClient, timeout time.Duration, input io.Reader, out io.Writer) error {
	var state []models.Turn
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			state = nil
			fmt.Fprintln(out, "conversation cleared")
			continue
		}

		msgCtx, cancel := context.WithTimeout(ctx, timeout)
		next, err := client.send(msgCtx, state, line, out)
		cancel()
		if err != nil {
			fmt.Fprintf(out, "\n%v\n", err)
		}
		state = next

		if ctx.Err() != nil {
			return nil
		}
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
