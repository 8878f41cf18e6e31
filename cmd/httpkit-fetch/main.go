// Command httpkit-fetch performs a single HTTP request and prints the
// response body, or saves it to a file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/aliucord/httpkit/client"
)

type CLI struct {
	URL string `arg:"" required:"" help:"URL to fetch. Relative paths are resolved against --base-url when --token is set."`

	Method   string            `short:"X" default:"GET" help:"HTTP method"`
	Header   map[string]string `short:"H" help:"Extra request headers (key=value)"`
	Data     string            `short:"d" xor:"body" help:"Raw request body"`
	JSON     string            `xor:"body" help:"JSON request body, sent with a JSON content type"`
	Output   string            `short:"o" type:"path" help:"Save the body to this file instead of printing it"`
	SHA1     string            `name:"sha1" help:"Expected SHA-1 of the saved file (hex)"`
	Timeout  time.Duration     `default:"30s" help:"Connect and read timeout"`
	NoFollow bool              `help:"Do not follow redirects"`
	RPS      int               `name:"rps" help:"Requests per second limit"`
	Burst    int               `default:"1" help:"Rate limiter burst"`
	Token    string            `env:"HTTPKIT_TOKEN" help:"Authorization token; sends an authenticated request"`
	BaseURL  string            `default:"${base_url}" help:"Base URL for relative authenticated requests"`
	Verbose  bool              `short:"v" help:"Enable debug logging"`
}

func main() {
	cli := &CLI{}
	cliCtx := kong.Parse(cli,
		kong.UsageOnError(),
		kong.Vars{"base_url": client.DefaultBaseURL},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.run(ctx, os.Stdout)
	cliCtx.FatalIfErrorf(err)
}

func (cli *CLI) run(ctx context.Context, stdout io.Writer) error {
	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	c, err := client.Build(cli.clientOptions(logger)...)
	if err != nil {
		return fmt.Errorf("building client: %w", err)
	}

	var req *client.Request
	if cli.Token != "" {
		req, err = c.NewAuthenticatedRequest(ctx, cli.URL, cli.Method)
	} else {
		req, err = c.NewRequest(ctx, cli.URL, cli.Method)
	}
	if err != nil {
		return err
	}
	defer req.Close()

	req.SetTimeout(cli.Timeout)
	for k, v := range cli.Header {
		req.SetHeader(k, v)
	}

	var resp *client.Response
	switch {
	case cli.JSON != "":
		resp, err = req.SetHeader("Content-Type", client.ContentTypeJSON).ExecuteWithBody([]byte(cli.JSON))
	case cli.Data != "":
		resp, err = req.ExecuteWithBody([]byte(cli.Data))
	default:
		resp, err = req.Execute()
	}
	if err != nil {
		return err
	}

	if cli.Output == "" {
		return resp.Pipe(stdout)
	}

	dest, err := filepath.Abs(cli.Output)
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}

	var opts []client.DownloadOption
	if cli.SHA1 != "" {
		opts = append(opts, client.WithSHA1(strings.TrimSpace(cli.SHA1)))
	}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		opts = append(opts, client.WithProgress())
	}

	if err := resp.SaveToFile(dest, opts...); err != nil {
		var integrity *client.IntegrityError
		if errors.As(err, &integrity) {
			logger.Error("checksum mismatch", "expected", integrity.Expected, "actual", integrity.Actual)
		}
		return err
	}

	logger.Info("saved", "path", dest, "status", resp.StatusCode)

	return nil
}

func (cli *CLI) clientOptions(logger *slog.Logger) []client.Option {
	opts := []client.Option{
		client.WithLogger(logger),
		client.WithBaseURL(cli.BaseURL),
	}

	if cli.NoFollow {
		opts = append(opts, client.WithNoFollowRedirects())
	}

	if cli.RPS > 0 {
		opts = append(opts, client.WithThrottle(cli.RPS, cli.Burst))
	}

	if cli.Token != "" {
		token := cli.Token
		opts = append(opts, client.WithCredentials(client.CredentialFunc(func(context.Context) (string, error) {
			return token, nil
		})))
	}

	return opts
}
