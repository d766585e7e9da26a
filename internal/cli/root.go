// Package cli provides the gocurl command-line interface.
package cli

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adamwoolhether/gocurl/client"
	"github.com/adamwoolhether/gocurl/internal/logging"
)

// ErrHTTPStatus is returned with --fail when the server answers with an
// error status.
var ErrHTTPStatus = errors.New("server returned error status")

// config is the resolved command configuration. Flags take precedence
// over GOCURL_* environment variables, which take precedence over the
// --config file.
type config struct {
	Method     string
	Headers    []string
	Data       string
	DataBinary string
	Params     []string
	Compressed bool
	Proxy      string
	Insecure   bool
	Threshold  int64
	Encoding   string
	MaxTime    time.Duration
	TempDir    string
	Include    bool
	Fail       bool
	Verbose    bool
}

// NewRootCmd builds the gocurl command.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "gocurl [flags] <url>",
		Short: "Transfer a URL and print the response",
		Long: `Transfer a URL and print the response.

The response body is captured in memory up to --threshold bytes and in a
temporary file beyond that, then written to stdout.

Examples:
  gocurl https://example.com
  gocurl -G q=gopher -H "Accept: application/json" https://api.example.com/search
  gocurl -X PUT -d '{"name":"gopher"}' https://api.example.com/items/1
  gocurl --data-binary @photo.png --compressed -i https://upload.example.com`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindConfig(cmd, v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, args[0])
		},
	}

	f := cmd.Flags()
	f.StringP("request", "X", "", "Request method (default GET, or POST with a body)")
	f.StringArrayP("header", "H", nil, `Request header "Name: value" (repeatable)`)
	f.StringP("data", "d", "", "Text body, written in --encoding")
	f.String("data-binary", "", "Binary body; @file reads it from a file")
	f.StringArrayP("param", "G", nil, "Query parameter k=v (repeatable)")
	f.Bool("compressed", false, "Request a gzip response and decode it")
	f.StringP("proxy", "x", "", "Proxy URL (http, https, socks5, socks5h)")
	f.BoolP("insecure", "k", false, "Skip TLS certificate verification")
	f.Int64("threshold", client.DefaultThreshold, "Bytes held in memory before the body spills to disk")
	f.String("encoding", client.DefaultEncoding, "Character set for params and the text body")
	f.Float64P("max-time", "m", 0, "Maximum time in seconds for the whole transfer")
	f.String("temp-dir", "", "Directory for spill files (default system temp dir)")
	f.BoolP("include", "i", false, "Print status line and response headers")
	f.BoolP("fail", "f", false, "Fail without output on HTTP errors")
	f.BoolP("verbose", "v", false, "Log the request and response to stderr")
	f.String("config", "", "Config file (yaml, toml or json)")

	cmd.MarkFlagsMutuallyExclusive("data", "data-binary")
	cmd.MarkFlagFilename("config", "yaml", "yml", "toml", "json")

	return cmd
}

// Execute runs the gocurl command with the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func bindConfig(cmd *cobra.Command, v *viper.Viper) error {
	v.SetEnvPrefix("GOCURL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	return nil
}

func loadConfig(cmd *cobra.Command, v *viper.Viper) (config, error) {
	maxTime := v.GetFloat64("max-time")
	if maxTime < 0 {
		return config{}, fmt.Errorf("max-time must not be negative")
	}

	cfg := config{
		Method:     strings.ToUpper(v.GetString("request")),
		Headers:    listValue(cmd, v, "header"),
		Data:       v.GetString("data"),
		DataBinary: v.GetString("data-binary"),
		Params:     listValue(cmd, v, "param"),
		Compressed: v.GetBool("compressed"),
		Proxy:      v.GetString("proxy"),
		Insecure:   v.GetBool("insecure"),
		Threshold:  v.GetInt64("threshold"),
		Encoding:   v.GetString("encoding"),
		MaxTime:    time.Duration(maxTime * float64(time.Second)),
		TempDir:    v.GetString("temp-dir"),
		Include:    v.GetBool("include"),
		Fail:       v.GetBool("fail"),
		Verbose:    v.GetBool("verbose"),
	}

	if cfg.Data != "" && cfg.DataBinary != "" {
		return config{}, fmt.Errorf("data and data-binary cannot be combined")
	}

	return cfg, nil
}

// listValue reads a repeatable flag as given, keeping commas inside values.
// Without the flag it falls back to the environment or config file.
func listValue(cmd *cobra.Command, v *viper.Viper, name string) []string {
	if cmd.Flags().Changed(name) {
		vals, _ := cmd.Flags().GetStringArray(name)
		return vals
	}

	return v.GetStringSlice(name)
}

func run(ctx context.Context, stdout, stderr io.Writer, cfg config, target string) error {
	logger := newLogger(stderr, cfg.Verbose)

	opts, closeBody, err := requestOptions(cfg, logger)
	if err != nil {
		return err
	}
	defer closeBody()

	method := client.MethodGet
	switch {
	case cfg.Method != "":
		method = client.Method(cfg.Method)
	case cfg.Data != "" || cfg.DataBinary != "":
		method = client.MethodPost
	}

	req, err := client.NewRequest(method, target, opts...)
	if err != nil {
		return err
	}

	res, err := req.Execute(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("failed to close response", "error", err)
		}
	}()

	if cfg.Fail && res.StatusCode() >= 400 {
		return fmt.Errorf("%w: %d", ErrHTTPStatus, res.StatusCode())
	}

	if cfg.Include {
		writeHead(stdout, res)
	}

	if method == client.MethodHead {
		return nil
	}

	return writeBody(stdout, res)
}

// requestOptions maps cfg to request options. The returned func closes a
// body file opened for --data-binary.
func requestOptions(cfg config, logger *slog.Logger) ([]client.Option, func(), error) {
	closeBody := func() {}

	// Encoding must precede params.
	opts := []client.Option{
		client.WithLogger(logger),
		client.WithEncoding(cfg.Encoding),
		client.WithThreshold(cfg.Threshold),
	}

	for _, p := range cfg.Params {
		k, val, ok := strings.Cut(p, "=")
		if !ok {
			return nil, closeBody, fmt.Errorf("param %q: expected k=v", p)
		}
		opts = append(opts, client.WithParam(k, val))
	}

	for _, h := range cfg.Headers {
		k, val, ok := strings.Cut(h, ":")
		if !ok {
			return nil, closeBody, fmt.Errorf("header %q: expected \"Name: value\"", h)
		}
		opts = append(opts, client.WithHeader(strings.TrimSpace(k), strings.TrimSpace(val)))
	}

	switch {
	case cfg.Data != "":
		opts = append(opts, client.WithBody(cfg.Data))

	case strings.HasPrefix(cfg.DataBinary, "@"):
		f, err := os.Open(strings.TrimPrefix(cfg.DataBinary, "@"))
		if err != nil {
			return nil, closeBody, fmt.Errorf("opening body file: %w", err)
		}
		closeBody = func() { f.Close() }
		opts = append(opts, client.WithBodyStream(f))

	case cfg.DataBinary != "":
		opts = append(opts, client.WithBodyStream(strings.NewReader(cfg.DataBinary)))
	}

	if cfg.Compressed {
		opts = append(opts, client.WithGzip())
	}

	if cfg.Proxy != "" {
		raw := cfg.Proxy
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			closeBody()
			return nil, func() {}, fmt.Errorf("parsing proxy: %w", err)
		}
		opts = append(opts, client.WithProxy(u))
	}

	if cfg.Insecure {
		opts = append(opts, client.WithTLSConfig(&tls.Config{InsecureSkipVerify: true})) //nolint:gosec // requested with --insecure
	}

	if cfg.TempDir != "" {
		opts = append(opts, client.WithTempDir(cfg.TempDir))
	}

	if cfg.MaxTime > 0 {
		maxTime := cfg.MaxTime
		opts = append(opts, client.WithOnConnect(func(_ *client.Request, conn *client.Conn) {
			conn.Client.Timeout = maxTime
		}))
	}

	return opts, closeBody, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return logging.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func writeHead(w io.Writer, res *client.Response) {
	fmt.Fprintf(w, "HTTP %d\n", res.StatusCode())

	headers := res.Headers()
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		for _, val := range headers[name] {
			fmt.Fprintf(w, "%s: %s\n", name, val)
		}
	}
	fmt.Fprintln(w)
}

func writeBody(w io.Writer, res *client.Response) error {
	rc, err := res.ContentStream()
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}

	return nil
}
