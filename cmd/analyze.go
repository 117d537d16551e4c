package cmd

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/news-helper/internal/analysis"
	"github.com/JakeFAU/news-helper/internal/client"
	"github.com/JakeFAU/news-helper/internal/config"
	"github.com/JakeFAU/news-helper/internal/web"
)

type analyzeOptions struct {
	input   client.Input
	apiBase string
	render  bool
	timeout time.Duration
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Submits an article URL to the analyze API and prints the Markdown",
		Long: `Posts {url, mode} to {api-base}/analyze with the x-api-key and x-lang
headers. Rate-limit, HTTP and network failures print the same notices as the
web frontend and exit with status 1.`,
		Example: `  newshelper analyze --url https://news.example/story --mode bias --lang es --key $KEY
  newshelper analyze --url https://news.example/story --render`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}
			if opts.apiBase == "" {
				opts.apiBase = defaultAPIBase(rt.cfg)
			}
			return runAnalyze(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.input.URL, "url", "", "article URL")
	cmd.Flags().StringVar(&opts.input.Mode, "mode", string(analysis.DefaultMode), "summary, bias or background")
	cmd.Flags().StringVar(&opts.input.Lang, "lang", analysis.English.Code(), "en or es")
	cmd.Flags().StringVar(&opts.input.Key, "key", "", "API key sent as x-api-key")
	cmd.Flags().StringVar(&opts.apiBase, "api-base", "", "API root (default: web.api_base, or this host's serve port)")
	cmd.Flags().BoolVar(&opts.render, "render", false, "render the Markdown for the terminal")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "request timeout")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	c := client.New(opts.apiBase, &http.Client{Timeout: opts.timeout})
	resp, err := c.Analyze(cmd.Context(), opts.input)
	if err != nil {
		text, _ := web.Notice(err)
		fmt.Fprintln(cmd.ErrOrStderr(), text)
		return exitCode(1)
	}
	return printMarkdown(cmd.OutOrStdout(), resp.Data, opts.render)
}

func printMarkdown(w io.Writer, md string, render bool) error {
	if render {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return fmt.Errorf("init markdown renderer: %w", err)
		}
		out, err := r.Render(md)
		if err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		md = out
	}
	if _, err := io.WriteString(w, strings.TrimRight(md, "\n")+"\n"); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// defaultAPIBase uses web.api_base when absolute, else the local serve listener.
func defaultAPIBase(cfg config.Config) string {
	return web.ResolveAPIBase(cfg.Web.APIBase, cfg.LocalOrigin())
}
