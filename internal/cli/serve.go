package cli

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/httplog"
	"github.com/spf13/cobra"
)

//go:embed demo.html
var demoHTML string

var demoPage = template.Must(template.New("demo").Parse(demoHTML))

var (
	serveFlagAddr     string
	serveFlagInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a demo page that re-renders itself, for trying watch",
	Long: `serve starts an HTTP server whose page replaces its clock and rotates its
list every --interval. Point watch at it to see references survive:

  robustprobe serve --addr :8088 &
  robustprobe watch --url http://localhost:8088 --times 5 --interval 2s id=clock
  robustprobe watch --url http://localhost:8088 --index 1 class=item`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveFlagInterval < 100*time.Millisecond {
			return fmt.Errorf("--interval must be at least 100ms")
		}

		srv := &http.Server{
			Addr:              serveFlagAddr,
			Handler:           demoHandler(serveFlagInterval),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				_ = srv.Close()
			case <-done:
			}
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "serving demo page on %s\n", serveFlagAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// demoHandler serves the demo page on every path, with request logging.
func demoHandler(interval time.Duration) http.Handler {
	level := "info"
	if flagVerbose {
		level = "debug"
	}
	log := httplog.NewLogger("robustprobe", httplog.Options{LogLevel: level})

	page := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if err := demoPage.Execute(w, struct{ Interval int64 }{interval.Milliseconds()}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return httplog.RequestLogger(log)(page)
}

func init() {
	serveCmd.Flags().StringVar(&serveFlagAddr, "addr", ":8088", "Listen address")
	serveCmd.Flags().DurationVar(&serveFlagInterval, "interval", 2*time.Second, "Re-render period")
}
