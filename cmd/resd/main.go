// Command resd runs a standalone RES service: it loads configuration,
// wires a small demonstration resource, connects to NATS, and serves
// until it receives SIGINT or SIGTERM.
package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	res "github.com/hadronres/res"
	"github.com/hadronres/res/resconfig"
	"github.com/hadronres/res/resmetrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	v       = viper.New()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "resd",
	Short: "resd runs a RES service behind Resgate",
	RunE:  run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "path to a config file (TOML, YAML, JSON)")
	flags.String("nats-url", "", "NATS server URL")
	flags.String("service-name", "", "RES service name, used as the resource name prefix")
	flags.Duration("query-duration", 0, "how long a query event buffer stays open")
	flags.String("metrics-addr", "", "address to serve /metrics and /healthz on, e.g. :8090")

	v.BindPFlag("nats_url", flags.Lookup("nats-url"))
	v.BindPFlag("service_name", flags.Lookup("service-name"))
	v.BindPFlag("query_event_duration", flags.Lookup("query-duration"))
	v.BindPFlag("metrics_addr", flags.Lookup("metrics-addr"))
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := resconfig.Load(cfgFile)
	if err != nil {
		return err
	}
	overlayFlags(cfg)

	reg := prometheus.NewRegistry()
	var collectors *resmetrics.Collectors
	if cfg.MetricsAddr != "" {
		collectors = resmetrics.New(reg)
	} else {
		collectors = resmetrics.New(nil)
	}

	s := res.NewService(cfg.ServiceName)
	s.SetQueryEventDuration(cfg.QueryEventDuration)
	s.SetMetrics(collectors)

	registerKeyValueResource(s, cfg.ServiceName)

	var srv *http.Server
	if cfg.MetricsAddr != "" {
		srv = startMetricsServer(cfg.MetricsAddr, reg)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe(cfg.NATSURL) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}

	shutdownErr := s.Shutdown()
	if srv != nil {
		srv.Close()
	}
	return shutdownErr
}

// overlayFlags applies any bound flag/env values over the file-or-default
// config already produced by resconfig.Load, so flags and RES_ environment
// variables both win over a config file.
func overlayFlags(cfg *resconfig.Config) {
	if u := v.GetString("nats_url"); u != "" {
		cfg.NATSURL = u
	}
	if n := v.GetString("service_name"); n != "" {
		cfg.ServiceName = n
	}
	if d := v.GetDuration("query_event_duration"); d != 0 {
		cfg.QueryEventDuration = d
	}
	if a := v.GetString("metrics_addr"); a != "" {
		cfg.MetricsAddr = a
	}
}

func startMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, "resd: metrics server:", err)
		}
	}()
	return srv
}

// registerKeyValueResource wires a tiny in-memory key/value store as both a
// model (a single key's value) and a collection (the set of known keys),
// grounded in the teacher's own hello-world and book-collection examples.
func registerKeyValueResource(s *res.Service, name string) {
	keysRID := "keyvalue.keys"
	if name != "" {
		keysRID = name + "." + keysRID
	}

	var mu sync.Mutex
	values := map[string]string{}
	var keys []string

	s.Handle("keyvalue.keys",
		res.Access(res.AccessGranted),
		res.GetCollection(func(r res.CollectionRequest) {
			mu.Lock()
			defer mu.Unlock()
			snapshot := make([]string, len(keys))
			copy(snapshot, keys)
			r.Collection(snapshot)
		}),
	)

	s.Handle("keyvalue.$key",
		res.Access(res.AccessGranted),
		res.GetModel(func(r res.ModelRequest) {
			mu.Lock()
			v, ok := values[r.PathParam("key")]
			mu.Unlock()
			if !ok {
				r.NotFound()
				return
			}
			r.Model(struct {
				Value string `json:"value"`
			}{v})
		}),
		res.Call("set", func(r res.CallRequest) {
			var p struct {
				Value string `json:"value"`
			}
			r.ParseParams(&p)
			key := r.PathParam("key")

			mu.Lock()
			_, existed := values[key]
			values[key] = p.Value
			if !existed {
				keys = append(keys, key)
			}
			mu.Unlock()

			r.OK(nil)
			r.ChangeEvent(map[string]interface{}{"value": p.Value})
			if !existed {
				s.With(keysRID, func(kr res.Resource) {
					kr.AddEvent(key, len(keys)-1)
				})
			}
		}),
	)
}
