package main

// Publish device fields to redis.
//
// Usage:
//
//    regpub [OPTIONS]
//
// Every configured device is polled at redis.interval and changed field
// values are stored in the redis.hash hash and announced on the channel
// of the same name.  Editing surfmap.toml restarts polling with the new
// device list.

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/jbrzusto/surfmap/config"
	"github.com/jbrzusto/surfmap/internal/cli"
	"github.com/jbrzusto/surfmap/publish"
	"github.com/spf13/afero"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/pflag"
)

// poller runs one publisher at a time, replacing it on reload.
type poller struct {
	mu     sync.Mutex
	env    *cli.Env
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (p *poller) start(parent context.Context, c *config.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.wg.Wait()
	}
	ins, err := config.Instances(c, p.env.Bus)
	if err != nil {
		jww.ERROR.Printf("reload: %v", err)
		p.cancel = nil
		return
	}
	var insts []publish.Instance
	for _, in := range ins {
		insts = append(insts, publish.Instance{Name: in.Name, Dev: in.Dev})
	}
	conn, err := publish.Dial(c.Redis.Addr, c.Redis.DB)
	if err != nil {
		jww.ERROR.Printf("redis %s: %v", c.Redis.Addr, err)
		p.cancel = nil
		return
	}
	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer conn.Close()
		jww.INFO.Printf("publishing %d devices to %s every %v", len(insts), c.Redis.Addr, c.Redis.Interval)
		if err := publish.New(conn, c.Redis.Hash).Run(ctx, c.Redis.Interval, insts); err != nil && ctx.Err() == nil {
			jww.ERROR.Print(err)
		}
	}()
}

func (p *poller) wait() { p.wg.Wait() }

func main() {
	apply := pflag.BoolP("apply", "a", false, "apply the configured images and YAML files of every device before publishing")
	logLevel := cli.LogFlag(pflag.CommandLine)
	pflag.Parse()

	env, err := cli.Open(afero.NewOsFs(), *logLevel)
	cli.FatalErr("", err)
	defer env.Close()
	if *apply {
		for _, in := range env.Instances {
			cli.FatalErr("", in.Apply(env.Fs))
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	p := &poller{env: env}
	p.start(ctx, env.Config)
	if env.Viper.ConfigFileUsed() != "" {
		config.Watch(env.Viper, func(c *config.Config) { p.start(ctx, c) })
	}
	<-ctx.Done()
	p.wait()
}
