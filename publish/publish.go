// Package publish polls device registers and publishes their values to
// redis.
//
// Each readable field of each instance is stored in a redis hash as
//
//	HSET <hash> <instance>.<path> <display value>
//
// and, when the value changes, announced on the channel named after the
// hash as "<instance>.<path>: <display value>".
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/garyburd/redigo/redis"
	"github.com/jbrzusto/surfmap/fpga"
	"github.com/jbrzusto/surfmap/regmap"
	jww "github.com/spf13/jwalterweatherman"
)

const DEFAULT_HASH = "surfmap"

// Instance is a device published under a name.
type Instance struct {
	Name string
	Dev  *fpga.Device
}

// Publisher sends changed field values over a redis connection.  It is
// not safe for concurrent use.
type Publisher struct {
	conn redis.Conn
	hash string
	last map[string]string
}

// Dial connects to the redis server at addr and selects db.
func Dial(addr string, db int) (redis.Conn, error) {
	return redis.Dial("tcp", addr, redis.DialDatabase(db))
}

// New returns a Publisher writing to hash over conn.  An empty hash
// selects DEFAULT_HASH.
func New(conn redis.Conn, hash string) *Publisher {
	if hash == "" {
		hash = DEFAULT_HASH
	}
	return &Publisher{conn: conn, hash: hash, last: make(map[string]string)}
}

// Poll reads every readable field of insts and sends those that changed
// since the previous successful poll.  It returns the number of values
// sent.  Values are remembered only once the server has replied, so a
// failed poll is sent again in full next time.
func (p *Publisher) Poll(insts []Instance) (int, error) {
	sent := make(map[string]string)
	for _, in := range insts {
		err := in.Dev.Map.Walk(func(path string, _ uint64, f *regmap.Field) error {
			if !f.Mode.Readable() || f.Alias != "" {
				return nil
			}
			v, err := in.Dev.GetDisp(path)
			if err != nil {
				return err
			}
			key := in.Name + "." + path
			if old, ok := p.last[key]; ok && old == v {
				return nil
			}
			sent[key] = v
			if err := p.conn.Send("HSET", p.hash, key, v); err != nil {
				return err
			}
			return p.conn.Send("PUBLISH", p.hash, fmt.Sprint(key, ": ", v))
		})
		if err != nil {
			return 0, fmt.Errorf("publish %s: %w", in.Name, err)
		}
	}
	if len(sent) == 0 {
		return 0, nil
	}
	// flush the pipeline and wait for all replies
	if _, err := p.conn.Do(""); err != nil {
		return 0, fmt.Errorf("publish: %w", err)
	}
	for k, v := range sent {
		p.last[k] = v
	}
	return len(sent), nil
}

// Forget drops the remembered values, so the next Poll sends everything.
func (p *Publisher) Forget() {
	p.last = make(map[string]string)
}

// Run polls insts every interval until ctx is done.  Poll errors are
// logged and do not stop the loop.  A non-positive interval is an error.
func (p *Publisher) Run(ctx context.Context, interval time.Duration, insts []Instance) error {
	if interval <= 0 {
		return fmt.Errorf("publish: poll interval %v is not positive", interval)
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		n, err := p.Poll(insts)
		if err != nil {
			jww.ERROR.Print(err)
		} else if n > 0 {
			jww.DEBUG.Printf("published %d values to %s", n, p.hash)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}
