// Command api starts newsfeed daemon for e2e tests. With -local it detaches
// the daemon, waits until /healthcheck answers OK and writes its pid.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	dotenv "github.com/dsh2dsh/expx-dotenv"
	"golang.org/x/sync/errgroup"

	"newsfeed.app/internal/cli"
	"newsfeed.app/internal/client"
)

const readyTimeout = 15 * time.Second

func main() {
	if err := dotenv.New().WithDepth(1).Load(); err != nil {
		log.Fatal(fmt.Errorf("failed parse .env file(s): %w", err))
	}

	var l launcher
	flag.BoolVar(&l.detach, "local", false,
		"detach newsfeed daemon for running e2e tests locally")
	flag.StringVar(&l.logName, "log", "e2e_newsfeed.log",
		"daemon output goes to this file")
	flag.StringVar(&l.pidName, "pid", "e2e_newsfeed.pid",
		"daemon pid goes to this file")
	flag.Parse()

	if !l.detach {
		cli.Cmd.SetArgs(append([]string{"daemon"}, flag.Args()...))
		cli.Execute()
		return
	}

	l.endpoint = "http://" + os.Getenv("LISTEN_ADDR")
	if err := l.Launch(context.Background(), flag.Args()); err != nil {
		log.Fatal(err)
	}
}

type launcher struct {
	detach   bool
	logName  string
	pidName  string
	endpoint string
}

func (self *launcher) Launch(ctx context.Context, args []string) error {
	cmd, err := self.spawn(args)
	if err != nil {
		return err
	}
	log.Printf("Newsfeed daemon started, pid %d, output goes to %s",
		cmd.Process.Pid, self.logName)

	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	if err := self.waitReady(ctx, cmd); err != nil {
		return err
	}

	pid := strconv.Itoa(cmd.Process.Pid) + "\n"
	if err := os.WriteFile(self.pidName, []byte(pid), 0o644); err != nil {
		return fmt.Errorf("write pid: %w", err)
	}
	log.Printf("Newsfeed daemon ready, pid written to %s", self.pidName)
	return nil
}

func (self *launcher) spawn(args []string) (*exec.Cmd, error) {
	path, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}

	out, err := os.Create(self.logName)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	cmd := exec.Command(path, args...)
	cmd.Stdout, cmd.Stderr = out, out
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		out.Close()
		return nil, fmt.Errorf("start %q: %w", path, err)
	}
	return cmd, nil
}

// waitReady polls the daemon until it answers OK. It gives up when the
// daemon exits first.
func (self *launcher) waitReady(ctx context.Context, cmd *exec.Cmd) error {
	exited := make(chan error, 1)
	go func() { exited <- exitError(cmd.Wait(), cmd.ProcessState) }()

	g, ctx := errgroup.WithContext(ctx)
	ready := make(chan struct{})
	g.Go(func() error {
		select {
		case err := <-exited:
			return err
		case <-ready:
			return nil
		}
	})

	g.Go(func() error {
		defer close(ready)
		return self.pollHealth(ctx)
	})
	return g.Wait()
}

func (self *launcher) pollHealth(ctx context.Context) error {
	api := client.NewClient(self.endpoint)
	start := time.Now()

	operation := func() error {
		err := api.Healthcheck(ctx)
		var errno syscall.Errno
		if err != nil && !(errors.As(err, &errno) && errno == syscall.ECONNREFUSED) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		log.Printf("Newsfeed daemon isn't ready yet (%s), next try in %s",
			time.Since(start).Truncate(time.Millisecond), next)
	}

	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.NewConstantBackOff(time.Second), ctx), notify)
	if err != nil {
		return fmt.Errorf("waiting for newsfeed daemon: %w", err)
	}
	return nil
}

func exitError(err error, state *os.ProcessState) error {
	switch {
	case err == nil:
		return errors.New("Newsfeed daemon exited before it was ready")
	case state != nil && state.Exited():
		return fmt.Errorf("Newsfeed daemon exited with status %d: %w",
			state.ExitCode(), err)
	}
	return fmt.Errorf("Newsfeed daemon was terminated by: %w", err)
}
