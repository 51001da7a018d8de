// Package sh provides an interactive shell sending command lines to a peer.
package sh

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/sdep.go/pkg/env"
	"github.com/robotalks/sdep.go/pkg/sdep"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *env.Config
	Client *sdep.Client

	resetRequested bool
}

// Reply is the JSON form of a response.
type Reply struct {
	Command   string `json:"command"`
	Type      string `json:"type"`
	CmdID     uint16 `json:"cmd_id"`
	Length    int    `json:"length"`
	Payload   string `json:"payload"`
	Truncated bool   `json:"truncated,omitempty"`
	Error     string `json:"error,omitempty"`
}

const shellKey = "$shell"

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&SendCmd,
		&LinkCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *env.Config, client *sdep.Client) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
		Client: client,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(conf.ID + "> ")
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	s.Shell.NotFound(func(c *ishell.Context) {
		s.Send(c, strings.Join(c.RawArgs, " "))
	})
	s.bindResetter()
	return s
}

// bindResetter makes the shell the client's Resetter unless one is set.
func (s *Shell) bindResetter() {
	if s.Client.Resetter == nil {
		s.Client.Resetter = s
	}
}

// Reset implements sdep.Resetter. The shell stops after the current command.
func (s *Shell) Reset() {
	s.resetRequested = true
}

// ResetRequested tells whether the reset keyword was entered.
func (s *Shell) ResetRequested() bool {
	return s.resetRequested
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Send sends a command line and prints the response.
func (s *Shell) Send(c *ishell.Context, cmd string) error {
	if cmd == "" {
		return nil
	}
	reply, err := s.Client.Do(context.Background(), cmd)
	if err == sdep.ErrReset {
		c.Println("reset")
		if s.resetRequested && s.Shell != nil {
			s.Shell.Stop()
		}
		return err
	}
	var out bytes.Buffer
	if err = s.Format(&out, cmd, reply, err); err != nil {
		c.Err(err)
		return err
	}
	c.Print(out.String())
	return nil
}

// Format writes the outcome of a command to w.
func (s *Shell) Format(w io.Writer, cmd string, reply *sdep.Message, err error) error {
	if s.OutputJSON {
		r := Reply{Command: cmd}
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Type = reply.Type.String()
			r.CmdID = reply.CmdID
			r.Length = int(reply.Length)
			r.Payload = string(reply.Payload)
			r.Truncated = reply.Truncated()
		}
		data, encErr := json.Marshal(&r)
		if encErr != nil {
			return encErr
		}
		_, encErr = fmt.Fprintln(w, string(data))
		return encErr
	}
	if err != nil {
		return sdep.RenderError(w, err)
	}
	return sdep.Render(w, reply)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exit(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Printf("sdep %s over %s\n", s.Config.ID, s.Config.Link)
		s.Shell.Run()
		return
	}
	glog.Exit("command expected")
}

var (
	// SendCmd sends the arguments as one command line, for lines
	// starting with a shell command name.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "TEXT",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Send(c, strings.Join(c.Args, " "))
		},
	}

	// LinkCmd prints the link configuration.
	LinkCmd = ishell.Cmd{
		Name: "link",
		Help: "show link configuration",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			conf := s.Config
			if s.OutputJSON {
				out, err := json.Marshal(map[string]interface{}{
					"id":            conf.ID,
					"link":          conf.Link,
					"spi":           conf.SPIPort,
					"spi_freq":      conf.SPIFrequency,
					"byte_retry":    conf.ByteRetryInterval.String(),
					"sync_interval": conf.SyncInterval.String(),
				})
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			c.Printf("%s link=%s spi=%q freq=%s byte-retry=%s sync=%s\n",
				conf.ID, conf.Link, conf.SPIPort, conf.SPIFrequency,
				conf.ByteRetryInterval, conf.SyncInterval)
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf := env.MustNewConfig()
	link, closer, err := conf.NewLink()
	if err != nil {
		glog.Exit(err)
	}
	if closer != nil {
		defer closer.Close()
	}
	s := New(conf, conf.NewClient(link, nil))
	s.Run(flag.Args()...)
	if s.ResetRequested() {
		glog.Info("reset requested, shell stopped")
	}
}
