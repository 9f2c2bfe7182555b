// Package client handles the TCP client and game interaction
package client

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"jitsus/internal/network"
	"jitsus/pkg/logger"

	"github.com/pkg/errors"
)

const (
	dialTimeout       = 10 * time.Second
	disconnectTimeout = 2 * time.Second
)

// Client represents the game client
type Client struct {
	conn       net.Conn
	display    *Display
	input      *InputHandler
	logger     *logger.Logger
	writer     *bufio.Writer
	writeMu    sync.Mutex
	reader     *bufio.Scanner
	serverAddr string
	username   string
	in         io.Reader
	out        io.Writer
	serverDone chan struct{}
	closeOnce  sync.Once
}

// Cfg configures a Client.
type Cfg func(*Client) error

// WithUsername logs in with name instead of prompting for one.
func WithUsername(name string) Cfg {
	return func(c *Client) error {
		if name == "" {
			return nil
		}
		if err := ValidateUsername(name); err != nil {
			return errors.Wrap(err, "invalid username")
		}
		c.username = name
		return nil
	}
}

// WithInput reads user commands from r instead of stdin.
func WithInput(r io.Reader) Cfg {
	return func(c *Client) error {
		c.in = r
		return nil
	}
}

// WithOutput writes everything shown to the user to w instead of stdout.
func WithOutput(w io.Writer) Cfg {
	return func(c *Client) error {
		c.out = w
		return nil
	}
}

// NewClient creates a new client instance
func NewClient(serverAddr string, cfgs ...Cfg) (*Client, error) {
	c := &Client{
		serverAddr: serverAddr,
		in:         os.Stdin,
		out:        os.Stdout,
		logger:     logger.Client,
		serverDone: make(chan struct{}),
	}
	for _, cfg := range cfgs {
		if err := cfg(c); err != nil {
			return nil, errors.Wrap(err, "apply Client cfg failed")
		}
	}
	c.display = NewDisplay(c.out)
	c.input = NewInputHandler(c.in, c.display)
	return c, nil
}

// Start connects, logs in and relays commands until the user or the server ends the session.
func (c *Client) Start(ctx context.Context) error {
	c.display.PrintBanner()

	if err := c.connectToServer(ctx); err != nil {
		c.display.PrintError(err.Error())
		return err
	}
	defer c.Close()

	if err := c.readWelcome(); err != nil {
		c.display.PrintError(err.Error())
		return err
	}

	if err := c.authenticate(); err != nil {
		c.display.PrintError(err.Error())
		return err
	}

	go c.messageHandler()

	return c.runMainLoop(ctx)
}

// connectToServer establishes TCP connection
func (c *Client) connectToServer(ctx context.Context) error {
	c.display.PrintInfo("Connecting to server " + c.serverAddr + "...")

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.serverAddr)
	if err != nil {
		return errors.Wrap(err, "failed to connect")
	}

	c.conn = conn
	c.writer = bufio.NewWriter(conn)
	c.reader = bufio.NewScanner(conn)

	c.logger.Info("Connected to server at %s", c.serverAddr)
	return nil
}

func (c *Client) readLine() (string, error) {
	if !c.reader.Scan() {
		if err := c.reader.Err(); err != nil {
			return "", errors.Wrap(err, "read from server failed")
		}
		return "", errors.Wrap(io.EOF, "server closed the connection")
	}
	line := c.reader.Text()
	c.logger.Debug("Received: %s", line)
	return line, nil
}

func (c *Client) readWelcome() error {
	line, err := c.readLine()
	if err != nil {
		return err
	}
	if line == network.MsgServerFull {
		return ErrServerFull
	}
	if line != network.MsgWelcome {
		return errors.Errorf("unexpected greeting %q", line)
	}
	c.display.PrintServerLine(line)
	return nil
}

// authenticate sends CONNECT until the server accepts a name.
func (c *Client) authenticate() error {
	var lastReason string
	for {
		name := c.username
		c.username = ""
		if name == "" {
			var err error
			name, err = c.input.GetUsername()
			if err != nil {
				if lastReason != "" {
					return errors.Wrap(ErrNameRejected, lastReason)
				}
				return errors.Wrap(err, "read username failed")
			}
		}

		if err := c.sendLine(string(network.CmdConnect) + " " + name); err != nil {
			return err
		}

		reply, err := c.awaitReply()
		if err != nil {
			return err
		}
		if reply == network.MsgOK {
			c.username = name
			c.logger = c.logger.WithField("player", name)
			c.display.PrintInfo("Logged in as " + name + ". Type HELP for the list of commands.")
			return nil
		}
		lastReason = strings.TrimPrefix(reply, network.PrefixError+" ")
		c.display.PrintError(lastReason)
	}
}

// awaitReply skips unrelated lines until OK or ERROR arrives.
func (c *Client) awaitReply() (string, error) {
	for {
		line, err := c.readLine()
		if err != nil {
			return "", err
		}
		switch {
		case line == network.MsgOK, strings.HasPrefix(line, network.PrefixError+" "):
			return line, nil
		case line == network.MsgServerShutdown:
			return "", ErrServerShutdown
		}
		c.display.PrintServerLine(line)
	}
}

// messageHandler prints server lines until the connection ends
func (c *Client) messageHandler() {
	defer close(c.serverDone)

	for c.reader.Scan() {
		line := c.reader.Text()
		c.logger.Debug("Received: %s", line)
		c.display.PrintServerLine(line)
		if line == network.MsgServerShutdown {
			c.display.PrintWarning("Server is shutting down")
			return
		}
	}
	if err := c.reader.Err(); err != nil {
		c.logger.Debug("Read failed: %v", err)
	}
	c.display.PrintWarning("Connection to server closed")
}

// runMainLoop forwards user commands to the server
func (c *Client) runMainLoop(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, ok := c.input.ReadLine()
			if !ok {
				return
			}
			select {
			case lines <- line:
			case <-c.serverDone:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.disconnect()
			return nil
		case <-c.serverDone:
			return nil
		case line, ok := <-lines:
			if !ok {
				c.disconnect()
				return nil
			}
			cmd, _, ok := network.ParseLine(line)
			if !ok {
				continue
			}
			switch cmd {
			case "HELP":
				c.display.PrintHelp()
			case "RULES":
				c.display.PrintRules()
			case network.CmdDisconnect:
				c.disconnect()
				return nil
			default:
				if err := c.sendLine(line); err != nil {
					return err
				}
			}
		}
	}
}

// disconnect says goodbye and waits briefly for the server to close the connection.
func (c *Client) disconnect() {
	if err := c.sendLine(string(network.CmdDisconnect)); err != nil {
		c.logger.Debug("Send DISCONNECT failed: %v", err)
		return
	}
	select {
	case <-c.serverDone:
	case <-time.After(disconnectTimeout):
		c.logger.Warn("Server did not close the connection")
	}
}

func (c *Client) sendLine(line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.writer.WriteString(line + "\n"); err != nil {
		return errors.Wrap(err, "failed to send command")
	}
	return errors.Wrap(c.writer.Flush(), "failed to send command")
}

// Close closes the client connection
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}
