// Package cli is the terminal front-end of the quiz client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/eversols/autismquiz/internal/api"
	"github.com/eversols/autismquiz/internal/autismquiz"
	"github.com/eversols/autismquiz/internal/config"
	"github.com/eversols/autismquiz/internal/settings"
	"github.com/eversols/autismquiz/internal/tokenstore"
)

// ConnectFunc builds an API client. The closer releases its token store.
type ConnectFunc func(ctx context.Context) (*api.Client, io.Closer, error)

type Deps struct {
	In      io.Reader
	Out     io.Writer
	Logger  *slog.Logger
	Config  *config.Config
	Connect ConnectFunc
}

// Connect opens the configured token store and a client for cfg.APIURL.
func Connect(cfg *config.Config, logger *slog.Logger) ConnectFunc {
	return func(ctx context.Context) (*api.Client, io.Closer, error) {
		tokens, closer, err := tokenstore.Open(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("opening token store: %w", err)
		}
		c, err := api.New(cfg.APIURL, tokens, api.WithTimeout(cfg.HTTPTimeout), api.WithLogger(logger))
		if err != nil {
			closer.Close()
			return nil, nil, err
		}
		return c, closer, nil
	}
}

var (
	// ErrQuizIDNotFound is returned by take when no quiz id is given.
	ErrQuizIDNotFound   = errors.New("Quiz ID not found")
	errPasswordRequired = errors.New("password is required")
)

type app struct {
	deps  Deps
	lines *bufio.Scanner
}

func NewApp(d Deps) *cli.App {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	a := &app{deps: d, lines: bufio.NewScanner(d.In)}

	return &cli.App{
		Name:      "quiz",
		Usage:     "take autism-trait screening quizzes",
		Reader:    d.In,
		Writer:    d.Out,
		ErrWriter: d.Out,
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "sign in and remember the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "prompted for when omitted"},
				},
				Action: a.withClient(a.login),
			},
			{
				Name:  "register",
				Usage: "create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "prompted for when omitted"},
				},
				Action: a.withClient(a.register),
			},
			{
				Name:   "logout",
				Usage:  "forget the stored session",
				Action: a.withClient(a.logout),
			},
			{
				Name:   "whoami",
				Usage:  "show the signed-in user",
				Action: a.withClient(a.whoami),
			},
			{
				Name:   "quizzes",
				Usage:  "list available quizzes",
				Action: a.withClient(a.quizzes),
			},
			{
				Name:  "take",
				Usage: "answer a quiz and submit the assessment",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "quiz", Usage: "quiz id", Value: d.Config.DefaultQuizID},
				},
				Action: a.withClient(a.take),
			},
			{
				Name:   "history",
				Usage:  "list past assessments",
				Action: a.withClient(a.history),
			},
			{
				Name:   "settings",
				Usage:  "show account settings",
				Action: a.withClient(a.showSettings),
				Subcommands: []*cli.Command{
					{
						Name:      "set",
						Usage:     "change one setting (notifications, visibility, data-usage)",
						ArgsUsage: "KEY VALUE",
						Action:    a.withClient(a.setSetting),
					},
				},
			},
			{
				Name:  "profile",
				Usage: "update name and age",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.IntFlag{Name: "age"},
				},
				Action: a.withClient(a.profile),
			},
			{
				Name:  "resources",
				Usage: "browse articles, support groups and FAQs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "article, support_group, therapy or faq"},
					&cli.StringFlag{Name: "search", Usage: "match titles containing this text"},
				},
				Action: a.withClient(a.resources),
			},
		},
	}
}

type action func(c *cli.Context, client *api.Client) error

func (a *app) withClient(fn action) cli.ActionFunc {
	return func(c *cli.Context) error {
		client, closer, err := a.deps.Connect(c.Context)
		if err != nil {
			return err
		}
		defer closer.Close()
		return fn(c, client)
	}
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.deps.Out, format, args...)
}

// readLine returns the next input line; ok is false at end of input.
func (a *app) readLine() (string, bool) {
	if !a.lines.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.lines.Text()), true
}

func (a *app) password(c *cli.Context) (string, error) {
	if p := c.String("password"); p != "" {
		return p, nil
	}
	a.printf("Password: ")
	p, ok := a.readLine()
	if !ok || p == "" {
		return "", errPasswordRequired
	}
	return p, nil
}

func (a *app) login(c *cli.Context, client *api.Client) error {
	pw, err := a.password(c)
	if err != nil {
		return err
	}
	user, err := client.Login(c.Context, c.String("email"), pw)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	a.printf("Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

func (a *app) register(c *cli.Context, client *api.Client) error {
	pw, err := a.password(c)
	if err != nil {
		return err
	}
	if _, err := client.Register(c.Context, c.String("name"), c.String("email"), pw); err != nil {
		return fmt.Errorf("registering: %w", err)
	}
	a.printf("Account created for %s. Run \"quiz login\" to sign in.\n", c.String("email"))
	return nil
}

func (a *app) logout(c *cli.Context, client *api.Client) error {
	if err := client.Logout(c.Context); err != nil {
		return err
	}
	a.printf("Logged out.\n")
	return nil
}

func (a *app) whoami(c *cli.Context, client *api.Client) error {
	user, err := client.CurrentUser(c.Context)
	if err != nil {
		return err
	}
	a.printf("%s <%s>\n", user.Name, user.Email)
	return nil
}

func (a *app) quizzes(c *cli.Context, client *api.Client) error {
	list, err := client.ListQuizzes(c.Context)
	if err != nil {
		return fmt.Errorf("listing quizzes: %w", err)
	}
	if len(list) == 0 {
		a.printf("No quizzes available.\n")
		return nil
	}
	for _, q := range list {
		a.printf("%4s  %s\n", q.ID, q.Title)
		if q.Description != "" {
			a.printf("      %s\n", q.Description)
		}
	}
	return nil
}

func (a *app) history(c *cli.Context, client *api.Client) error {
	list, err := client.ListAssessments(c.Context)
	if err != nil {
		return fmt.Errorf("listing assessments: %w", err)
	}
	if len(list) == 0 {
		a.printf("No assessments yet.\n")
		return nil
	}
	for _, as := range list {
		score := "not submitted"
		if as.TotalScore != nil {
			score = fmt.Sprintf("score %d", *as.TotalScore)
		}
		a.printf("%s  %s  %s  (%s)\n", as.CreatedAt, as.QuizTitle, score, as.ID)
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (a *app) printSettings(s autismquiz.Settings) {
	a.printf("Notifications:      %s\n", onOff(s.NotificationsEnabled))
	a.printf("Profile visibility: %s\n", s.ProfileVisibility)
	a.printf("Data usage:         %s\n", onOff(s.DataUsage))
}

func (a *app) showSettings(c *cli.Context, client *api.Client) error {
	m := settings.NewManager(client, a.deps.Logger)
	s, err := m.Load(c.Context)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	a.printSettings(s)
	return nil
}

func (a *app) setSetting(c *cli.Context, client *api.Client) error {
	if c.NArg() != 2 {
		return errors.New("usage: quiz settings set KEY VALUE")
	}
	m := settings.NewManager(client, a.deps.Logger)
	if _, err := m.Load(c.Context); err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	s, err := m.Set(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("updating settings: %w", err)
	}
	a.printSettings(s)
	return nil
}

func (a *app) profile(c *cli.Context, client *api.Client) error {
	p := autismquiz.Profile{Name: c.String("name")}
	if c.IsSet("age") {
		age := c.Int("age")
		p.Age = &age
	}
	if err := client.UpdateProfile(c.Context, p); err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	a.printf("Profile updated.\n")
	return nil
}

func (a *app) resources(c *cli.Context, client *api.Client) error {
	all, err := client.ListResources(c.Context)
	if err != nil {
		return fmt.Errorf("listing resources: %w", err)
	}
	list := autismquiz.FilterResources(all, autismquiz.ResourceType(c.String("type")), c.String("search"))
	if len(list) == 0 {
		a.printf("No resources found.\n")
		return nil
	}
	for _, r := range list {
		a.printf("- %s [%s]\n", r.Title, r.Type)
		if r.Description != "" {
			a.printf("  %s\n", r.Description)
		}
		if r.URL != "" {
			a.printf("  %s\n", r.URL)
		}
	}
	return nil
}
