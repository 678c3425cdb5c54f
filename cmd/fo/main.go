// Command fo is a command-line client for the family office service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/and161185/family-office/internal/model"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "fo:", err)
		os.Exit(1)
	}
}

type app struct {
	out    io.Writer
	dir    string
	client *client
	log    *zap.Logger
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `fo - family office client

Usage:
  fo [global flags] <command> [args]

Commands:
  version
  sign-up   --email E --password P [--name N] [--team T]
  sign-in   --email E --password P
  sign-out
  session
  resend-verification
  list      <documents|contacts|events|subscriptions>
  wizard    show | type <t> | method <manual|upload|ai> | set k=v... | back | review | reset | submit

Global flags:
`)
	fs.PrintDefaults()
}

// stderrLogger reports wizard persistence problems without cluttering stdout.
func stderrLogger(w io.Writer) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.WarnLevel))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("fo", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	server := fs.String("server", envOr("FO_SERVER", "http://localhost:8080"), "server base URL")
	dir := fs.String("config-dir", cfgDir(), "directory for the session and wizard state")
	timeout := fs.Duration("timeout", 30*time.Second, "request timeout")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	if fs.NArg() < 1 {
		usage(stderr, fs)
		return errUsage
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	a := &app{out: stdout, dir: *dir, client: newClient(*server, *dir), log: stderrLogger(stderr)}
	rest := fs.Args()[1:]

	switch cmd := fs.Arg(0); cmd {
	case "version":
		fmt.Fprintf(stdout, "fo %s (%s)\n", version, buildDate)
		return nil
	case "sign-up":
		return a.signUp(ctx, rest)
	case "sign-in":
		return a.signIn(ctx, rest)
	case "sign-out":
		if err := a.client.do(ctx, "POST", "/api/auth/sign-out", nil, nil); err != nil {
			return err
		}
		// the server clears the cookie; drop the local copy regardless
		return clearSession(a.dir)
	case "session":
		var out map[string]any
		err := a.client.do(ctx, "GET", "/api/auth/session", nil, &out)
		var ae *apiError
		if errors.As(err, &ae) && ae.Status == 401 {
			a.printJSON(map[string]any{"authenticated": false})
			return nil
		}
		if err != nil {
			return err
		}
		a.printJSON(out)
		return nil
	case "resend-verification":
		if err := a.client.do(ctx, "POST", "/api/auth/verify-email/resend", nil, nil); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "verification email sent")
		return nil
	case "list":
		return a.list(ctx, rest)
	case "wizard":
		return a.wizard(ctx, rest)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		usage(stderr, fs)
		return errUsage
	}
}

func (a *app) printJSON(v any) {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	TeamName string `json:"teamName,omitempty"`
}

func credentialFlags(name string) (*pflag.FlagSet, *credentials) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	c := &credentials{}
	fs.StringVar(&c.Email, "email", "", "account email")
	fs.StringVar(&c.Password, "password", os.Getenv("FO_PASSWORD"), "password (or FO_PASSWORD)")
	return fs, c
}

func (a *app) signUp(ctx context.Context, args []string) error {
	fs, c := credentialFlags("sign-up")
	fs.StringVar(&c.Name, "name", "", "display name")
	fs.StringVar(&c.TeamName, "team", "", "team name")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if c.Email == "" || c.Password == "" {
		return errors.New("need --email and --password")
	}
	var out map[string]any
	if err := a.client.do(ctx, "POST", "/api/auth/sign-up", c, &out); err != nil {
		return err
	}
	a.printJSON(out)
	return nil
}

func (a *app) signIn(ctx context.Context, args []string) error {
	fs, c := credentialFlags("sign-in")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if c.Email == "" || c.Password == "" {
		return errors.New("need --email and --password")
	}
	var out map[string]any
	if err := a.client.do(ctx, "POST", "/api/auth/sign-in", c, &out); err != nil {
		return err
	}
	a.printJSON(out)
	return nil
}

// teamID asks the server which team the signed-in user belongs to.
func (a *app) teamID(ctx context.Context) (string, error) {
	var out struct {
		User struct {
			TeamID string `json:"teamId"`
		} `json:"user"`
	}
	if err := a.client.do(ctx, "GET", "/api/auth/session", nil, &out); err != nil {
		var ae *apiError
		if errors.As(err, &ae) && ae.Status == 401 {
			return "", errNotSignedIn
		}
		return "", err
	}
	if out.User.TeamID == "" {
		return "", errors.New("account has no team")
	}
	return out.User.TeamID, nil
}

func (a *app) list(ctx context.Context, args []string) error {
	if len(args) != 1 || !model.ResourceType(args[0]).Valid() {
		return fmt.Errorf("list needs one of %v", model.ResourceTypes)
	}
	team, err := a.teamID(ctx)
	if err != nil {
		return err
	}
	var out map[string]any
	if err := a.client.do(ctx, "GET", "/api/teams/"+team+"/"+args[0], nil, &out); err != nil {
		return err
	}
	a.printJSON(out["items"])
	return nil
}
