package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	redisv9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/foundrly/foundrly-client/internal/adapters/api"
	cookiestore "github.com/foundrly/foundrly-client/internal/adapters/store/cookie"
	filestore "github.com/foundrly/foundrly-client/internal/adapters/store/file"
	memorystore "github.com/foundrly/foundrly-client/internal/adapters/store/memory"
	redisstore "github.com/foundrly/foundrly-client/internal/adapters/store/redis"
	gateway "github.com/foundrly/foundrly-client/internal/adapters/transport/http"
	"github.com/foundrly/foundrly-client/internal/app/auth/refresh"
	"github.com/foundrly/foundrly-client/internal/app/auth/session"
	apptoken "github.com/foundrly/foundrly-client/internal/app/auth/token"
	"github.com/foundrly/foundrly-client/internal/domain/auth/model"
	"github.com/foundrly/foundrly-client/internal/domain/auth/store"
	"github.com/foundrly/foundrly-client/internal/infra/config"
	lg "github.com/foundrly/foundrly-client/internal/infra/log"
)

const usage = `usage: foundrly <command> [flags]

commands:
  login            authenticate with email and password
  signup           create an account
  verify           confirm the emailed verification code
  resend-code      resend the verification code
  forgot-password  request a password reset email
  logout           end the session
  whoami           show the current session
  serve            run the local gateway
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	base, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		zapLog.Fatal("bad API base URL", zap.Error(err))
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		zapLog.Fatal("cookie jar", zap.Error(err))
	}

	kv, err := newKV(cfg)
	if err != nil {
		zapLog.Fatal("token store", zap.Error(err))
	}
	tokens := store.NewTiered(kv, cookiestore.New(jar, base), zapLog)

	client, err := api.New(cfg.APIBaseURL, cfg.RequestTimeout, tokens, jar, zapLog)
	if err != nil {
		zapLog.Fatal("api client", zap.Error(err))
	}
	coordinator := refresh.New(client, tokens, cfg.RefreshMaxAttempts, cfg.RefreshCooldown, zapLog)
	client.SetRefresher(coordinator)

	sess := session.New(client, coordinator, tokens, validator.New(), zapLog)
	client.OnSessionInvalid(sess.Invalidate)
	coordinator.OnSessionInvalid(sess.Invalidate)

	ctx := context.Background()
	sess.CheckAuthStatus(ctx)

	switch cmd := os.Args[1]; cmd {
	case "login":
		runLogin(ctx, sess)
	case "signup":
		runSignup(ctx, sess)
	case "verify":
		runVerify(ctx, sess)
	case "resend-code":
		runResend(ctx, sess)
	case "forgot-password":
		runForgotPassword(ctx, sess)
	case "logout":
		sess.Logout(ctx)
		fmt.Println("logged out")
	case "whoami":
		runWhoami(ctx, sess, tokens)
	case "serve":
		runServe(cfg, sess, client, zapLog)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
}

func newKV(cfg *config.Config) (store.KV, error) {
	switch cfg.TokenStore {
	case config.StoreFile:
		return filestore.New(cfg.TokenFilePath)
	case config.StoreRedis:
		return redisstore.New(redisv9.NewClient(&redisv9.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})), nil
	case config.StoreMemory:
		return memorystore.New(), nil
	}
	return nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
}

func runLogin(ctx context.Context, sess *session.Session) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(os.Args[2:])

	res := sess.Login(ctx, *email, *password)
	if !res.Success {
		if res.NeedsVerification {
			fmt.Fprintln(os.Stderr, "email not verified; run `foundrly verify` with the emailed code")
		} else {
			fmt.Fprintln(os.Stderr, "login failed:", res.Error)
		}
		os.Exit(1)
	}
	fmt.Printf("signed in as %s (%s)\n", res.User.Username, res.User.Role)
}

func runSignup(ctx context.Context, sess *session.Session) {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	username := fs.String("username", "", "desired username")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	role := fs.String("role", string(model.RoleEntrepreneur), "entrepreneur|student|investor")
	phone := fs.String("phone", "", "phone number (optional)")
	fs.Parse(os.Args[2:])

	res := sess.Signup(ctx, *username, *email, *password, model.Role(*role), *phone)
	if !res.Success {
		fmt.Fprintln(os.Stderr, "signup failed:", res.Error)
		os.Exit(1)
	}
	if res.RequiresVerification {
		fmt.Println("account created; check your email for the verification code")
		return
	}
	fmt.Printf("account created, signed in as %s\n", res.User.Username)
}

func runVerify(ctx context.Context, sess *session.Session) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	code := fs.String("code", "", "verification code")
	email := fs.String("email", "", "account email")
	fs.Parse(os.Args[2:])

	res := sess.VerifyEmail(ctx, *code, *email)
	if !res.Success {
		fmt.Fprintln(os.Stderr, "verification failed:", res.Error)
		os.Exit(1)
	}
	fmt.Println(res.Message)
}

func runResend(ctx context.Context, sess *session.Session) {
	fs := flag.NewFlagSet("resend-code", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	fs.Parse(os.Args[2:])

	res := sess.ResendVerificationCode(ctx, *email)
	if !res.Success {
		fmt.Fprintln(os.Stderr, res.Error)
		os.Exit(1)
	}
	fmt.Println(res.Message)
}

func runForgotPassword(ctx context.Context, sess *session.Session) {
	fs := flag.NewFlagSet("forgot-password", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	fs.Parse(os.Args[2:])

	res := sess.RequestPasswordReset(ctx, *email)
	if !res.Success {
		fmt.Fprintln(os.Stderr, res.Error)
		os.Exit(1)
	}
	fmt.Println(res.Message)
}

func runWhoami(ctx context.Context, sess *session.Session, tokens store.TokenStore) {
	snap := sess.Snapshot()
	if !snap.Authenticated {
		fmt.Println("not signed in")
		return
	}
	u := snap.User
	fmt.Printf("user:      %s <%s>\n", u.Username, u.Email)
	fmt.Printf("role:      %s\n", u.Role)
	fmt.Printf("verified:  %t\n", u.EmailVerified)
	if ttl := apptoken.TTL(tokens.Access(ctx)); ttl > 0 {
		fmt.Printf("token ttl: %s\n", ttl.Round(time.Second))
	}
}

func runServe(cfg *config.Config, sess *session.Session, client *api.Client, zapLog *zap.Logger) {
	gw := gateway.NewGateway(sess, client, zapLog)
	srv := &http.Server{
		Addr:    cfg.GatewayAddress,
		Handler: gw.Router(cfg.AllowedOrigins, cfg.AllowCredentials),
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, _ := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		zapLog.Info("gateway listening", zap.String("addr", cfg.GatewayAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutdown signal received")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}
	if err := g.Wait(); err != nil {
		zapLog.Error("gateway terminated", zap.Error(err))
	}
}
