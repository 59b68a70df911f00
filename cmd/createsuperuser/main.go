// Command createsuperuser creates an administrator account interactively.
//
//	createsuperuser -email root@example.com -first-name Root -last-name Admin
//
// The password is read from the terminal without echo, or from the
// SUPERUSER_PASSWORD environment variable when stdin is not a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"taskhub/internal/auth"
	"taskhub/internal/common"
	"taskhub/internal/config"
	"taskhub/internal/database"
	"taskhub/internal/mailer"
	"taskhub/internal/repositories/users"
	"taskhub/internal/services"
)

func main() {
	email := flag.String("email", "", "email address of the superuser")
	first := flag.String("first-name", "", "first name")
	last := flag.String("last-name", "", "last name")
	flag.Parse()

	if err := run(*email, *first, *last); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(email, first, last string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	in := bufio.NewReader(os.Stdin)
	if email == "" {
		if email, err = prompt(in, "Email: "); err != nil {
			return err
		}
	}
	if first == "" {
		if first, err = prompt(in, "First name: "); err != nil {
			return err
		}
	}
	if last == "" {
		if last, err = prompt(in, "Last name: "); err != nil {
			return err
		}
	}
	password, err := readPassword()
	if err != nil {
		return err
	}

	db, err := database.Connect(ctx, cfg.DBDriver, cfg.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.RunMigrations(ctx, db, cfg.DBDriver); err != nil {
		return err
	}

	log := logrus.StandardLogger()
	accounts := services.NewAccountService(
		users.NewSQLRepository(db),
		auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		auth.NewResetTokenGenerator(cfg.JWTSecret, cfg.PasswordResetTimeout),
		&mailer.LogMailer{Log: log}, log,
		services.AccountConfig{FrontendURL: cfg.FrontendURL},
	)
	u, err := accounts.CreateSuperuser(ctx, services.RegisterInput{
		Email: email, FirstName: first, LastName: last, Password: &password,
	})
	if err != nil {
		return describe(err)
	}
	fmt.Printf("Superuser %s created.\n", u.Email)
	return nil
}

func prompt(in *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		if p := os.Getenv("SUPERUSER_PASSWORD"); p != "" {
			return p, nil
		}
		return "", errors.New("stdin is not a terminal; set SUPERUSER_PASSWORD")
	}
	fmt.Print("Password: ")
	p1, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	fmt.Print("Password (again): ")
	p2, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if string(p1) != string(p2) {
		return "", errors.New("passwords do not match")
	}
	return string(p1), nil
}

// describe flattens validation messages into one line per field.
func describe(err error) error {
	var v *common.ValidationError
	if !errors.As(err, &v) {
		return err
	}
	fields := make([]string, 0, len(v.Fields))
	for f := range v.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "%s: %s\n", f, strings.Join(v.Fields[f], " "))
	}
	return errors.New(strings.TrimRight(b.String(), "\n"))
}
