// Package admin implements the operator commands of cmd/cli.
package admin

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/vars/internal/server/auth"
	"github.com/dmitrijs2005/vars/internal/server/repositories/repomanager"
)

const usage = `usage: cli <command> [flags]

commands:
  hash      read a password and print its argon2id hash
  migrate   apply database migrations (-d dsn, default $DATABASE_URL)
  help      show this text
`

// Migrator applies the schema to the database at dsn.
type Migrator func(ctx context.Context, dsn string) error

// IO bundles the streams of a command run.
type IO struct {
	In    *os.File
	Out   io.Writer
	Err   io.Writer
	input *bufio.Reader
}

func (s *IO) reader() *bufio.Reader {
	if s.input == nil {
		s.input = bufio.NewReader(s.In)
	}
	return s.input
}

// Run executes the command named by args[0] and returns the process exit
// code.
func Run(ctx context.Context, args []string, stdio *IO, migrate Migrator) int {
	if len(args) == 0 {
		fmt.Fprint(stdio.Err, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "hash":
		err = runHash(stdio, args[1:])
	case "migrate":
		err = runMigrate(ctx, stdio, args[1:], migrate)
	case "help", "-h", "--help":
		fmt.Fprint(stdio.Out, usage)
		return 0
	default:
		fmt.Fprintf(stdio.Err, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stdio.Err, "error:", err)
		return 1
	}
	return 0
}

func runHash(stdio *IO, args []string) error {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(stdio.Err)
	memory := fs.Uint64("m", uint64(auth.DefaultHasherParams.Memory), "memory in KiB")
	iterations := fs.Uint64("t", uint64(auth.DefaultHasherParams.Iterations), "iterations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkCost("-m", *memory, auth.DefaultHasherParams.Memory, auth.MaxMemoryKiB); err != nil {
		return err
	}
	if err := checkCost("-t", *iterations, auth.DefaultHasherParams.Iterations, auth.MaxIterations); err != nil {
		return err
	}

	pw, err := GetPassword(stdio.Err, int(stdio.In.Fd()), stdio.reader())
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer wipe(pw)

	if len(pw) == 0 {
		return errors.New("empty password")
	}

	h := auth.NewPasswordHasher(auth.HasherParams{Memory: uint32(*memory), Iterations: uint32(*iterations)})
	encoded, err := h.Hash(string(pw))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(stdio.Out, encoded)
	return err
}

// checkCost rejects argon2 costs weaker than the defaults or beyond what
// Verify accepts back from storage.
func checkCost(name string, v uint64, lo, hi uint32) error {
	if v < uint64(lo) || v > uint64(hi) {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, lo, hi, v)
	}
	return nil
}

func runMigrate(ctx context.Context, stdio *IO, args []string, migrate Migrator) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stdio.Err)
	dsn := fs.String("d", os.Getenv("DATABASE_URL"), "PostgreSQL DSN")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dsn == "" {
		return errors.New("database DSN is required (-d or DATABASE_URL)")
	}

	if err := migrate(ctx, *dsn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	fmt.Fprintln(stdio.Out, "migrations applied")
	return nil
}

// PostgresMigrator opens dsn and applies the embedded migrations.
func PostgresMigrator(ctx context.Context, dsn string) error {
	db, err := repomanager.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return err
	}
	return m.RunMigrations(ctx, db)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
