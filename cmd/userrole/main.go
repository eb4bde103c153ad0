package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"crowdfund/internal/bootstrap"
	"crowdfund/internal/domain"
	"crowdfund/internal/infra"
)

func main() {
	var (
		idFlag   int64
		roleFlag string
	)
	flag.Int64Var(&idFlag, "id", 0, "user ID to update")
	flag.StringVar(&roleFlag, "role", string(domain.UserRoleAdmin), "role to assign (Donor, CampaignCreator, Admin)")
	flag.Parse()

	_ = godotenv.Load()

	if idFlag <= 0 {
		exitWithError(errors.New("-id is required"))
	}
	role := domain.UserRole(strings.TrimSpace(roleFlag))
	if !role.Valid() {
		exitWithError(fmt.Errorf("unsupported role %q", roleFlag))
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	cfg.MigrateOnStart = false
	logger := infra.NewLogger(infra.EnvCLI).With().Str("cmd", "userrole").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	led, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		exitWithError(err)
	}
	defer led.Close()

	user, err := led.Service.AssignRole(ctx, idFlag, role)
	if err != nil {
		exitWithError(fmt.Errorf("failed to update user role: %w", err))
	}
	fmt.Printf("User %d (%s) now has role %s\n", user.ID, user.Email, user.Role)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
