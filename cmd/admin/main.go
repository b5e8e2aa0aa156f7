// Command admin creates an admin (staff) account in the staffdesk database,
// applying migrations first.
package main

import (
	"bufio"
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/staffdesk/internal/admincli"
	"github.com/dmitrijs2005/staffdesk/internal/logging"
	"github.com/dmitrijs2005/staffdesk/internal/server/config"
	"github.com/dmitrijs2005/staffdesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/staffdesk/internal/server/services"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	opts, err := admincli.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("flags: %v", err)
	}

	db, err := repomanager.OpenDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, slog.LevelWarn)
	us := services.NewUserService(db, m, nil, logger, cfg)

	if _, err := admincli.CreateSuperuser(ctx, us, opts, bufio.NewReader(os.Stdin), os.Stdout); err != nil {
		db.Close()
		log.Fatalf("Error: %v", err)
	}

}
