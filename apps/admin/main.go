package main

import (
	"context"
	"log"
	"os"

	"github.com/chuolink/shule/core"
	"github.com/chuolink/shule/core/student"
	emailsvc "github.com/chuolink/shule/services/email"
	logsvc "github.com/chuolink/shule/services/logger"
	mongodb "github.com/chuolink/shule/storage/mongo"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	ctx := context.Background()
	db, disconnect, err := mongodb.Open(ctx, core.Conf)
	errAndDie(err)
	defer func() {
		errAndDie(disconnect(ctx))
	}()

	stfRepo := mongodb.NewStaffRepository(db)
	stdRepo := mongodb.NewStudentRepository(db)

	// the ledger service logs integrity warnings while backfilling
	stdLogger := logsvc.NewConsoleLogger(logger)
	stdSvc := student.NewService(stdRepo, emailsvc.NewConsoleService(), stdLogger)

	// start CLI
	cli := commandLine{
		stfRepo: stfRepo,
		stdSvc:  stdSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
