package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/chuolink/shule/apps/api/echo"
	"github.com/chuolink/shule/core"
	"github.com/chuolink/shule/core/class"
	"github.com/chuolink/shule/core/report"
	"github.com/chuolink/shule/core/staff"
	"github.com/chuolink/shule/core/student"
	emailsvc "github.com/chuolink/shule/services/email"
	logsvc "github.com/chuolink/shule/services/logger"
	mongodb "github.com/chuolink/shule/storage/mongo"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	var logger core.Logger
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if conf.Debug {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up DB
	ctx := context.Background()
	db, disconnect, err := mongodb.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err := disconnect(ctx); err != nil {
			logger.Error("failed to disconnect", err)
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		logger.Fatal(fmt.Sprintf("ensuring indexes: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	stfRepo := mongodb.NewStaffRepository(db)
	stdRepo := mongodb.NewStudentRepository(db)
	clsRepo := mongodb.NewClassRepository(db)

	stfSvc := staff.NewService(stfRepo, mailSvc)
	stdSvc := student.NewService(stdRepo, mailSvc, logger)
	clsSvc := class.NewService(clsRepo)
	repSvc := report.NewService(stdRepo, stfRepo, clsRepo, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		&echoapi.Options{
			Address:    conf.Server.Host,
			Logger:     logger,
			StaffSvc:   stfSvc,
			StudentSvc: stdSvc,
			ClassSvc:   clsSvc,
			ReportSvc:  repSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shut down and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
